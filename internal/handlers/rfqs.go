package handlers

import (
	"context"
	"net/http"
	"strings"

	"procurement/internal/access"
	"procurement/internal/idgen"
	"procurement/models"
)

type createRfqRequest struct {
	ProjectID           int64        `json:"project_id"`
	Title               string       `json:"title"`
	Description         *string      `json:"description"`
	Deadline            *models.Date `json:"deadline"`
	Status              string       `json:"status"`
	ContactPerson       *string      `json:"contact_person"`
	ContactEmail        *string      `json:"contact_email"`
	ContactPhone        *string      `json:"contact_phone"`
	SpecialRequirements *string      `json:"special_requirements"`
}

func (h *Handler) CreateRfqHandler(w http.ResponseWriter, r *http.Request) {
	var req createRfqRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ProjectID == 0 || strings.TrimSpace(req.Title) == "" || req.Deadline == nil {
		h.fail(w, r, badRequest("Project ID, title, and deadline are required"))
		return
	}

	project, err := h.Store.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Project"))
		return
	}
	if err := h.authorize(r, access.ResourceRfq, access.ActionCreate, access.Subject{Project: project}); err != nil {
		h.fail(w, r, err)
		return
	}

	rfq := &models.Rfq{
		CustomID:            idgen.Rfq(),
		ProjectID:           project.ID,
		ProjectCustomID:     &project.CustomID,
		Title:               req.Title,
		Description:         req.Description,
		Deadline:            *req.Deadline,
		Status:              req.Status,
		ContactPerson:       req.ContactPerson,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		SpecialRequirements: req.SpecialRequirements,
	}
	if err := h.Store.CreateRfq(r.Context(), rfq); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"message": "RFQ created successfully", "rfq": rfq})
}

// GetRfqsHandler админ видит все RFQ, вендор открытые плюс те, где подавал котировку
func (h *Handler) GetRfqsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, access.ResourceRfq, access.ActionList, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}

	c := caller(r)
	if c.Is(models.RoleAdmin) {
		rfqs, err := h.Store.GetRfqs(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"message": "RFQs retrieved successfully", "rfqs": rfqs})
		return
	}

	open, err := h.Store.GetOpenRfqs(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quoted, err := h.Store.GetRfqsQuotedByVendor(r.Context(), c.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "RFQs retrieved successfully", "rfqs": mergeRfqs(open, quoted)})
}

// mergeRfqs объединяет списки без повторов по id, порядок первого списка сохраняется
func mergeRfqs(first, second []models.Rfq) []models.Rfq {
	seen := make(map[int64]struct{}, len(first)+len(second))
	out := make([]models.Rfq, 0, len(first)+len(second))
	for _, list := range [][]models.Rfq{first, second} {
		for _, rfq := range list {
			if _, ok := seen[rfq.ID]; ok {
				continue
			}
			seen[rfq.ID] = struct{}{}
			out = append(out, rfq)
		}
	}
	return out
}

// GetClosedRfqsHandler закрытые RFQ, в которых участвовал вызывающий вендор
func (h *Handler) GetClosedRfqsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, access.ResourceRfq, access.ActionListClosed, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}

	closed, err := h.Store.GetClosedRfqs(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quoted, err := h.Store.GetRfqsQuotedByVendor(r.Context(), caller(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	participated := make(map[int64]struct{}, len(quoted))
	for _, rfq := range quoted {
		participated[rfq.ID] = struct{}{}
	}

	out := make([]models.Rfq, 0, len(quoted))
	for _, rfq := range closed {
		if _, ok := participated[rfq.ID]; ok {
			out = append(out, rfq)
		}
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Closed RFQs retrieved successfully", "rfqs": out})
}

func (h *Handler) GetRfqsByProjectHandler(w http.ResponseWriter, r *http.Request) {
	h.listProjectRfqs(w, r, access.ActionListByParent, h.Store.GetRfqsByProject)
}

func (h *Handler) GetClosedRfqsByProjectHandler(w http.ResponseWriter, r *http.Request) {
	h.listProjectRfqs(w, r, access.ActionListClosedByProject, h.Store.GetClosedRfqsByProject)
}

func (h *Handler) listProjectRfqs(w http.ResponseWriter, r *http.Request, act access.Action,
	list func(ctx context.Context, projectID int64) ([]models.Rfq, error)) {
	id, err := parseID(r, "project_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Project"))
		return
	}
	if err := h.authorize(r, access.ResourceRfq, act, access.Subject{Project: project}); err != nil {
		h.fail(w, r, err)
		return
	}

	rfqs, err := list(r.Context(), project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "RFQs retrieved successfully", "rfqs": rfqs})
}

// loadRfq RFQ с цепочкой до проекта и проверкой правила
func (h *Handler) loadRfq(r *http.Request, act access.Action) (*models.Rfq, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return nil, err
	}
	rfq, err := h.Store.GetRfq(r.Context(), id)
	if err != nil {
		return nil, lookupErr(err, "RFQ")
	}
	subject, err := h.Access.RfqChain(r.Context(), caller(r), rfq)
	if err != nil {
		return nil, err
	}
	if err := h.authorize(r, access.ResourceRfq, act, subject); err != nil {
		return nil, err
	}
	return rfq, nil
}

func (h *Handler) GetRfqHandler(w http.ResponseWriter, r *http.Request) {
	rfq, err := h.loadRfq(r, access.ActionRead)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "RFQ retrieved successfully", "rfq": rfq})
}

func (h *Handler) UpdateRfqHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.RfqPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkPatch(patch); err != nil {
		h.fail(w, r, err)
		return
	}
	rfq, err := h.loadRfq(r, access.ActionUpdate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.Store.UpdateRfq(r.Context(), rfq.ID, patch)
	if err != nil {
		h.fail(w, r, lookupErr(err, "RFQ"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "RFQ updated successfully", "rfq": updated})
}

func (h *Handler) DeleteRfqHandler(w http.ResponseWriter, r *http.Request) {
	rfq, err := h.loadRfq(r, access.ActionDelete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Store.DeleteRfq(r.Context(), rfq.ID); err != nil {
		h.fail(w, r, lookupErr(err, "RFQ"))
		return
	}
	writeMessage(w, http.StatusOK, "RFQ deleted successfully")
}
