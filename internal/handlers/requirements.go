package handlers

import (
	"net/http"
	"strings"

	"procurement/internal/access"
	"procurement/internal/idgen"
	"procurement/models"
)

type createRequirementRequest struct {
	ProjectID   int64    `json:"project_id"`
	ItemName    string   `json:"item_name"`
	Description *string  `json:"description"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	Rate        *float64 `json:"rate"`
	Category    *string  `json:"category"`
}

func (req createRequirementRequest) validate() error {
	if req.ProjectID == 0 || strings.TrimSpace(req.ItemName) == "" || req.Quantity == 0 || strings.TrimSpace(req.Unit) == "" {
		return badRequest("Project ID, item name, quantity, and unit are required")
	}
	return nil
}

func (h *Handler) CreateRequirementHandler(w http.ResponseWriter, r *http.Request) {
	var req createRequirementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.Store.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Project"))
		return
	}
	if err := h.authorize(r, access.ResourceRequirement, access.ActionCreate, access.Subject{Project: project}); err != nil {
		h.fail(w, r, err)
		return
	}

	requirement := &models.Requirement{
		CustomID:        idgen.Requirement(),
		ProjectID:       project.ID,
		ProjectCustomID: &project.CustomID,
		ItemName:        req.ItemName,
		Description:     req.Description,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Rate:            req.Rate,
		Category:        req.Category,
	}
	if err := h.Store.CreateRequirement(r.Context(), requirement); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"message": "Requirement added successfully", "requirement": requirement})
}

// GetRequirementsByProjectHandler позиции проекта, старые первыми
func (h *Handler) GetRequirementsByProjectHandler(w http.ResponseWriter, r *http.Request) {
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
	if err := h.authorize(r, access.ResourceRequirement, access.ActionListByParent, access.Subject{Project: project}); err != nil {
		h.fail(w, r, err)
		return
	}

	requirements, err := h.Store.GetRequirementsByProject(r.Context(), project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Requirements retrieved successfully", "requirements": requirements})
}

// loadRequirement позиция плюс проверка владения через проект
func (h *Handler) loadRequirement(r *http.Request, act access.Action) (*models.Requirement, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return nil, err
	}
	requirement, err := h.Store.GetRequirement(r.Context(), id)
	if err != nil {
		return nil, lookupErr(err, "Requirement")
	}
	subject, err := h.Access.RequirementChain(r.Context(), requirement)
	if err != nil {
		return nil, err
	}
	if err := h.authorize(r, access.ResourceRequirement, act, subject); err != nil {
		return nil, err
	}
	return requirement, nil
}

func (h *Handler) UpdateRequirementHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.RequirementPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkPatch(patch); err != nil {
		h.fail(w, r, err)
		return
	}
	requirement, err := h.loadRequirement(r, access.ActionUpdate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.Store.UpdateRequirement(r.Context(), requirement.ID, patch)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Requirement"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Requirement updated successfully", "requirement": updated})
}

func (h *Handler) DeleteRequirementHandler(w http.ResponseWriter, r *http.Request) {
	requirement, err := h.loadRequirement(r, access.ActionDelete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Store.DeleteRequirement(r.Context(), requirement.ID); err != nil {
		h.fail(w, r, lookupErr(err, "Requirement"))
		return
	}
	writeMessage(w, http.StatusOK, "Requirement deleted successfully")
}
