package handlers

import (
	"context"
	"errors"
	"net/http"

	"procurement/db"
	"procurement/internal/access"
	"procurement/internal/idgen"
	"procurement/models"
)

type createQuoteRequest struct {
	RfqID       int64   `json:"rfq_id"`
	VendorID    int64   `json:"vendor_id"`
	TotalAmount float64 `json:"total_amount"`
}

type projectDetails struct {
	ID          int64   `json:"id"`
	CustomID    string  `json:"custom_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	OwnerID     int64   `json:"owner_id"`
}

type rfqDetails struct {
	ID          int64   `json:"id"`
	CustomID    string  `json:"custom_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type vendorDetails struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	CompanyName   *string `json:"company_name"`
	Email         string  `json:"email"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	GSTNumber     *string `json:"gst_number"`
}

// detailedQuote котировка с вложенными сведениями о проекте, RFQ и поставщике.
// Отсутствующее звено сериализуется как null.
type detailedQuote struct {
	models.Quote
	ProjectDetails *projectDetails `json:"project_details"`
	RfqDetails     *rfqDetails     `json:"rfq_details"`
	VendorDetails  *vendorDetails  `json:"vendor_details"`
}

// quoteEnricher кэширует связанные записи в пределах одного запроса
type quoteEnricher struct {
	store    StorageInterface
	rfqs     map[int64]*models.Rfq
	projects map[int64]*models.Project
	users    map[int64]*models.User
}

func (h *Handler) newEnricher() *quoteEnricher {
	return &quoteEnricher{
		store:    h.Store,
		rfqs:     map[int64]*models.Rfq{},
		projects: map[int64]*models.Project{},
		users:    map[int64]*models.User{},
	}
}

// seed добавляет уже загруженную цепочку, чтобы не читать её повторно
func (e *quoteEnricher) seed(s access.Subject) {
	if s.Rfq != nil {
		e.rfqs[s.Rfq.ID] = s.Rfq
	}
	if s.Project != nil {
		e.projects[s.Project.ID] = s.Project
	}
}

func (e *quoteEnricher) rfq(ctx context.Context, id int64) (*models.Rfq, error) {
	if rfq, ok := e.rfqs[id]; ok {
		return rfq, nil
	}
	rfq, err := e.store.GetRfq(ctx, id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	e.rfqs[id] = rfq
	return rfq, nil
}

func (e *quoteEnricher) project(ctx context.Context, id int64) (*models.Project, error) {
	if p, ok := e.projects[id]; ok {
		return p, nil
	}
	p, err := e.store.GetProject(ctx, id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	e.projects[id] = p
	return p, nil
}

func (e *quoteEnricher) user(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := e.users[id]; ok {
		return u, nil
	}
	u, err := e.store.GetUser(ctx, id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	e.users[id] = u
	return u, nil
}

func (e *quoteEnricher) enrich(ctx context.Context, q models.Quote) (detailedQuote, error) {
	out := detailedQuote{Quote: q}

	rfq, err := e.rfq(ctx, q.RfqID)
	if err != nil {
		return out, err
	}
	if rfq != nil {
		out.RfqDetails = &rfqDetails{ID: rfq.ID, CustomID: rfq.CustomID, Title: rfq.Title, Description: rfq.Description}

		project, err := e.project(ctx, rfq.ProjectID)
		if err != nil {
			return out, err
		}
		if project != nil {
			out.ProjectDetails = &projectDetails{
				ID:          project.ID,
				CustomID:    project.CustomID,
				Name:        project.Name,
				Description: project.Description,
				OwnerID:     project.OwnerID,
			}
		}
	}

	vendor, err := e.user(ctx, q.VendorID)
	if err != nil {
		return out, err
	}
	if vendor != nil {
		out.VendorDetails = &vendorDetails{
			ID:            vendor.ID,
			Name:          vendor.Name,
			CompanyName:   vendor.CompanyName,
			Email:         vendor.Email,
			ContactPerson: vendor.ContactPerson,
			Phone:         vendor.Phone,
			Address:       vendor.Address,
			GSTNumber:     vendor.GSTNumber,
		}
	}
	return out, nil
}

func (e *quoteEnricher) enrichAll(ctx context.Context, quotes []models.Quote) ([]detailedQuote, error) {
	out := make([]detailedQuote, 0, len(quotes))
	for _, q := range quotes {
		d, err := e.enrich(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// CreateQuoteHandler порядок проверок: поля, RFQ, статус RFQ для вендора, роль целевого пользователя, доступ
func (h *Handler) CreateQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.RfqID == 0 || req.VendorID == 0 || req.TotalAmount == 0 {
		h.fail(w, r, badRequest("RFQ ID, vendor ID, and total amount are required"))
		return
	}

	ctx := r.Context()
	rfq, err := h.Store.GetRfq(ctx, req.RfqID)
	if err != nil {
		h.fail(w, r, lookupErr(err, "RFQ"))
		return
	}
	// владелец и админ могут заносить котировки и по закрытому RFQ
	if caller(r).Is(models.RoleVendor) && rfq.Status != models.RfqStatusOpen {
		h.fail(w, r, badRequest("Cannot submit quote for closed RFQ"))
		return
	}
	if _, err := h.requireVendorUser(ctx, req.VendorID); err != nil {
		h.fail(w, r, err)
		return
	}
	subject, err := h.Access.RfqChain(ctx, caller(r), rfq)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	subject.TargetUserID = req.VendorID
	if err := h.authorize(r, access.ResourceQuote, access.ActionCreate, subject); err != nil {
		h.fail(w, r, err)
		return
	}

	quote := &models.Quote{
		CustomID:    idgen.Quote(),
		RfqID:       rfq.ID,
		RfqCustomID: &rfq.CustomID,
		VendorID:    req.VendorID,
		Status:      models.QuoteStatusSubmitted,
		TotalAmount: req.TotalAmount,
	}
	if err := h.Store.CreateQuote(ctx, quote); err != nil {
		h.fail(w, r, err)
		return
	}

	enricher := h.newEnricher()
	enricher.seed(subject)
	detailed, err := enricher.enrich(ctx, *quote)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"message": "Quote created successfully", "quote": detailed})
}

// requireVendorUser пользователь должен существовать и иметь роль vendor
func (h *Handler) requireVendorUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := h.Store.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	if u.Role != models.RoleVendor {
		return nil, badRequest("User must have vendor role")
	}
	return u, nil
}

// GetQuotesHandler все котировки, только для админа
func (h *Handler) GetQuotesHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, access.ResourceQuote, access.ActionList, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}
	quotes, err := h.Store.GetQuotes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Quotes retrieved successfully", "quotes": quotes})
}

// GetQuotesByRfqHandler вендор, подавший котировку, видит все котировки RFQ
func (h *Handler) GetQuotesByRfqHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "rfq_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	rfq, err := h.Store.GetRfq(ctx, id)
	if err != nil {
		h.fail(w, r, lookupErr(err, "RFQ"))
		return
	}
	subject, err := h.Access.RfqChain(ctx, caller(r), rfq)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r, access.ResourceQuote, access.ActionListByParent, subject); err != nil {
		h.fail(w, r, err)
		return
	}

	quotes, err := h.Store.GetQuotesByRfq(ctx, rfq.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	enricher := h.newEnricher()
	enricher.seed(subject)
	detailed, err := enricher.enrichAll(ctx, quotes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Quotes retrieved successfully", "quotes": detailed})
}

func (h *Handler) GetQuotesByVendorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "vendor_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	vendor, err := h.requireVendorUser(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r, access.ResourceQuote, access.ActionListByVendor, access.Subject{TargetUserID: vendor.ID}); err != nil {
		h.fail(w, r, err)
		return
	}

	quotes, err := h.Store.GetQuotesByVendor(ctx, vendor.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	enricher := h.newEnricher()
	enricher.users[vendor.ID] = vendor
	detailed, err := enricher.enrichAll(ctx, quotes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Quotes retrieved successfully", "quotes": detailed})
}

// loadQuote котировка с цепочкой Quote -> Rfq -> Project
func (h *Handler) loadQuote(r *http.Request, act access.Action) (*models.Quote, access.Subject, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return nil, access.Subject{}, err
	}
	quote, err := h.Store.GetQuote(r.Context(), id)
	if err != nil {
		return nil, access.Subject{}, lookupErr(err, "Quote")
	}
	subject, err := h.Access.QuoteChain(r.Context(), quote)
	if err != nil {
		return nil, access.Subject{}, err
	}
	if err := h.authorize(r, access.ResourceQuote, act, subject); err != nil {
		return nil, access.Subject{}, err
	}
	return quote, subject, nil
}

func (h *Handler) GetQuoteHandler(w http.ResponseWriter, r *http.Request) {
	quote, subject, err := h.loadQuote(r, access.ActionRead)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	enricher := h.newEnricher()
	enricher.seed(subject)
	detailed, err := enricher.enrich(r.Context(), *quote)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Quote retrieved successfully", "quote": detailed})
}

func (h *Handler) UpdateQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.QuotePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkPatch(patch); err != nil {
		h.fail(w, r, err)
		return
	}
	quote, _, err := h.loadQuote(r, access.ActionUpdate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.Store.UpdateQuote(r.Context(), quote.ID, patch)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Quote"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Quote updated successfully", "quote": updated})
}

func (h *Handler) DeleteQuoteHandler(w http.ResponseWriter, r *http.Request) {
	quote, _, err := h.loadQuote(r, access.ActionDelete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Store.DeleteQuote(r.Context(), quote.ID); err != nil {
		h.fail(w, r, lookupErr(err, "Quote"))
		return
	}
	writeMessage(w, http.StatusOK, "Quote deleted successfully")
}
