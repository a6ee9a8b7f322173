package handlers

import (
	"errors"
	"net/http"
	"strings"

	"procurement/db"
	"procurement/internal/access"
	"procurement/models"
)

type createVendorRequest struct {
	UserID        int64   `json:"user_id"`
	CompanyName   string  `json:"company_name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	GSTNumber     *string `json:"gst_number"`
}

var errVendorExists = badRequest("Vendor profile already exists for this user")

// CreateVendorHandler профиль создаётся только для пользователя с ролью vendor, один на пользователя
func (h *Handler) CreateVendorHandler(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.UserID == 0 || strings.TrimSpace(req.CompanyName) == "" {
		h.fail(w, r, badRequest("User ID and company name are required"))
		return
	}

	ctx := r.Context()
	if _, err := h.requireVendorUser(ctx, req.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r, access.ResourceVendor, access.ActionCreate, access.Subject{TargetUserID: req.UserID}); err != nil {
		h.fail(w, r, err)
		return
	}

	_, err := h.Store.GetVendorByUser(ctx, req.UserID)
	switch {
	case err == nil:
		h.fail(w, r, errVendorExists)
		return
	case !errors.Is(err, db.ErrNotFound):
		h.fail(w, r, err)
		return
	}

	vendor := &models.Vendor{
		UserID:        req.UserID,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		GSTNumber:     req.GSTNumber,
	}
	// гонка двух запросов ловится уникальным индексом
	if err := h.Store.CreateVendor(ctx, vendor); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			err = errVendorExists
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"message": "Vendor created successfully", "vendor": vendor})
}

func (h *Handler) GetVendorsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, access.ResourceVendor, access.ActionList, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}
	vendors, err := h.Store.GetVendors(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Vendors retrieved successfully", "vendors": vendors})
}

func (h *Handler) GetVendorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vendor, err := h.Store.GetVendor(r.Context(), id)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Vendor"))
		return
	}
	if err := h.authorize(r, access.ResourceVendor, access.ActionRead, access.Subject{TargetUserID: vendor.UserID}); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Vendor retrieved successfully", "vendor": vendor})
}

func (h *Handler) GetVendorByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "user_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vendor, err := h.Store.GetVendorByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Vendor"))
		return
	}
	if err := h.authorize(r, access.ResourceVendor, access.ActionListByParent, access.Subject{TargetUserID: userID}); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Vendor retrieved successfully", "vendor": vendor})
}

// UpdateVendorHandler админский маршрут: доступ проверяется до поиска записи
func (h *Handler) UpdateVendorHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, access.ResourceVendor, access.ActionUpdate, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var patch models.VendorPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkPatch(patch); err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.Store.UpdateVendor(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Vendor"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Vendor updated successfully", "vendor": updated})
}

func (h *Handler) DeleteVendorHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, access.ResourceVendor, access.ActionDelete, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vendor, err := h.Store.DeleteVendor(r.Context(), id)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Vendor"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Vendor deleted successfully", "vendor": vendor})
}
