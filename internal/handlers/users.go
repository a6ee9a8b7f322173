package handlers

import (
	"net/http"

	"procurement/internal/access"
	"procurement/models"
)

// GetUserHandler свой профиль или любой для админа. Доступ проверяется до поиска.
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r, access.ResourceUser, access.ActionRead, access.Subject{TargetUserID: id}); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, lookupErr(err, "User"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "User retrieved successfully", "user": user})
}

// UpdateUserHandler role, email и пароль через этот маршрут не меняются
func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r, access.ResourceUser, access.ActionUpdate, access.Subject{TargetUserID: id}); err != nil {
		h.fail(w, r, err)
		return
	}
	var patch models.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkPatch(patch); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Store.UpdateUser(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, lookupErr(err, "User"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "User updated successfully", "user": user})
}
