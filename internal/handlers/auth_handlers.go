package handlers

import (
	"net/http"

	"procurement/internal/auth"
)

const forgotPasswordMessage = "If your email exists in our system, you will receive a password reset link shortly."

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	user, token, err := h.Auth.Register(r.Context(), in)
	h.recordAuth("register", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	user, token, err := h.Auth.Login(r.Context(), in.Email, in.Password)
	h.recordAuth("login", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// ForgotPasswordHandler отвечает одинаково для известного и неизвестного email
func (h *Handler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.Auth.ForgotPassword(r.Context(), in.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	body := envelope{"message": forgotPasswordMessage}
	if token != "" && h.opts.ExposeResetToken {
		body["resetToken"] = token
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	err := h.Auth.ResetPassword(r.Context(), in.Token, in.NewPassword)
	h.recordAuth("reset_password", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully")
}

func (h *Handler) recordAuth(operation string, err error) {
	if h.Metrics != nil {
		h.Metrics.AuthAttempt(operation, err == nil)
	}
}
