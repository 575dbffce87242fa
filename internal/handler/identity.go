package handler

import (
	"net/http"

	"github.com/AlexZinkM/chewy-custody/internal/model"
)

// Signup handles POST /signup
// @Summary      Register user
// @Description  Writes a provisional profile and registers the identity with the provider
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.SignupRequest  true  "Signup data"
// @Success      200      {object}  model.StatusResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.identity.Signup(r.Context(), req)
	if err != nil {
		status := statusOf(err, false)
		if status == http.StatusConflict {
			writeError(w, status, "Email already exists", err)
			return
		}
		writeError(w, status, "Error signing up user", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ConfirmUser handles POST /confirmUser
// @Summary      Confirm user
// @Description  Verifies the confirmation code and provisions the user's wallet
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.ConfirmRequest  true  "Confirmation data"
// @Success      200      {object}  model.ConfirmResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /confirmUser [post]
func (h *Handler) ConfirmUser(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.identity.Confirm(r.Context(), req)
	if err != nil {
		writeError(w, statusOf(err, false), provisioningMessage(err, "Error confirming user"), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Login handles POST /login
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Credentials"
// @Success      200      {object}  model.LoginResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.identity.Login(r.Context(), req)
	if err != nil {
		writeError(w, statusOf(err, false), "Error logging in", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ForgotPassword handles POST /forgot-password
// @Summary      Start password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.ForgotPasswordRequest  true  "Account email"
// @Success      200      {object}  model.StatusResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.identity.ForgotPassword(r.Context(), req)
	if err != nil {
		writeError(w, statusOf(err, false), "Error initiating password reset", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword handles POST /reset-password
// @Summary      Complete password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.ResetPasswordRequest  true  "Reset data"
// @Success      200      {object}  model.StatusResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.identity.ResetPassword(r.Context(), req)
	if err != nil {
		writeError(w, statusOf(err, false), "Error resetting password", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
