package http

import (
	"net/http"

	"github.com/lumengallery/auth-service/internal/application"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register", err)
		return
	}

	if err := h.service.StartRegistration(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "register", err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to email")
}

func (h *Handler) verifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req application.CompleteRegistrationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_registration", err)
		return
	}

	res, err := h.service.CompleteRegistration(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "verify_registration", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) bootstrapAdmin(w http.ResponseWriter, r *http.Request) {
	var req application.BootstrapAdminRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "bootstrap_admin", err)
		return
	}

	res, err := h.service.BootstrapAdmin(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "bootstrap_admin", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = readIP(r)
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req application.ForgotPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "forgot_password", err)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeMappedError(r.Context(), w, "forgot_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to email")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req application.ResetPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "reset_password", err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "reset_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully")
}
