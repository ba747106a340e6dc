package http

import (
	"net/http"

	"github.com/lumengallery/auth-service/internal/application"
)

func (h *Handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req application.SendOTPRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "send_otp", err)
		return
	}

	if err := h.service.SendCode(r.Context(), req.Email); err != nil {
		writeMappedError(r.Context(), w, "send_otp", err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to email")
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req application.VerifyOTPRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_otp", err)
		return
	}

	if err := h.service.CheckCode(r.Context(), req.Email, req.OTP); err != nil {
		writeMappedError(r.Context(), w, "verify_otp", err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP verified")
}
