package handler

import (
	"net/http"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/payload"
	"github.com/athleticspots/athletic-spots-api/shared/utilities"
)

// msgResetLinkSent is returned whether or not the email belongs to an account.
const msgResetLinkSent = "If an account with that email exists, a password reset link has been sent."

func (h *AuthHTTPHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email, utilities.RequestOrigin(r)); err != nil {
		h.internalError(w, r, err, "failed to request password reset")
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: msgResetLinkSent})
}

func (h *AuthHTTPHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.passwordResetUsecase.ValidateResetToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.internalError(w, r, err, "failed to validate password reset token")
		return
	}

	writeJSON(w, http.StatusOK, payload.ValidateResetTokenResponse{Valid: valid})
}

func (h *AuthHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ok, err := h.passwordResetUsecase.ConsumeResetToken(r.Context(), req.Token, req.Password)
	if err != nil {
		h.internalError(w, r, err, "failed to reset password")
		return
	}

	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "your password has been reset"})
}
