package handler

import (
	"net/http"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/payload"
)

// LogError stores an error reported by the browser. Only the user agent and
// referer are kept from the request headers.
func (h *AuthHTTPHandler) LogError(w http.ResponseWriter, r *http.Request) {
	var req payload.LogErrorRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	entry := &model.ErrorLog{
		Message: req.Message,
		Stack:   req.Stack,
		Type:    req.Type,
		Request: model.RequestInfo{
			URL:    r.URL.String(),
			Method: r.Method,
			Headers: map[string]string{
				"user-agent": r.UserAgent(),
				"referer":    r.Referer(),
			},
		},
	}
	if entry.Message == "" {
		entry.Message = "Unknown client-side error"
	}
	if entry.Type == "" {
		entry.Type = "Error"
	}

	if _, err := h.errorLogUsecase.LogClientError(r.Context(), entry); err != nil {
		h.requestLogger(r).Error().Err(err).Msg("failed to log client-side error")
		writeJSON(w, http.StatusInternalServerError, payload.LogErrorResponse{Success: false})
		return
	}

	writeJSON(w, http.StatusOK, payload.LogErrorResponse{Success: true})
}
