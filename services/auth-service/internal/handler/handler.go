package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/payload"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/session"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/usecase"
	"github.com/athleticspots/athletic-spots-api/shared/utilities"
	"github.com/athleticspots/athletic-spots-api/shared/validator"
)

const maxJSONBodyBytes = 1 << 20

const msgSomethingWentWrong = "something went wrong"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuthHTTPHandler serves the authentication routes.
type AuthHTTPHandler struct {
	authUsecase          usecase.AuthUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	errorLogUsecase      usecase.ErrorLogUsecase
	sessions             *session.Manager
	validator            *validator.Validator
	db                   Pinger
	clientIP             *utilities.ClientIPResolver
	logger               *zerolog.Logger
}

func NewAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	errorLogUsecase usecase.ErrorLogUsecase,
	sessions *session.Manager,
	v *validator.Validator,
	db Pinger,
	clientIP *utilities.ClientIPResolver,
	logger *zerolog.Logger,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		authUsecase:          authUsecase,
		passwordResetUsecase: passwordResetUsecase,
		errorLogUsecase:      errorLogUsecase,
		sessions:             sessions,
		validator:            v,
		db:                   db,
		clientIP:             clientIP,
		logger:               logger,
	}
}

// decodeAndValidate reads a JSON body into dst and runs the struct rules.
// It writes the 400 response itself and reports whether the caller may go on.
func (h *AuthHTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
				Error:  "please correct the errors below",
				Fields: fieldErrs,
			})
			return false
		}

		h.internalError(w, r, err, "failed to validate request")
		return false
	}

	return true
}

// internalError logs and reports err, then answers with a generic 500.
func (h *AuthHTTPHandler) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.requestLogger(r).Error().Err(err).Msg(msg)

	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}

	writeError(w, http.StatusInternalServerError, msgSomethingWentWrong)
}

// requestLogger prefers the request-scoped logger set by the logging middleware.
func (h *AuthHTTPHandler) requestLogger(r *http.Request) *zerolog.Logger {
	if logger := zerolog.Ctx(r.Context()); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return h.logger
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.ErrorResponse{Error: message})
}
