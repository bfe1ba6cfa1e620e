package handler

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/athleticspots/athletic-spots-api/shared/middleware"
)

// NewRouter wires the auth routes behind request logging, panic recovery and
// per-request sentry hubs.
func NewRouter(h *AuthHTTPHandler, logger *zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(logger, h.clientIP))
	r.Use(chimiddleware.Recoverer)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)

	r.Get("/healthz", h.Healthz)

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/logout", methodNotAllowed)

	r.Post("/forgot-password", h.ForgotPassword)
	r.Get("/reset-password", h.ValidateResetToken)
	r.Post("/reset-password", h.ResetPassword)

	r.Post("/api/log-error", h.LogError)
	r.Get("/api/log-error", methodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireUser)
		r.Get("/me", h.Me)
	})

	return r
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}
