package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/payload"
	"github.com/athleticspots/athletic-spots-api/shared/utilities"
)

type contextKey struct{}

var userKey = contextKey{}

// protectedPrefixes are areas that require a session; after logout the user
// is never sent back into one of them.
var protectedPrefixes = []string{"/profile", "/settings"}

// UserFromContext returns the user loaded by RequireUser.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// RequireUser loads the logged-in user into the request context and rejects
// anonymous requests with 401.
func (m *Manager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.GetLoggedInUser(r.Context(), r)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to resolve session")
			writeError(w, http.StatusInternalServerError, "something went wrong")
			return
		}

		if user == nil {
			writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// writeError answers in the same JSON shape as the auth handlers.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload.ErrorResponse{Error: message})
}

// LogoutRedirectTarget picks where to send the browser after logout: back to
// the referring page unless it is missing, foreign, or inside a protected area,
// in which case the site root.
func LogoutRedirectTarget(r *http.Request) string {
	path := utilities.RefererPath(r)
	if path == "" {
		return "/"
	}

	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return "/"
		}
	}

	return path
}
