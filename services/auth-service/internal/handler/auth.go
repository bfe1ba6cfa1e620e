package handler

import (
	"errors"
	"net/http"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/payload"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/session"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/usecase"
)

func (h *AuthHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailInUse):
			writeError(w, http.StatusConflict, "email already in use")
		case errors.Is(err, usecase.ErrUsernameTaken), errors.Is(err, usecase.ErrUserAlreadyExists):
			writeError(w, http.StatusConflict, "username already taken")
		case errors.Is(err, usecase.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "invalid email")
		default:
			h.internalError(w, r, err, "failed to register user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *AuthHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: h.clientIP.ClientIP(r),
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.internalError(w, r, err, "failed to login")
		return
	}

	if err := h.sessions.Create(w, user.ID.Hex(), user.Role(), req.Remember); err != nil {
		h.internalError(w, r, err, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout clears the session cookie and sends the browser back where it came
// from, or to the root when that page needs a session.
func (h *AuthHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w)
	http.Redirect(w, r, session.LogoutRedirectTarget(r), http.StatusSeeOther)
}

func (h *AuthHTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(user *model.User) payload.UserResponse {
	return payload.UserResponse{
		ID:       user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role()),
	}
}
