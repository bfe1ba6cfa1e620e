package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload carried inside the user_session cookie.
type SessionClaims struct {
	UserID   string `json:"userId"`
	UserRole string `json:"userRole"`
	jwt.RegisteredClaims
}
