package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/config"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/repository"
	authtypes "github.com/athleticspots/athletic-spots-api/services/auth-service/pkg/types"
	"github.com/athleticspots/athletic-spots-api/shared/auth"
)

// CookieName is the name of the session cookie.
const CookieName = "user_session"

// Manager issues, reads, and destroys cookie sessions. Sessions are not stored
// server side: the cookie holds a signed JWT sealed with XChaCha20-Poly1305.
type Manager struct {
	jwtAuth  *auth.JWTAuthenticator
	sealer   *auth.Sealer
	userRepo repository.UserRepository

	regularTTL  time.Duration
	extendedTTL time.Duration
	secure      bool
	sameSite    http.SameSite
	now         func() time.Time
}

// NewManager creates a session manager from the service configuration.
func NewManager(cfg *config.AuthServiceConfig, userRepo repository.UserRepository) (*Manager, error) {
	jwtAuth, err := auth.NewJWTAuthenticator(cfg.Session.Issuer, cfg.Session.Issuer, cfg.Session.Secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to create session signer: %w", err)
	}

	sealer, err := auth.NewSealer(cfg.Session.Secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to create session sealer: %w", err)
	}

	sameSite := http.SameSiteLaxMode
	if cfg.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}

	return &Manager{
		jwtAuth:     jwtAuth,
		sealer:      sealer,
		userRepo:    userRepo,
		regularTTL:  cfg.Session.RegularTTL,
		extendedTTL: cfg.Session.ExtendedTTL,
		secure:      cfg.IsProduction(),
		sameSite:    sameSite,
		now:         time.Now,
	}, nil
}

// Create issues a brand-new session cookie for the user, replacing any
// existing one. extend selects the extended ("remember me") lifetime.
func (m *Manager) Create(w http.ResponseWriter, userID string, role model.PermissionLevel, extend bool) error {
	ttl := m.regularTTL
	if extend {
		ttl = m.extendedTTL
	}

	now := m.now()
	claims := authtypes.SessionClaims{
		UserID:   userID,
		UserRole: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.jwtAuth.Issuer(),
			Audience:  jwt.ClaimStrings{m.jwtAuth.Audience()},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := m.jwtAuth.GenerateToken(claims)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	value, err := m.sealer.Seal([]byte(token))
	if err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}

	http.SetCookie(w, m.cookie(value, int(ttl.Seconds()), now.Add(ttl)))

	return nil
}

// Destroy sends an empty, already expired session cookie.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1, time.Unix(0, 0)))
}

// Get decodes the session cookie. A missing, expired, or tampered cookie is
// reported as no session.
func (m *Manager) Get(r *http.Request) (*authtypes.SessionClaims, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}

	token, err := m.sealer.Open(c.Value)
	if err != nil {
		return nil, false
	}

	var claims authtypes.SessionClaims
	if _, err := m.jwtAuth.ValidateTokenWithClaims(string(token), &claims); err != nil {
		return nil, false
	}

	if claims.UserID == "" {
		return nil, false
	}

	return &claims, true
}

// GetLoggedInUser resolves the session to a full user record. It returns
// (nil, nil) when there is no session or the account no longer exists; only
// store failures are returned as errors.
func (m *Manager) GetLoggedInUser(ctx context.Context, r *http.Request) (*model.User, error) {
	claims, ok := m.Get(r)
	if !ok {
		return nil, nil
	}

	if _, err := bson.ObjectIDFromHex(claims.UserID); err != nil {
		return nil, nil
	}

	user, err := m.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	return user, nil
}

func (m *Manager) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	}
}
