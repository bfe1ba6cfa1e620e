package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSigningSecret = errors.New("at least one signing secret is required")
	ErrInvalidToken    = errors.New("invalid token")
)

// JWTAuthenticator signs and validates HS256 tokens for a fixed audience and issuer.
// Secrets are ordered: the first one signs new tokens, all of them are accepted
// when validating so that a secret can be rotated without logging everyone out.
type JWTAuthenticator struct {
	audience string
	issuer   string
	secrets  [][]byte
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance.
func NewJWTAuthenticator(audience, issuer string, secrets []string) (*JWTAuthenticator, error) {
	keys := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		if s == "" {
			continue
		}
		keys = append(keys, []byte(s))
	}

	if len(keys) == 0 {
		return nil, ErrNoSigningSecret
	}

	return &JWTAuthenticator{
		audience: audience,
		issuer:   issuer,
		secrets:  keys,
	}, nil
}

// Audience returns the audience stamped into and required from tokens.
func (a *JWTAuthenticator) Audience() string {
	return a.audience
}

// Issuer returns the issuer stamped into and required from tokens.
func (a *JWTAuthenticator) Issuer() string {
	return a.issuer
}

// GenerateToken signs claims with the current (first) secret.
func (a *JWTAuthenticator) GenerateToken(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(a.secrets[0])
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// ValidateTokenWithClaims validates a token and parses it into the provided claims.
// The claims parameter should be a pointer to a struct that implements jwt.Claims.
func (a *JWTAuthenticator) ValidateTokenWithClaims(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	var lastErr error
	for _, secret := range a.secrets {
		token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secret),
			jwt.WithExpirationRequired(),
			jwt.WithAudience(a.audience),
			jwt.WithIssuer(a.issuer),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		)
		if err != nil {
			// Only a signature mismatch is worth retrying with an older secret.
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				lastErr = err
				continue
			}
			return nil, err
		}

		if !token.Valid {
			return nil, ErrInvalidToken
		}

		return token, nil
	}

	return nil, lastErr
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return secret, nil
	}
}
