package security

import (
	"errors"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher hashes and verifies passwords using argon2id.
type PasswordHasher struct {
	config argon2.Config
}

// PasswordHasherOption configures the cost parameters of a PasswordHasher.
type PasswordHasherOption func(*argon2.Config)

// WithTimeCost sets the number of argon2 passes over memory.
func WithTimeCost(passes uint32) PasswordHasherOption {
	return func(c *argon2.Config) {
		c.TimeCost = passes
	}
}

// WithMemoryCost sets the argon2 memory cost in KiB.
func WithMemoryCost(kib uint32) PasswordHasherOption {
	return func(c *argon2.Config) {
		c.MemoryCost = kib
	}
}

// WithParallelism sets the number of argon2 lanes.
func WithParallelism(threads uint8) PasswordHasherOption {
	return func(c *argon2.Config) {
		c.Parallelism = threads
	}
}

// NewPasswordHasher creates a PasswordHasher starting from the argon2id defaults.
func NewPasswordHasher(opts ...PasswordHasherOption) *PasswordHasher {
	cfg := argon2.DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &PasswordHasher{config: cfg}
}

// Hash returns an encoded argon2id hash of password. A fresh random salt is
// generated on every call.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// bcryptPrefixes identify hashes written before the switch to argon2id.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Verify reports whether password matches the encoded hash. Both argon2id and
// legacy bcrypt hashes are accepted. Malformed hashes never match.
func (h *PasswordHasher) Verify(password, encodedHash string) bool {
	if encodedHash == "" {
		return false
	}

	if isBcrypt(encodedHash) {
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	}

	ok, err := argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
	if err != nil {
		return false
	}

	return ok
}

// NeedsRehash reports whether encodedHash uses a legacy scheme and should be
// replaced with an argon2id hash once the password is known.
func (h *PasswordHasher) NeedsRehash(encodedHash string) bool {
	return isBcrypt(encodedHash)
}

func isBcrypt(encodedHash string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(encodedHash, prefix) {
			return true
		}
	}
	return false
}
