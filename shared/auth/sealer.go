package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealerKeyInfo = "athletic-spots cookie sealer v1"

var ErrUnsealFailed = errors.New("unable to open sealed value")

// Sealer encrypts and authenticates opaque values (XChaCha20-Poly1305) under
// keys derived from one or more server secrets. The first secret seals, all of
// them are tried when opening.
type Sealer struct {
	aeads []cipher.AEAD
}

// NewSealer derives one AEAD per non-empty secret.
func NewSealer(secrets []string) (*Sealer, error) {
	var aeads []cipher.AEAD
	for _, s := range secrets {
		if s == "" {
			continue
		}

		key := make([]byte, chacha20poly1305.KeySize)
		if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(s), nil, []byte(sealerKeyInfo)), key); err != nil {
			return nil, err
		}

		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, err
		}
		aeads = append(aeads, aead)
	}

	if len(aeads) == 0 {
		return nil, ErrNoSigningSecret
	}

	return &Sealer{aeads: aeads}, nil
}

// Seal encrypts plaintext and returns a URL-safe base64 string (nonce || ciphertext).
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	aead := s.aeads[0]

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Any tampering or unknown key yields ErrUnsealFailed.
func (s *Sealer) Open(value string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrUnsealFailed
	}

	for _, aead := range s.aeads {
		if len(raw) < aead.NonceSize()+aead.Overhead() {
			return nil, ErrUnsealFailed
		}

		nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
		if plaintext, err := aead.Open(nil, nonce, ciphertext, nil); err == nil {
			return plaintext, nil
		}
	}

	return nil, ErrUnsealFailed
}
