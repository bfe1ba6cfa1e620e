package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/config"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/repository"
	"github.com/athleticspots/athletic-spots-api/shared/mailer"
)

// resetTokenBytes is the amount of randomness in a reset token (256 bits).
const resetTokenBytes = 32

// EmailSender delivers an email.
type EmailSender interface {
	Send(email mailer.Email) error
}

// PasswordResetUsecase defines the business logic for password reset tokens.
type PasswordResetUsecase interface {
	// GenerateResetToken stores a fresh token on the user and returns it.
	// An unknown email yields "" and no error.
	GenerateResetToken(ctx context.Context, email string) (string, error)

	// RequestPasswordReset generates a token and emails the reset link. It
	// returns nil for unknown emails and for delivery failures so that the
	// caller cannot tell whether an account exists.
	RequestPasswordReset(ctx context.Context, email, origin string) error

	// ValidateResetToken reports whether token is held by a user and not expired.
	ValidateResetToken(ctx context.Context, token string) (bool, error)

	// ConsumeResetToken sets newPassword if token is live and clears the token.
	// It returns false for unknown, expired, or already used tokens.
	ConsumeResetToken(ctx context.Context, token, newPassword string) (bool, error)
}

type passwordResetUsecase struct {
	userRepo       repository.UserRepository
	hasher         PasswordHasher
	sender         EmailSender
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	sender EmailSender,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:       userRepo,
		hasher:         hasher,
		sender:         sender,
		authServiceCfg: authServiceCfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (u *passwordResetUsecase) GenerateResetToken(ctx context.Context, email string) (string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return "", err
	}

	expiresAt := u.now().Add(u.authServiceCfg.Token.PasswordResetTokenExpiresIn)
	if err := u.userRepo.SetResetToken(ctx, user.ID.Hex(), token, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return token, nil
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email, origin string) error {
	token, err := u.GenerateResetToken(ctx, email)
	if err != nil {
		return err
	}

	if token == "" {
		u.logger.Debug().Msg("password reset requested for unknown email")
		return nil
	}

	resetLink := u.resetLink(origin, token)
	expiresIn := u.authServiceCfg.Token.PasswordResetTokenExpiresIn

	if err := u.sender.Send(mailer.Email{
		To:       []string{email},
		Subject:  "Password Reset Request",
		Body:     passwordResetText(resetLink, expiresIn),
		HTMLBody: passwordResetHTML(resetLink, expiresIn),
	}); err != nil {
		u.logger.Error().Err(err).Msg("failed to send password reset email")
	}

	return nil
}

func (u *passwordResetUsecase) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	if _, err := u.userRepo.GetUserByResetToken(ctx, token, u.now()); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return true, nil
}

func (u *passwordResetUsecase) ConsumeResetToken(ctx context.Context, token, newPassword string) (bool, error) {
	if token == "" {
		return false, nil
	}

	passwordHash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return false, err
	}

	// Validation and clearing happen in one conditional update, so two
	// concurrent submissions of the same token cannot both succeed.
	if _, err := u.userRepo.ConsumeResetToken(ctx, token, passwordHash, u.now()); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to consume reset token: %w", err)
	}

	return true, nil
}

// resetLink builds the link sent by email. A configured base URL takes
// precedence over the request origin so a forged Host header cannot redirect
// the link elsewhere.
func (u *passwordResetUsecase) resetLink(origin, token string) string {
	base := strings.TrimRight(u.authServiceCfg.Token.AppBaseURL, "/")
	if base == "" {
		base = strings.TrimRight(origin, "/")
	}

	return base + u.authServiceCfg.Token.AppPasswordResetPath + "?token=" + url.QueryEscape(token)
}

func passwordResetText(resetLink string, expiresIn time.Duration) string {
	return fmt.Sprintf(`Password Reset Request

We received a request to reset your password. If you didn't make this request, you can safely ignore this email.

To reset your password, open this link: %s

This password reset link will expire in %s.

If you didn't request a password reset, please ignore this email or contact support if you have concerns.`,
		resetLink, expiresIn)
}

func passwordResetHTML(resetLink string, expiresIn time.Duration) string {
	link := html.EscapeString(resetLink)

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Password Reset Request</h2>
	<p>We received a request to reset your password. If you didn't make this request, you can safely ignore this email.</p>
	<p>To reset your password, click the button below:</p>
	<div style="text-align: center; margin: 25px 0;">
		<a href="%s" style="background-color: #4A90E2; color: white; padding: 10px 20px; text-decoration: none; border-radius: 4px; font-weight: bold;">Reset Password</a>
	</div>
	<p>Or copy and paste this link into your browser:</p>
	<p style="word-break: break-all; color: #4A90E2;">%s</p>
	<p>This password reset link will expire in %s.</p>
	<hr style="border: 1px solid #eee; margin: 20px 0;" />
	<p style="color: #777; font-size: 12px;">If you didn't request a password reset, please ignore this email or contact support if you have concerns.</p>
</div>`, link, link, expiresIn)
}

// generateResetToken returns 256 random bits, hex encoded.
func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
