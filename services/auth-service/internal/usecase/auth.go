package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/repository"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool

	// NeedsRehash reports whether encodedHash uses a legacy scheme.
	NeedsRehash(encodedHash string) bool
}

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	// Login authenticates by email and password. Every expected failure,
	// including an unknown email, is reported as ErrInvalidCredentials.
	Login(ctx context.Context, params LoginParams) (*model.User, error)

	// Register creates a plain user account.
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
}

// LoginParams defines the parameters for user login.
// IPAddress is optional; administrator attempts are audited only when it is set.
type LoginParams struct {
	Email     string
	Password  string
	IPAddress string
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("invalid email")
)

type authUsecase struct {
	userRepo       repository.UserRepository
	adminLoginRepo repository.AdminLoginRepository
	hasher         PasswordHasher
	logger         *zerolog.Logger
	now            func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	adminLoginRepo repository.AdminLoginRepository,
	hasher PasswordHasher,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:       userRepo,
		adminLoginRepo: adminLoginRepo,
		hasher:         hasher,
		logger:         logger,
		now:            time.Now,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Spend comparable CPU so timing does not reveal unknown emails.
			u.hasher.Verify(params.Password, u.placeholderHash())
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	valid := false
	if hash := user.PasswordHash(); hash != "" {
		valid = u.hasher.Verify(params.Password, hash)
	} else {
		u.hasher.Verify(params.Password, u.placeholderHash())
	}

	if user.IsAdministrator() && params.IPAddress != "" {
		u.auditAdminLogin(ctx, user, valid, params.IPAddress)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if u.hasher.NeedsRehash(user.PasswordHash()) {
		u.upgradePasswordHash(ctx, user, params.Password)
	}

	now := u.now()
	if err := u.userRepo.UpdateLastActive(ctx, user.ID.Hex(), now); err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to update last active time")
	} else {
		if user.Meta == nil {
			user.Meta = &model.Meta{}
		}
		user.Meta.LastActive = &now
	}

	return user, nil
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	username, _, ok := strings.Cut(params.Email, "@")
	if !ok || username == "" {
		return nil, ErrInvalidEmail
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if _, err := u.userRepo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	now := u.now()
	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Username: username,
		Email:    params.Email,
		Credentials: &model.Credentials{
			PasswordHash: passwordHash,
			LastChanged:  &now,
		},
		Profile:     &model.Profile{JoinDate: &now},
		Permissions: &model.Permissions{Level: model.PermissionUser},
		Meta:        &model.Meta{AccountStatus: model.AccountActive},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// auditAdminLogin writes one admin-login record. A failed write is logged and
// does not change the outcome of the login.
func (u *authUsecase) auditAdminLogin(ctx context.Context, user *model.User, success bool, ipAddress string) {
	record := &model.AdminLogin{
		Timestamp: u.now(),
		UserID:    user.ID.Hex(),
		Success:   success,
		IPAddress: ipAddress,
	}

	if _, err := u.adminLoginRepo.CreateAdminLogin(ctx, record); err != nil {
		u.logger.Error().Err(err).
			Str("user_id", record.UserID).
			Bool("success", success).
			Msg("failed to log admin login")
		return
	}

	u.logger.Info().Str("user_id", record.UserID).Bool("success", success).Msg("admin login attempt logged")
}

// upgradePasswordHash replaces a legacy hash after a successful login. A
// failure leaves the legacy hash in place, which still verifies.
func (u *authUsecase) upgradePasswordHash(ctx context.Context, user *model.User, password string) {
	passwordHash, err := u.hasher.Hash(password)
	if err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to rehash legacy password")
		return
	}

	if err := u.userRepo.UpdatePasswordHash(ctx, user.ID.Hex(), passwordHash); err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to store upgraded password hash")
		return
	}

	user.Credentials.PasswordHash = passwordHash
	u.logger.Info().Str("user_id", user.ID.Hex()).Msg("upgraded legacy password hash")
}

func (u *authUsecase) placeholderHash() string {
	u.dummyOnce.Do(func() {
		hash, err := u.hasher.Hash("athletic-spots-placeholder")
		if err != nil {
			u.logger.Warn().Err(err).Msg("failed to compute placeholder hash")
			return
		}
		u.dummyHash = hash
	})

	return u.dummyHash
}
