package usecase

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/config"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{64}$`)

type resetFixture struct {
	users   *memoryUserRepository
	sender  *recordingSender
	cfg     *config.AuthServiceConfig
	clock   time.Time
	usecase *passwordResetUsecase
	hasher  PasswordHasher
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	logger := zerolog.Nop()
	f := &resetFixture{
		users:  newMemoryUserRepository(),
		sender: &recordingSender{},
		cfg: &config.AuthServiceConfig{
			Token: config.TokenConfig{
				PasswordResetTokenExpiresIn: time.Hour,
				AppPasswordResetPath:        "/reset-password",
			},
		},
		clock:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		hasher: newTestHasher(),
	}

	f.usecase = &passwordResetUsecase{
		userRepo:       f.users,
		hasher:         f.hasher,
		sender:         f.sender,
		authServiceCfg: f.cfg,
		logger:         &logger,
		now:            func() time.Time { return f.clock },
	}

	return f
}

func (f *resetFixture) addUser(t *testing.T, email, password string) *model.User {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	return f.users.add(&model.User{
		Username:    "a",
		Email:       email,
		Credentials: &model.Credentials{PasswordHash: hash},
		Permissions: &model.Permissions{Level: model.PermissionUser},
	})
}

func TestGenerateResetToken(t *testing.T) {
	f := newResetFixture(t)
	user := f.addUser(t, "a@b.com", "Abc12345!")

	token, err := f.usecase.GenerateResetToken(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Regexp(t, hexToken, token)

	stored := f.users.get(user.ID)
	require.NotNil(t, stored.Credentials.ResetToken)
	assert.Equal(t, token, *stored.Credentials.ResetToken)
	require.NotNil(t, stored.Credentials.ResetTokenExpiry)
	assert.Equal(t, f.clock.Add(time.Hour), *stored.Credentials.ResetTokenExpiry)
}

func TestGenerateResetToken_UnknownEmail(t *testing.T) {
	f := newResetFixture(t)

	token, err := f.usecase.GenerateResetToken(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestGenerateResetToken_ReplacesPreviousToken(t *testing.T) {
	f := newResetFixture(t)
	f.addUser(t, "a@b.com", "Abc12345!")
	ctx := context.Background()

	first, err := f.usecase.GenerateResetToken(ctx, "a@b.com")
	require.NoError(t, err)
	second, err := f.usecase.GenerateResetToken(ctx, "a@b.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	valid, err := f.usecase.ValidateResetToken(ctx, first)
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = f.usecase.ValidateResetToken(ctx, second)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestGenerateResetToken_StoreError(t *testing.T) {
	f := newResetFixture(t)
	storeErr := errors.New("store unavailable")
	f.users.err = storeErr

	_, err := f.usecase.GenerateResetToken(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, storeErr)
}

func TestRequestPasswordReset_SendsLink(t *testing.T) {
	f := newResetFixture(t)
	user := f.addUser(t, "a@b.com", "Abc12345!")

	err := f.usecase.RequestPasswordReset(context.Background(), "a@b.com", "http://localhost:3000")
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)

	token := *f.users.get(user.ID).Credentials.ResetToken
	email := f.sender.sent[0]
	assert.Equal(t, []string{"a@b.com"}, email.To)
	assert.Equal(t, "Password Reset Request", email.Subject)
	assert.Contains(t, email.Body, "http://localhost:3000/reset-password?token="+token)
	assert.Contains(t, email.HTMLBody, "http://localhost:3000/reset-password?token="+token)
	assert.Contains(t, email.Body, "1h0m0s")
}

func TestRequestPasswordReset_BaseURLOverridesOrigin(t *testing.T) {
	f := newResetFixture(t)
	f.cfg.Token.AppBaseURL = "https://athletic-spots.com/"
	f.addUser(t, "a@b.com", "Abc12345!")

	err := f.usecase.RequestPasswordReset(context.Background(), "a@b.com", "https://attacker.test")
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)

	assert.Contains(t, f.sender.sent[0].Body, "https://athletic-spots.com/reset-password?token=")
	assert.NotContains(t, f.sender.sent[0].Body, "attacker.test")
}

func TestRequestPasswordReset_UnknownEmailSendsNothing(t *testing.T) {
	f := newResetFixture(t)

	err := f.usecase.RequestPasswordReset(context.Background(), "nobody@x.com", "http://localhost:3000")
	require.NoError(t, err)
	assert.Empty(t, f.sender.sent)
}

func TestRequestPasswordReset_DeliveryFailureIsHidden(t *testing.T) {
	f := newResetFixture(t)
	user := f.addUser(t, "a@b.com", "Abc12345!")
	f.sender.err = errors.New("smtp: connection refused")

	err := f.usecase.RequestPasswordReset(context.Background(), "a@b.com", "http://localhost:3000")
	require.NoError(t, err)
	assert.NotNil(t, f.users.get(user.ID).Credentials.ResetToken, "token is still stored")
}

func TestValidateResetToken(t *testing.T) {
	f := newResetFixture(t)
	f.addUser(t, "a@b.com", "Abc12345!")
	ctx := context.Background()

	token, err := f.usecase.GenerateResetToken(ctx, "a@b.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		shift time.Duration
		want  bool
	}{
		{name: "live", token: token, want: true},
		{name: "empty", token: "", want: false},
		{name: "unknown", token: "deadbeef", want: false},
		{name: "just before expiry", token: token, shift: time.Hour - time.Second, want: true},
		{name: "at expiry", token: token, shift: time.Hour, want: false},
		{name: "after expiry", token: token, shift: 2 * time.Hour, want: false},
	}

	start := f.clock
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.clock = start.Add(tt.shift)
			valid, err := f.usecase.ValidateResetToken(ctx, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, valid)
		})
	}
}

func TestConsumeResetToken_SingleUse(t *testing.T) {
	f := newResetFixture(t)
	user := f.addUser(t, "a@b.com", "Abc12345!")
	ctx := context.Background()

	token, err := f.usecase.GenerateResetToken(ctx, "a@b.com")
	require.NoError(t, err)

	ok, err := f.usecase.ConsumeResetToken(ctx, token, "NewPass1!")
	require.NoError(t, err)
	assert.True(t, ok)

	stored := f.users.get(user.ID)
	assert.True(t, f.hasher.Verify("NewPass1!", stored.Credentials.PasswordHash))
	assert.False(t, f.hasher.Verify("Abc12345!", stored.Credentials.PasswordHash))
	assert.Nil(t, stored.Credentials.ResetToken)
	assert.Nil(t, stored.Credentials.ResetTokenExpiry)
	require.NotNil(t, stored.Credentials.LastChanged)
	assert.Equal(t, f.clock, *stored.Credentials.LastChanged)

	ok, err = f.usecase.ConsumeResetToken(ctx, token, "Another1!")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.hasher.Verify("NewPass1!", f.users.get(user.ID).Credentials.PasswordHash))
}

func TestConsumeResetToken_Expired(t *testing.T) {
	f := newResetFixture(t)
	user := f.addUser(t, "a@b.com", "Abc12345!")
	ctx := context.Background()

	token, err := f.usecase.GenerateResetToken(ctx, "a@b.com")
	require.NoError(t, err)

	f.clock = f.clock.Add(2 * time.Hour)

	ok, err := f.usecase.ConsumeResetToken(ctx, token, "NewPass1!")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.hasher.Verify("Abc12345!", f.users.get(user.ID).Credentials.PasswordHash))
}

func TestConsumeResetToken_EmptyToken(t *testing.T) {
	f := newResetFixture(t)

	ok, err := f.usecase.ConsumeResetToken(context.Background(), "", "NewPass1!")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeResetToken_ConcurrentSubmissions(t *testing.T) {
	f := newResetFixture(t)
	f.addUser(t, "a@b.com", "Abc12345!")
	ctx := context.Background()

	token, err := f.usecase.GenerateResetToken(ctx, "a@b.com")
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.usecase.ConsumeResetToken(ctx, token, "NewPass1!")
			if assert.NoError(t, err) && ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestScenario_ForgotPasswordThenLogin(t *testing.T) {
	f := newResetFixture(t)
	f.addUser(t, "a@b.com", "Abc12345!")
	ctx := context.Background()

	logger := zerolog.Nop()
	auth := NewAuthUsecase(f.users, &memoryAdminLoginRepository{}, f.hasher, &logger)

	require.NoError(t, f.usecase.RequestPasswordReset(ctx, "a@b.com", "http://localhost:3000"))
	require.Len(t, f.sender.sent, 1)

	link := regexp.MustCompile(`token=([0-9a-f]{64})`).FindStringSubmatch(f.sender.sent[0].Body)
	require.Len(t, link, 2)

	ok, err := f.usecase.ConsumeResetToken(ctx, link[1], "NewPass1!")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = auth.Login(ctx, LoginParams{Email: "a@b.com", Password: "Abc12345!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, LoginParams{Email: "a@b.com", Password: "NewPass1!"})
	assert.NoError(t, err)
}
