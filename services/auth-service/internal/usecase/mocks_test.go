package usecase

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
	"github.com/athleticspots/athletic-spots-api/shared/mailer"
	"github.com/athleticspots/athletic-spots-api/shared/security"
)

// memoryUserRepository is an in-memory UserRepository. ConsumeResetToken is
// atomic under mu, mirroring the single conditional update used with MongoDB.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*model.User

	err error // returned by every call when set
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[bson.ObjectID]*model.User)}
}

func (r *memoryUserRepository) add(user *model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	r.users[user.ID] = user
	return user
}

func (r *memoryUserRepository) get(id bson.ObjectID) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

func (r *memoryUserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}
		}
	}
	user.ID = bson.NewObjectID()
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryUserRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	if u := r.get(oid); u != nil {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memoryUserRepository) find(match func(u *model.User) bool) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func liveToken(u *model.User, token string, now time.Time) bool {
	c := u.Credentials
	return c != nil && c.ResetToken != nil && *c.ResetToken == token &&
		c.ResetTokenExpiry != nil && c.ResetTokenExpiry.After(now)
}

func (r *memoryUserRepository) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return r.find(func(u *model.User) bool { return liveToken(u, token, now) })
}

func (r *memoryUserRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	if r.err != nil {
		return r.err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[oid]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if u.Credentials == nil {
		u.Credentials = &model.Credentials{}
	}
	u.Credentials.ResetToken = &token
	u.Credentials.ResetTokenExpiry = &expiresAt
	return nil
}

func (r *memoryUserRepository) ConsumeResetToken(
	ctx context.Context,
	token, passwordHash string,
	now time.Time,
) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if liveToken(u, token, now) {
			u.Credentials.PasswordHash = passwordHash
			u.Credentials.LastChanged = &now
			u.Credentials.ResetToken = nil
			u.Credentials.ResetTokenExpiry = nil
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memoryUserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if r.err != nil {
		return r.err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[oid]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if u.Credentials == nil {
		u.Credentials = &model.Credentials{}
	}
	u.Credentials.PasswordHash = passwordHash
	return nil
}

func (r *memoryUserRepository) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	return r.err
}

type memoryAdminLoginRepository struct {
	mu      sync.Mutex
	records []*model.AdminLogin
	err     error
}

func (r *memoryAdminLoginRepository) CreateAdminLogin(
	ctx context.Context,
	record *model.AdminLogin,
) (*model.AdminLogin, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = bson.NewObjectID()
	r.records = append(r.records, record)
	return record, nil
}

func (r *memoryAdminLoginRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type memoryErrorLogRepository struct {
	entries []*model.ErrorLog
	err     error
}

func (r *memoryErrorLogRepository) CreateErrorLog(ctx context.Context, entry *model.ErrorLog) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

type recordingSender struct {
	sent []mailer.Email
	err  error
}

func (s *recordingSender) Send(email mailer.Email) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

func newTestHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(
		security.WithTimeCost(1),
		security.WithMemoryCost(8*1024),
		security.WithParallelism(1),
	)
}
