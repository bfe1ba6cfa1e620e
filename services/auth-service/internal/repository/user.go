package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
)

// UserRepository defines the interface for user-related database operations.
// Lookups that match nothing return mongo.ErrNoDocuments.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// GetUserByResetToken finds the user holding token with an expiry after now.
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)

	// SetResetToken stores a reset token and its expiry on the user.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error

	// ConsumeResetToken atomically matches a live token, writes the new
	// password hash and clears the token. It succeeds at most once per token.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*model.User, error)

	// UpdatePasswordHash replaces the stored hash without touching lastChanged.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	UpdateLastActive(ctx context.Context, id string, at time.Time) error
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "credentials.resetToken", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{
				"credentials.resetToken": bson.M{"$type": "string"},
			}),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *userMongoRepository) GetUserByResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.User, error) {
	return r.findOne(ctx, liveResetTokenFilter(token, now))
}

func (r *userMongoRepository) SetResetToken(
	ctx context.Context,
	id, token string,
	expiresAt time.Time,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"credentials.resetToken":       token,
			"credentials.resetTokenExpiry": expiresAt,
			"updatedAt":                    time.Now(),
		}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *userMongoRepository) ConsumeResetToken(
	ctx context.Context,
	token, passwordHash string,
	now time.Time,
) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		liveResetTokenFilter(token, now),
		consumeResetTokenUpdate(passwordHash, now),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"credentials.passwordHash": passwordHash,
			"updatedAt":                time.Now(),
		}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *userMongoRepository) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"meta.lastActive": at}},
	)
	return err
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func liveResetTokenFilter(token string, now time.Time) bson.M {
	return bson.M{
		"credentials.resetToken":       token,
		"credentials.resetTokenExpiry": bson.M{"$gt": now},
	}
}

// consumeResetTokenUpdate sets the new hash and clears both token fields in
// the same write.
func consumeResetTokenUpdate(passwordHash string, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"credentials.passwordHash":     passwordHash,
		"credentials.lastChanged":      now,
		"credentials.resetToken":       nil,
		"credentials.resetTokenExpiry": nil,
		"updatedAt":                    now,
	}}
}
