package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
)

// AdminLoginRepository appends administrator login audit records.
type AdminLoginRepository interface {
	CreateAdminLogin(ctx context.Context, record *model.AdminLogin) (*model.AdminLogin, error)
}

const adminLoginCollection = "admin-login"

type adminLoginMongoRepository struct {
	db *mongo.Database
}

func NewAdminLoginMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) AdminLoginRepository {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
	}

	if _, err := db.Collection(adminLoginCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create admin login indexes")
	}

	return &adminLoginMongoRepository{db: db}
}

func (r *adminLoginMongoRepository) CreateAdminLogin(
	ctx context.Context,
	record *model.AdminLogin,
) (*model.AdminLogin, error) {
	result, err := r.db.Collection(adminLoginCollection).InsertOne(ctx, record)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		record.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return record, nil
}
