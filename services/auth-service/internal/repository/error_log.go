package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
)

// ErrorLogRepository stores client-side error reports.
type ErrorLogRepository interface {
	CreateErrorLog(ctx context.Context, entry *model.ErrorLog) error
}

const errorLogCollection = "errors"

type errorLogMongoRepository struct {
	db *mongo.Database
}

func NewErrorLogMongoRepository(db *mongo.Database) ErrorLogRepository {
	return &errorLogMongoRepository{db: db}
}

func (r *errorLogMongoRepository) CreateErrorLog(ctx context.Context, entry *model.ErrorLog) error {
	_, err := r.db.Collection(errorLogCollection).InsertOne(ctx, entry)
	return err
}
