package repository

import (
	"context"
	"fmt"

	"circulation/pkg/config"
	mongodb "circulation/pkg/db/mongo"
	"circulation/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoAuditRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAuditRepository(cfg *config.Config) AuditRepository {
	return &mongoAuditRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoAuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return mongodb.TranslateError(fmt.Errorf("failed to append audit entry: %w", err))
	}
	return nil
}
