package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circulation/pkg/config"
	mongodb "circulation/pkg/db/mongo"
	"circulation/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPolicyRepository struct {
	cfg        *config.Config
	patrons    *mongo.Collection
	categories *mongo.Collection
	locks      *mongo.Collection
}

func NewMongoPolicyRepository(cfg *config.Config) PolicyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPolicyRepository{
		cfg:        cfg,
		patrons:    db.Collection(PatronCollectionName),
		categories: db.Collection(CategoryCollectionName),
		locks:      db.Collection(LockCollectionName),
	}
}

func (r *mongoPolicyRepository) FindPatron(ctx context.Context, id string) (*model.Patron, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var patron model.Patron
	if err := r.patrons.FindOne(ctx, bson.M{"_id": id}).Decode(&patron); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPatronNotFound
		}
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find patron: %w", err))
	}
	return &patron, nil
}

func (r *mongoPolicyRepository) FindCategory(ctx context.Context, id string) (*model.PatronCategory, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var category model.PatronCategory
	if err := r.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find patron category: %w", err))
	}
	return &category, nil
}

// LockPatron upserts the patron's lock document. Inside a transaction a concurrent writer of
// the same document gets a write conflict, which the transaction manager retries.
func (r *mongoPolicyRepository) LockPatron(ctx context.Context, patronID string, now time.Time) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock := model.PatronLock{PatronID: patronID, LockedAt: now}
	_, err := r.locks.UpdateOne(ctx,
		bson.M{"_id": lock.PatronID},
		bson.M{"$set": bson.M{"locked_at": lock.LockedAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return mongodb.TranslateError(fmt.Errorf("failed to lock patron: %w", err))
	}
	return nil
}
