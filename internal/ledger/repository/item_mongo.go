package repository

import (
	"context"
	"errors"
	"fmt"

	"circulation/pkg/config"
	mongodb "circulation/pkg/db/mongo"
	"circulation/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoItemRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoItemRepository(cfg *config.Config) ItemRepository {
	return &mongoItemRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoItemRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Item, error) {
	return r.findOne(ctx, bson.M{"barcode": barcode})
}

func (r *mongoItemRepository) findOne(ctx context.Context, filter bson.M) (*model.Item, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var item model.Item
	if err := r.collection.FindOne(ctx, filter).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find item: %w", err))
	}
	return &item, nil
}

func (r *mongoItemRepository) DecrementAvailable(ctx context.Context, id string) (bool, error) {
	filter := bson.M{
		"_id":              id,
		"available_copies": bson.M{"$gt": 0},
	}
	return r.adjust(ctx, filter, -1)
}

func (r *mongoItemRepository) IncrementAvailable(ctx context.Context, id string) (bool, error) {
	filter := bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": bson.A{"$available_copies", "$total_copies"}},
	}
	return r.adjust(ctx, filter, 1)
}

func (r *mongoItemRepository) adjust(ctx context.Context, filter bson.M, delta int) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"available_copies": delta}})
	if err != nil {
		return false, mongodb.TranslateError(fmt.Errorf("failed to adjust available copies: %w", err))
	}
	return result.MatchedCount == 1, nil
}
