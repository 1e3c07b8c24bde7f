package repository

import (
	"context"
	"errors"
	"fmt"

	holdserrors "circulation/internal/holds/errors"
	"circulation/pkg/config"
	mongodb "circulation/pkg/db/mongo"
	"circulation/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoHoldRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHoldRepository(cfg *config.Config) HoldRepository {
	return &mongoHoldRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	hold.Open = hold.Status.IsOpen()
	if _, err := r.collection.InsertOne(ctx, hold); err != nil {
		return mongodb.TranslateError(fmt.Errorf("failed to create hold: %w", err))
	}
	return nil
}

func (r *mongoHoldRepository) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoHoldRepository) FindOpen(ctx context.Context, patronID, itemID string) (*model.Hold, error) {
	return r.findOne(ctx, bson.M{"patron_id": patronID, "item_id": itemID, "open": true})
}

func (r *mongoHoldRepository) findOne(ctx context.Context, filter bson.M) (*model.Hold, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var hold model.Hold
	if err := r.collection.FindOne(ctx, filter).Decode(&hold); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, holdserrors.ErrNotFound
		}
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find hold: %w", err))
	}
	return &hold, nil
}

func (r *mongoHoldRepository) UpdateStatus(ctx context.Context, id string, change StatusChange) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"status":     change.To,
		"open":       change.To.IsOpen(),
		"updated_at": change.At,
	}
	if change.Notes != nil {
		set["notes"] = *change.Notes
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": change.From},
		bson.M{"$set": set},
	)
	if err != nil {
		return mongodb.TranslateError(fmt.Errorf("failed to update hold: %w", err))
	}
	if result.MatchedCount == 0 {
		return holdserrors.ErrGuardFailed
	}
	return nil
}

func (r *mongoHoldRepository) Find(ctx context.Context, filter model.HoldFilter) ([]*model.Hold, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "hold_date", Value: -1}}).
		SetLimit(int64(filter.Limit)).
		SetSkip(filter.Offset)
	return r.find(ctx, buildHoldFilter(filter), opts)
}

func (r *mongoHoldRepository) Queue(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "hold_date", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, buildHoldFilter(model.HoldFilter{ItemID: itemID, OpenOnly: true}), opts)
}

func (r *mongoHoldRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Hold, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find holds: %w", err))
	}
	defer cursor.Close(ctx)

	holds := []*model.Hold{}
	if err := cursor.All(ctx, &holds); err != nil {
		return nil, mongodb.TranslateError(fmt.Errorf("failed to decode holds: %w", err))
	}
	return holds, nil
}

func (r *mongoHoldRepository) Count(ctx context.Context, filter model.HoldFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildHoldFilter(filter))
	if err != nil {
		return 0, mongodb.TranslateError(fmt.Errorf("failed to count holds: %w", err))
	}
	return count, nil
}

func (r *mongoHoldRepository) CountOpenByItem(ctx context.Context, itemID string) (int64, error) {
	return r.Count(ctx, model.HoldFilter{ItemID: itemID, OpenOnly: true})
}

func buildHoldFilter(filter model.HoldFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PatronID != "" {
		query["patron_id"] = filter.PatronID
	}
	if filter.ItemID != "" {
		query["item_id"] = filter.ItemID
	}
	if filter.OpenOnly {
		query["open"] = true
	}
	return query
}
