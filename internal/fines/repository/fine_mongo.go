package repository

import (
	"context"
	"fmt"

	"circulation/pkg/config"
	mongodb "circulation/pkg/db/mongo"
	"circulation/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoFineRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoFineRepository(cfg *config.Config) FineRepository {
	return &mongoFineRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoFineRepository) Create(ctx context.Context, fine *model.Fine) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, fine); err != nil {
		return mongodb.TranslateError(fmt.Errorf("failed to create fine: %w", err))
	}
	return nil
}

func (r *mongoFineRepository) SumOutstanding(ctx context.Context, patronID string) (model.Money, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"patron_id": patronID,
			"status":    bson.M{"$in": model.OutstandingFineStatuses},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$subtract": bson.A{"$amount", "$amount_paid"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, mongodb.TranslateError(fmt.Errorf("failed to sum outstanding fines: %w", err))
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, mongodb.TranslateError(fmt.Errorf("failed to decode outstanding fines: %w", err))
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return model.Money(rows[0].Total), nil
}

func (r *mongoFineRepository) Find(ctx context.Context, filter model.FineFilter) ([]*model.Fine, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(filter.Limit)).
		SetSkip(filter.Offset)

	cursor, err := r.collection.Find(ctx, buildFineFilter(filter), opts)
	if err != nil {
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find fines: %w", err))
	}
	defer cursor.Close(ctx)

	fines := []*model.Fine{}
	if err := cursor.All(ctx, &fines); err != nil {
		return nil, mongodb.TranslateError(fmt.Errorf("failed to decode fines: %w", err))
	}
	return fines, nil
}

func (r *mongoFineRepository) Count(ctx context.Context, filter model.FineFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFineFilter(filter))
	if err != nil {
		return 0, mongodb.TranslateError(fmt.Errorf("failed to count fines: %w", err))
	}
	return count, nil
}

func buildFineFilter(filter model.FineFilter) bson.M {
	query := bson.M{}
	if filter.PatronID != "" {
		query["patron_id"] = filter.PatronID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}
