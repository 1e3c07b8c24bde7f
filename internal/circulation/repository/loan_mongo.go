package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	circulationerrors "circulation/internal/circulation/errors"
	"circulation/pkg/config"
	mongodb "circulation/pkg/db/mongo"
	"circulation/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoLoanRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLoanRepository(cfg *config.Config) LoanRepository {
	return &mongoLoanRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, loan); err != nil {
		return mongodb.TranslateError(fmt.Errorf("failed to create loan: %w", err))
	}
	return nil
}

func (r *mongoLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *mongoLoanRepository) FindActiveByItem(ctx context.Context, itemID string) (*model.Loan, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "checkout_date", Value: -1}})
	return r.findOne(ctx, bson.M{"item_id": itemID, "return_date": nil}, opts)
}

func (r *mongoLoanRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*model.Loan, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if opts == nil {
		opts = options.FindOne()
	}

	var loan model.Loan
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&loan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, circulationerrors.ErrNotFound
		}
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find loan: %w", err))
	}
	return &loan, nil
}

func (r *mongoLoanRepository) CountActiveByPatron(ctx context.Context, patronID string) (int64, error) {
	return r.Count(ctx, model.LoanFilter{PatronID: patronID, ActiveOnly: true})
}

func (r *mongoLoanRepository) Close(ctx context.Context, id string, returnDate time.Time) error {
	return r.guardedUpdate(ctx,
		bson.M{"_id": id, "return_date": nil},
		bson.M{"$set": bson.M{"return_date": returnDate}},
	)
}

func (r *mongoLoanRepository) Renew(ctx context.Context, id string, expectedCount int, newDueDate time.Time) error {
	return r.guardedUpdate(ctx,
		bson.M{"_id": id, "return_date": nil, "renewed_count": expectedCount},
		bson.M{
			"$set": bson.M{"due_date": newDueDate},
			"$inc": bson.M{"renewed_count": 1},
		},
	)
}

func (r *mongoLoanRepository) guardedUpdate(ctx context.Context, filter, update bson.M) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mongodb.TranslateError(fmt.Errorf("failed to update loan: %w", err))
	}
	if result.MatchedCount == 0 {
		return circulationerrors.ErrGuardFailed
	}
	return nil
}

func (r *mongoLoanRepository) Find(ctx context.Context, filter model.LoanFilter) ([]*model.Loan, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "checkout_date", Value: -1}}
	if filter.OverdueAsOf != nil {
		sort = bson.D{{Key: "due_date", Value: 1}}
	}
	opts := options.Find().
		SetSort(sort).
		SetLimit(int64(filter.Limit)).
		SetSkip(filter.Offset)

	cursor, err := r.collection.Find(ctx, buildLoanFilter(filter), opts)
	if err != nil {
		return nil, mongodb.TranslateError(fmt.Errorf("failed to find loans: %w", err))
	}
	defer cursor.Close(ctx)

	loans := []*model.Loan{}
	if err := cursor.All(ctx, &loans); err != nil {
		return nil, mongodb.TranslateError(fmt.Errorf("failed to decode loans: %w", err))
	}
	return loans, nil
}

func (r *mongoLoanRepository) Count(ctx context.Context, filter model.LoanFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildLoanFilter(filter))
	if err != nil {
		return 0, mongodb.TranslateError(fmt.Errorf("failed to count loans: %w", err))
	}
	return count, nil
}

func buildLoanFilter(filter model.LoanFilter) bson.M {
	query := bson.M{}
	if filter.PatronID != "" {
		query["patron_id"] = filter.PatronID
	}
	if filter.ItemID != "" {
		query["item_id"] = filter.ItemID
	}
	if filter.ActiveOnly || filter.OverdueAsOf != nil {
		query["return_date"] = nil
	}
	if filter.OverdueAsOf != nil {
		query["due_date"] = bson.M{"$lt": *filter.OverdueAsOf}
	}
	return query
}
