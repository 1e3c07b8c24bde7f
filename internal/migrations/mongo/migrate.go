package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"circulation/internal/migrations/mongo/validators"
)

var (
	ItemsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "barcode", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_barcode"),
		},
	}

	PatronsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "category_id", Value: 1}}},
	}

	LoansIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "item_id", Value: 1},
			{Key: "return_date", Value: 1},
			{Key: "checkout_date", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "patron_id", Value: 1},
			{Key: "return_date", Value: 1},
		}},
		{Keys: bson.D{{Key: "due_date", Value: 1}}},
	}

	// at most one open hold per (patron, item)
	HoldsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "patron_id", Value: 1},
				{Key: "item_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_open_hold").
				SetPartialFilterExpression(bson.M{"open": true}),
		},
		{Keys: bson.D{
			{Key: "item_id", Value: 1},
			{Key: "open", Value: 1},
			{Key: "hold_date", Value: 1},
		}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	FinesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "patron_id", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	AuditIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "loan_id", Value: 1}}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running circulation Mongo migrations on database: %s\n", dbName)

	collections := map[string]collectionDef{
		"Items": {
			Indexes:   ItemsIndexes,
			Validator: validators.ItemValidator,
		},
		"Patrons": {
			Indexes:   PatronsIndexes,
			Validator: validators.PatronValidator,
		},
		"PatronCategories": {
			Validator: validators.PatronCategoryValidator,
		},
		"PatronLocks": {},
		"Loans": {
			Indexes:   LoansIndexes,
			Validator: validators.LoanValidator,
		},
		"Holds": {
			Indexes:   HoldsIndexes,
			Validator: validators.HoldValidator,
		},
		"Fines": {
			Indexes:   FinesIndexes,
			Validator: validators.FineValidator,
		},
		"AuditLog": {
			Indexes:   AuditIndexes,
			Validator: validators.AuditValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	fmt.Printf("ℹ️ Collection %s already exists, updating validator if needed\n", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
