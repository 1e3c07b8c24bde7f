package main

import (
	"context"
	"fmt"
	"time"

	mongoMigration "circulation/internal/migrations/mongo"
	postgresMigration "circulation/internal/migrations/postgres"
	"circulation/pkg/config"
)

const JobName = "circulation-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.Connect()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "store_driver", cfg.StoreDriver)
	if err := migrate(ctx, cfg); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	fmt.Println("Migration completed successfully.")
}

func migrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		return mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName)
	case config.StoreDriverPostgres:
		return postgresMigration.RunMigration(ctx, cfg.Client.Postgres)
	default:
		cfg.Log.Info("Nothing to migrate for store driver", "store_driver", cfg.StoreDriver)
		return nil
	}
}
