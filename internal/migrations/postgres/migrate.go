package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// RunMigration applies schema.sql. Every statement is idempotent so the job can run on each deploy.
func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	fmt.Println("🚀 Running circulation Postgres migrations")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}
