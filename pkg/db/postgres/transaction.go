package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn returns the transaction carried by ctx, or the pool when there is none.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}

type postgresTransactionManager struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewTransactionManager(pool *pgxpool.Pool, timeout time.Duration) db.TransactionManager {
	return &postgresTransactionManager{
		pool:    pool,
		timeout: timeout,
	}
}

func (m *postgresTransactionManager) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return TranslateError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return TranslateError(fmt.Errorf("transaction failed: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return TranslateError(fmt.Errorf("transaction rolled back on commit: %w", err))
		}
		return TranslateError(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}
