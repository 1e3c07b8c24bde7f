package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circulation/pkg/config"
	"circulation/pkg/db/postgres"
	"circulation/pkg/model"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresPolicyRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresPolicyRepository(cfg *config.Config) PolicyRepository {
	return &postgresPolicyRepository{
		cfg:  cfg,
		pool: cfg.Client.Postgres,
	}
}

func (r *postgresPolicyRepository) FindPatron(ctx context.Context, id string) (*model.Patron, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder().
		From(PatronTableName).
		Select("id", "status", "category_id").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build patron query: %w", err)
	}

	var (
		patron model.Patron
		status string
	)
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&patron.ID, &status, &patron.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatronNotFound
		}
		return nil, postgres.TranslateError(fmt.Errorf("failed to find patron: %w", err))
	}
	patron.Status = model.PatronStatus(status)
	return &patron, nil
}

func (r *postgresPolicyRepository) FindCategory(ctx context.Context, id string) (*model.PatronCategory, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder().
		From(CategoryTableName).
		Select("id", "name", "loan_period_days", "borrowing_limit", "can_renew", "max_renewals", "fine_rate_per_day").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build patron category query: %w", err)
	}

	var (
		category model.PatronCategory
		rate     int64
	)
	err = postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&category.ID,
		&category.Name,
		&category.LoanPeriodDays,
		&category.BorrowingLimit,
		&category.CanRenew,
		&category.MaxRenewals,
		&rate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, postgres.TranslateError(fmt.Errorf("failed to find patron category: %w", err))
	}
	category.FineRatePerDay = model.Money(rate)
	return &category, nil
}

// LockPatron takes a row lock on the patron that is held until the surrounding transaction ends.
// Outside a transaction it only checks that the row exists.
func (r *postgresPolicyRepository) LockPatron(ctx context.Context, patronID string, _ time.Time) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder().
		From(PatronTableName).
		Select("id").
		Where(goqu.C("id").Eq(patronID)).
		ForUpdate(exp.Wait).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build patron lock: %w", err)
	}

	var id string
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPatronNotFound
		}
		return postgres.TranslateError(fmt.Errorf("failed to lock patron: %w", err))
	}
	return nil
}
