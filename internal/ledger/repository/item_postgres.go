package repository

import (
	"context"
	"errors"
	"fmt"

	"circulation/pkg/config"
	"circulation/pkg/db/postgres"
	"circulation/pkg/model"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresItemRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresItemRepository(cfg *config.Config) ItemRepository {
	return &postgresItemRepository{
		cfg:  cfg,
		pool: cfg.Client.Postgres,
	}
}

func (r *postgresItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	return r.findOne(ctx, goqu.C("id").Eq(id))
}

func (r *postgresItemRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Item, error) {
	return r.findOne(ctx, goqu.C("barcode").Eq(barcode))
}

func (r *postgresItemRepository) findOne(ctx context.Context, where goqu.Expression) (*model.Item, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder().
		From(TableName).
		Select("id", "barcode", "title", "total_copies", "available_copies").
		Where(where).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	var item model.Item
	err = postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&item.ID, &item.Barcode, &item.Title, &item.TotalCopies, &item.AvailableCopies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, postgres.TranslateError(fmt.Errorf("failed to find item: %w", err))
	}
	return &item, nil
}

func (r *postgresItemRepository) DecrementAvailable(ctx context.Context, id string) (bool, error) {
	return r.adjust(ctx, id, decrementQuery)
}

func (r *postgresItemRepository) IncrementAvailable(ctx context.Context, id string) (bool, error) {
	return r.adjust(ctx, id, incrementQuery)
}

// decrementQuery takes a copy only while one is available.
func decrementQuery(id string) (string, []any, error) {
	return adjustQuery("available_copies - 1",
		goqu.C("id").Eq(id),
		goqu.C("available_copies").Gt(0),
	)
}

// incrementQuery returns a copy only while the item is below its total.
func incrementQuery(id string) (string, []any, error) {
	return adjustQuery("available_copies + 1",
		goqu.C("id").Eq(id),
		goqu.C("available_copies").Lt(goqu.I("total_copies")),
	)
}

func adjustQuery(expr string, where ...goqu.Expression) (string, []any, error) {
	return postgres.Builder().
		Update(TableName).
		Set(goqu.Record{"available_copies": goqu.L(expr)}).
		Where(where...).
		Prepared(true).
		ToSQL()
}

func (r *postgresItemRepository) adjust(ctx context.Context, id string, build func(string) (string, []any, error)) (bool, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := build(id)
	if err != nil {
		return false, fmt.Errorf("failed to build item update: %w", err)
	}

	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return false, postgres.TranslateError(fmt.Errorf("failed to adjust available copies: %w", err))
	}
	return tag.RowsAffected() == 1, nil
}
