package repository

import (
	"context"
	"errors"
	"fmt"

	holdserrors "circulation/internal/holds/errors"
	"circulation/pkg/config"
	"circulation/pkg/db/postgres"
	"circulation/pkg/model"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var holdColumns = []any{"id", "patron_id", "item_id", "status", "hold_date", "expiry_date", "notes", "updated_at"}

type postgresHoldRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresHoldRepository(cfg *config.Config) HoldRepository {
	return &postgresHoldRepository{
		cfg:  cfg,
		pool: cfg.Client.Postgres,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHold(row rowScanner) (*model.Hold, error) {
	var (
		hold   model.Hold
		status string
	)
	if err := row.Scan(&hold.ID, &hold.PatronID, &hold.ItemID, &status, &hold.HoldDate, &hold.ExpiryDate, &hold.Notes, &hold.UpdatedAt); err != nil {
		return nil, err
	}
	hold.Status = model.HoldStatus(status)
	hold.Open = hold.Status.IsOpen()
	return &hold, nil
}

func openStatuses() []string {
	statuses := make([]string, 0, len(model.OpenHoldStatuses))
	for _, s := range model.OpenHoldStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

func (r *postgresHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	hold.Open = hold.Status.IsOpen()
	query, args, err := postgres.Builder().
		Insert(TableName).
		Rows(goqu.Record{
			"id":          hold.ID,
			"patron_id":   hold.PatronID,
			"item_id":     hold.ItemID,
			"status":      string(hold.Status),
			"hold_date":   hold.HoldDate,
			"expiry_date": hold.ExpiryDate,
			"notes":       hold.Notes,
			"updated_at":  hold.UpdatedAt,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build hold insert: %w", err)
	}

	if _, err := postgres.Conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("failed to create hold: %w", err))
	}
	return nil
}

func (r *postgresHoldRepository) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	ds := postgres.Builder().From(TableName).Select(holdColumns...).Where(goqu.C("id").Eq(id))
	if postgres.InTx(ctx) {
		ds = ds.ForUpdate(exp.Wait)
	}
	return r.findOne(ctx, ds)
}

func (r *postgresHoldRepository) FindOpen(ctx context.Context, patronID, itemID string) (*model.Hold, error) {
	return r.findOne(ctx, postgres.Builder().
		From(TableName).
		Select(holdColumns...).
		Where(
			goqu.C("patron_id").Eq(patronID),
			goqu.C("item_id").Eq(itemID),
			goqu.C("status").In(openStatuses()),
		).
		Limit(1))
}

func (r *postgresHoldRepository) findOne(ctx context.Context, ds *goqu.SelectDataset) (*model.Hold, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build hold query: %w", err)
	}

	hold, err := scanHold(postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, holdserrors.ErrNotFound
		}
		return nil, postgres.TranslateError(fmt.Errorf("failed to find hold: %w", err))
	}
	return hold, nil
}

func (r *postgresHoldRepository) UpdateStatus(ctx context.Context, id string, change StatusChange) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := goqu.Record{
		"status":     string(change.To),
		"updated_at": change.At,
	}
	if change.Notes != nil {
		set["notes"] = *change.Notes
	}

	query, args, err := postgres.Builder().
		Update(TableName).
		Set(set).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(change.From))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build hold update: %w", err)
	}

	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("failed to update hold: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return holdserrors.ErrGuardFailed
	}
	return nil
}

func (r *postgresHoldRepository) Find(ctx context.Context, filter model.HoldFilter) ([]*model.Hold, error) {
	return r.find(ctx, r.filtered(filter).
		Select(holdColumns...).
		Order(goqu.C("hold_date").Desc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)))
}

func (r *postgresHoldRepository) Queue(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, error) {
	return r.find(ctx, r.filtered(model.HoldFilter{ItemID: itemID, OpenOnly: true}).
		Select(holdColumns...).
		Order(goqu.C("hold_date").Asc(), goqu.C("id").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)))
}

func (r *postgresHoldRepository) find(ctx context.Context, ds *goqu.SelectDataset) ([]*model.Hold, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build holds query: %w", err)
	}

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("failed to find holds: %w", err))
	}
	defer rows.Close()

	holds := []*model.Hold{}
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hold: %w", err)
		}
		holds = append(holds, hold)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("failed to iterate holds: %w", err))
	}
	return holds, nil
}

func (r *postgresHoldRepository) Count(ctx context.Context, filter model.HoldFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := r.filtered(filter).
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build holds count: %w", err)
	}

	var count int64
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, postgres.TranslateError(fmt.Errorf("failed to count holds: %w", err))
	}
	return count, nil
}

func (r *postgresHoldRepository) CountOpenByItem(ctx context.Context, itemID string) (int64, error) {
	return r.Count(ctx, model.HoldFilter{ItemID: itemID, OpenOnly: true})
}

func (r *postgresHoldRepository) filtered(filter model.HoldFilter) *goqu.SelectDataset {
	ds := postgres.Builder().From(TableName)
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(filter.Status)))
	}
	if filter.PatronID != "" {
		ds = ds.Where(goqu.C("patron_id").Eq(filter.PatronID))
	}
	if filter.ItemID != "" {
		ds = ds.Where(goqu.C("item_id").Eq(filter.ItemID))
	}
	if filter.OpenOnly {
		ds = ds.Where(goqu.C("status").In(openStatuses()))
	}
	return ds
}
