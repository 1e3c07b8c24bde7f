package repository

import (
	"context"
	"fmt"

	"circulation/pkg/config"
	"circulation/pkg/db/postgres"
	"circulation/pkg/model"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5/pgxpool"
)

var fineColumns = []any{"id", "patron_id", "loan_id", "amount", "amount_paid", "days_overdue", "status", "created_at"}

type postgresFineRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresFineRepository(cfg *config.Config) FineRepository {
	return &postgresFineRepository{
		cfg:  cfg,
		pool: cfg.Client.Postgres,
	}
}

func (r *postgresFineRepository) Create(ctx context.Context, fine *model.Fine) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder().
		Insert(TableName).
		Rows(goqu.Record{
			"id":           fine.ID,
			"patron_id":    fine.PatronID,
			"loan_id":      fine.LoanID,
			"amount":       int64(fine.Amount),
			"amount_paid":  int64(fine.AmountPaid),
			"days_overdue": fine.DaysOverdue,
			"status":       string(fine.Status),
			"created_at":   fine.CreatedAt,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build fine insert: %w", err)
	}

	if _, err := postgres.Conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("failed to create fine: %w", err))
	}
	return nil
}

func (r *postgresFineRepository) SumOutstanding(ctx context.Context, patronID string) (model.Money, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	statuses := make([]string, 0, len(model.OutstandingFineStatuses))
	for _, s := range model.OutstandingFineStatuses {
		statuses = append(statuses, string(s))
	}

	query, args, err := postgres.Builder().
		From(TableName).
		Select(goqu.L("COALESCE(SUM(amount - amount_paid), 0)::bigint")).
		Where(
			goqu.C("patron_id").Eq(patronID),
			goqu.C("status").In(statuses),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build outstanding fines query: %w", err)
	}

	var total int64
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, postgres.TranslateError(fmt.Errorf("failed to sum outstanding fines: %w", err))
	}
	return model.Money(total), nil
}

func (r *postgresFineRepository) Find(ctx context.Context, filter model.FineFilter) ([]*model.Fine, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := r.filtered(filter).
		Select(fineColumns...).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build fines query: %w", err)
	}

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("failed to find fines: %w", err))
	}
	defer rows.Close()

	fines := []*model.Fine{}
	for rows.Next() {
		var (
			fine       model.Fine
			amount     int64
			amountPaid int64
			status     string
		)
		if err := rows.Scan(&fine.ID, &fine.PatronID, &fine.LoanID, &amount, &amountPaid, &fine.DaysOverdue, &status, &fine.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fine: %w", err)
		}
		fine.Amount = model.Money(amount)
		fine.AmountPaid = model.Money(amountPaid)
		fine.Status = model.FineStatus(status)
		fines = append(fines, &fine)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("failed to iterate fines: %w", err))
	}
	return fines, nil
}

func (r *postgresFineRepository) Count(ctx context.Context, filter model.FineFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := r.filtered(filter).
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build fines count: %w", err)
	}

	var count int64
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, postgres.TranslateError(fmt.Errorf("failed to count fines: %w", err))
	}
	return count, nil
}

func (r *postgresFineRepository) filtered(filter model.FineFilter) *goqu.SelectDataset {
	ds := postgres.Builder().From(TableName)
	if filter.PatronID != "" {
		ds = ds.Where(goqu.C("patron_id").Eq(filter.PatronID))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(filter.Status)))
	}
	return ds
}
