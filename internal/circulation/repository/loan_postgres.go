package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	circulationerrors "circulation/internal/circulation/errors"
	"circulation/pkg/config"
	"circulation/pkg/db/postgres"
	"circulation/pkg/model"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var loanColumns = []any{"id", "patron_id", "item_id", "checkout_date", "due_date", "return_date", "renewed_count", "operator_id"}

type postgresLoanRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresLoanRepository(cfg *config.Config) LoanRepository {
	return &postgresLoanRepository{
		cfg:  cfg,
		pool: cfg.Client.Postgres,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*model.Loan, error) {
	var loan model.Loan
	err := row.Scan(
		&loan.ID,
		&loan.PatronID,
		&loan.ItemID,
		&loan.CheckoutDate,
		&loan.DueDate,
		&loan.ReturnDate,
		&loan.RenewedCount,
		&loan.OperatorID,
	)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *postgresLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder().
		Insert(TableName).
		Rows(goqu.Record{
			"id":            loan.ID,
			"patron_id":     loan.PatronID,
			"item_id":       loan.ItemID,
			"checkout_date": loan.CheckoutDate,
			"due_date":      loan.DueDate,
			"return_date":   loan.ReturnDate,
			"renewed_count": loan.RenewedCount,
			"operator_id":   loan.OperatorID,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build loan insert: %w", err)
	}

	if _, err := postgres.Conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("failed to create loan: %w", err))
	}
	return nil
}

func (r *postgresLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	return r.findOne(ctx, lockInTx(ctx, postgres.Builder().
		From(TableName).
		Select(loanColumns...).
		Where(goqu.C("id").Eq(id))))
}

func (r *postgresLoanRepository) FindActiveByItem(ctx context.Context, itemID string) (*model.Loan, error) {
	return r.findOne(ctx, lockInTx(ctx, postgres.Builder().
		From(TableName).
		Select(loanColumns...).
		Where(goqu.C("item_id").Eq(itemID), goqu.C("return_date").IsNull()).
		Order(goqu.C("checkout_date").Desc()).
		Limit(1)))
}

// lockInTx row-locks the loan read that precedes a guarded update in the same transaction.
func lockInTx(ctx context.Context, ds *goqu.SelectDataset) *goqu.SelectDataset {
	if postgres.InTx(ctx) {
		return ds.ForUpdate(exp.Wait)
	}
	return ds
}

func (r *postgresLoanRepository) findOne(ctx context.Context, ds *goqu.SelectDataset) (*model.Loan, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build loan query: %w", err)
	}

	loan, err := scanLoan(postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, circulationerrors.ErrNotFound
		}
		return nil, postgres.TranslateError(fmt.Errorf("failed to find loan: %w", err))
	}
	return loan, nil
}

func (r *postgresLoanRepository) CountActiveByPatron(ctx context.Context, patronID string) (int64, error) {
	return r.Count(ctx, model.LoanFilter{PatronID: patronID, ActiveOnly: true})
}

func (r *postgresLoanRepository) Close(ctx context.Context, id string, returnDate time.Time) error {
	return r.guardedUpdate(ctx,
		goqu.Record{"return_date": returnDate},
		goqu.C("id").Eq(id),
		goqu.C("return_date").IsNull(),
	)
}

func (r *postgresLoanRepository) Renew(ctx context.Context, id string, expectedCount int, newDueDate time.Time) error {
	return r.guardedUpdate(ctx,
		goqu.Record{
			"due_date":      newDueDate,
			"renewed_count": goqu.L("renewed_count + 1"),
		},
		goqu.C("id").Eq(id),
		goqu.C("return_date").IsNull(),
		goqu.C("renewed_count").Eq(expectedCount),
	)
}

func (r *postgresLoanRepository) guardedUpdate(ctx context.Context, set goqu.Record, where ...goqu.Expression) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder().
		Update(TableName).
		Set(set).
		Where(where...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build loan update: %w", err)
	}

	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("failed to update loan: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return circulationerrors.ErrGuardFailed
	}
	return nil
}

func (r *postgresLoanRepository) Find(ctx context.Context, filter model.LoanFilter) ([]*model.Loan, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	order := goqu.C("checkout_date").Desc()
	if filter.OverdueAsOf != nil {
		order = goqu.C("due_date").Asc()
	}

	query, args, err := r.filtered(filter).
		Select(loanColumns...).
		Order(order).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build loans query: %w", err)
	}

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("failed to find loans: %w", err))
	}
	defer rows.Close()

	loans := []*model.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("failed to iterate loans: %w", err))
	}
	return loans, nil
}

func (r *postgresLoanRepository) Count(ctx context.Context, filter model.LoanFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := r.filtered(filter).
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build loans count: %w", err)
	}

	var count int64
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, postgres.TranslateError(fmt.Errorf("failed to count loans: %w", err))
	}
	return count, nil
}

func (r *postgresLoanRepository) filtered(filter model.LoanFilter) *goqu.SelectDataset {
	ds := postgres.Builder().From(TableName)
	if filter.PatronID != "" {
		ds = ds.Where(goqu.C("patron_id").Eq(filter.PatronID))
	}
	if filter.ItemID != "" {
		ds = ds.Where(goqu.C("item_id").Eq(filter.ItemID))
	}
	if filter.ActiveOnly || filter.OverdueAsOf != nil {
		ds = ds.Where(goqu.C("return_date").IsNull())
	}
	if filter.OverdueAsOf != nil {
		ds = ds.Where(goqu.C("due_date").Lt(*filter.OverdueAsOf))
	}
	return ds
}
