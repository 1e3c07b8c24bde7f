package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"circulation/pkg/db"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	dialectPostgres = "postgres"

	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// Builder returns a goqu dialect producing placeholder ($n) SQL for pgx.
func Builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// WithTimeout bounds a single statement. Inside a transaction the transaction deadline rules.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if InTx(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrDuplicateKey) || errors.Is(err, db.ErrUnavailable) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", db.ErrDuplicateKey, err)
		case codeSerializationFailure, codeLockNotAvailable, codeQueryCanceled:
			return fmt.Errorf("%w: %w", db.ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if pgconn.Timeout(err) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	return err
}
