package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circulation/pkg/db"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged with a no-op cancel: wrapping it would drop the
// session and the call would run outside the transaction.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

// TranslateError maps driver errors onto the db sentinels. Other errors are returned as is.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrDuplicateKey) || errors.Is(err, db.ErrUnavailable) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", db.ErrDuplicateKey, err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorLabel("RetryableWriteError") {
		return fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	return err
}
