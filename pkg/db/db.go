// Package db defines the unit-of-work contract shared by the store drivers.
//
// A TxFunc receives a context that carries the driver's transaction. Repositories
// of the same driver pick the transaction up from that context, so every call made
// with it joins the same atomic unit. Returning an error rolls the whole unit back.
package db

import (
	"context"
	"errors"

	apperrors "circulation/pkg/errors"
)

type TxFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TxFunc) error
}

var (
	// ErrDuplicateKey is returned by repositories when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUnavailable wraps driver timeouts and connectivity failures.
	ErrUnavailable = errors.New("store unavailable")
)

// StoreName is the collaborator name used in SERVICE_UNAVAILABLE errors.
const StoreName = "store"

// IsUnavailable reports whether err means the store could not be reached in time.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

// AsServiceError maps store-level failures to application errors. AppErrors pass through.
func AsServiceError(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.CodeTimeout, "request cancelled", 499)
	}
	if IsUnavailable(err) {
		return apperrors.UnavailableWithCause(StoreName, err)
	}
	return apperrors.Internal(message, err)
}
