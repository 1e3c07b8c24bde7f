package errors

import "errors"

var (
	ErrNotFound = errors.New("hold not found")

	// ErrGuardFailed means the hold's status changed after it was read.
	ErrGuardFailed = errors.New("hold changed concurrently")
)
