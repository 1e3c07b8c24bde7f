package errors

import "errors"

var (
	ErrNotFound = errors.New("loan not found")

	// ErrGuardFailed means a conditional loan update matched nothing: the loan was closed or
	// renewed by a concurrent request after it was read.
	ErrGuardFailed = errors.New("loan changed concurrently")
)
