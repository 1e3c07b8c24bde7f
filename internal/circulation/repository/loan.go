package repository

import (
	"context"
	"time"

	"circulation/pkg/model"
)

const (
	CollectionName = "Loans"
	TableName      = "loans"
)

type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id string) (*model.Loan, error)
	// FindActiveByItem returns the most recently checked out active loan of the item.
	FindActiveByItem(ctx context.Context, itemID string) (*model.Loan, error)
	CountActiveByPatron(ctx context.Context, patronID string) (int64, error)
	// Close sets return_date on a loan that is still active. ErrGuardFailed otherwise.
	Close(ctx context.Context, id string, returnDate time.Time) error
	// Renew moves the due date and bumps renewed_count when the loan is still active and
	// renewed_count still equals expectedCount. ErrGuardFailed otherwise.
	Renew(ctx context.Context, id string, expectedCount int, newDueDate time.Time) error
	Find(ctx context.Context, filter model.LoanFilter) ([]*model.Loan, error)
	Count(ctx context.Context, filter model.LoanFilter) (int64, error)
}
