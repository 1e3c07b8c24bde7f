package repository

import (
	"context"
	"slices"
	"time"

	circulationerrors "circulation/internal/circulation/errors"
	"circulation/pkg/db/memory"
	"circulation/pkg/model"
)

type memoryLoanRepository struct {
	store *memory.Store
}

func NewMemoryLoanRepository(store *memory.Store) LoanRepository {
	return &memoryLoanRepository{store: store}
}

func (r *memoryLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		t.Loans[loan.ID] = cloneLoan(*loan)
		return nil
	})
}

func (r *memoryLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	var found *model.Loan
	err := r.store.View(ctx, func(t *memory.Tables) error {
		loan, ok := t.Loans[id]
		if !ok {
			return circulationerrors.ErrNotFound
		}
		l := cloneLoan(loan)
		found = &l
		return nil
	})
	return found, err
}

func (r *memoryLoanRepository) FindActiveByItem(ctx context.Context, itemID string) (*model.Loan, error) {
	var found *model.Loan
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, loan := range t.Loans {
			if loan.ItemID != itemID || !loan.IsActive() {
				continue
			}
			if found == nil || loan.CheckoutDate.After(found.CheckoutDate) {
				l := cloneLoan(loan)
				found = &l
			}
		}
		if found == nil {
			return circulationerrors.ErrNotFound
		}
		return nil
	})
	return found, err
}

func (r *memoryLoanRepository) CountActiveByPatron(ctx context.Context, patronID string) (int64, error) {
	return r.Count(ctx, model.LoanFilter{PatronID: patronID, ActiveOnly: true})
}

func (r *memoryLoanRepository) Close(ctx context.Context, id string, returnDate time.Time) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		loan, ok := t.Loans[id]
		if !ok || !loan.IsActive() {
			return circulationerrors.ErrGuardFailed
		}
		loan.ReturnDate = &returnDate
		t.Loans[id] = loan
		return nil
	})
}

func (r *memoryLoanRepository) Renew(ctx context.Context, id string, expectedCount int, newDueDate time.Time) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		loan, ok := t.Loans[id]
		if !ok || !loan.IsActive() || loan.RenewedCount != expectedCount {
			return circulationerrors.ErrGuardFailed
		}
		loan.DueDate = newDueDate
		loan.RenewedCount++
		t.Loans[id] = loan
		return nil
	})
}

func (r *memoryLoanRepository) Find(ctx context.Context, filter model.LoanFilter) ([]*model.Loan, error) {
	var matched []*model.Loan
	err := r.store.View(ctx, func(t *memory.Tables) error {
		matched = matchLoans(t, filter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if filter.OverdueAsOf != nil {
		slices.SortFunc(matched, func(a, b *model.Loan) int { return a.DueDate.Compare(b.DueDate) })
	} else {
		slices.SortFunc(matched, func(a, b *model.Loan) int { return b.CheckoutDate.Compare(a.CheckoutDate) })
	}
	return page(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryLoanRepository) Count(ctx context.Context, filter model.LoanFilter) (int64, error) {
	var count int64
	err := r.store.View(ctx, func(t *memory.Tables) error {
		count = int64(len(matchLoans(t, filter)))
		return nil
	})
	return count, err
}

func matchLoans(t *memory.Tables, filter model.LoanFilter) []*model.Loan {
	matched := []*model.Loan{}
	for _, loan := range t.Loans {
		if filter.PatronID != "" && loan.PatronID != filter.PatronID {
			continue
		}
		if filter.ItemID != "" && loan.ItemID != filter.ItemID {
			continue
		}
		if (filter.ActiveOnly || filter.OverdueAsOf != nil) && !loan.IsActive() {
			continue
		}
		if filter.OverdueAsOf != nil && !loan.DueDate.Before(*filter.OverdueAsOf) {
			continue
		}
		l := cloneLoan(loan)
		matched = append(matched, &l)
	}
	return matched
}

// cloneLoan copies the return date so callers never alias stored rows.
func cloneLoan(loan model.Loan) model.Loan {
	if loan.ReturnDate != nil {
		returned := *loan.ReturnDate
		loan.ReturnDate = &returned
	}
	return loan
}

func page[T any](rows []T, limit int, offset int64) []T {
	if offset >= int64(len(rows)) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
