// Package ledger owns the per-item copy counts. No other package changes available_copies.
//
// TryReserve and Release are single guarded updates, so they must be called with the
// context of the caller's unit of work: the count change commits or rolls back together
// with the loan write that motivated it.
package ledger

import (
	"context"
	"errors"

	"circulation/internal/ledger/repository"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/logger"
	"circulation/pkg/model"
)

type Ledger struct {
	repo repository.ItemRepository
	log  *logger.Logger
}

func New(repo repository.ItemRepository, log *logger.Logger) *Ledger {
	return &Ledger{
		repo: repo,
		log:  log,
	}
}

// FindItem resolves an item by id, or by barcode when no id is given.
func (l *Ledger) FindItem(ctx context.Context, ref model.ItemRef) (*model.Item, error) {
	var (
		item *model.Item
		err  error
	)
	if ref.ID != "" {
		item, err = l.repo.FindByID(ctx, ref.ID)
	} else {
		item, err = l.repo.FindByBarcode(ctx, ref.Barcode)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(apperrors.ResourceItem).WithDetails(map[string]any{"ref": ref.String()})
		}
		return nil, db.AsServiceError(err, "Failed to read item")
	}
	return item, nil
}

// TryReserve takes one available copy of the item.
func (l *Ledger) TryReserve(ctx context.Context, itemID string) error {
	ok, err := l.repo.DecrementAvailable(ctx, itemID)
	if err != nil {
		return db.AsServiceError(err, "Failed to reserve item copy")
	}
	if ok {
		return nil
	}

	if _, err := l.FindItem(ctx, model.ItemRef{ID: itemID}); err != nil {
		return err
	}
	return apperrors.ConflictWithReason(apperrors.ReasonUnavailable, "No copies of the item are available").
		WithDetails(map[string]any{"item_id": itemID})
}

// Release returns one copy of the item. A release that would exceed total_copies means
// the stored counts no longer match the loans, and is reported as an invariant violation.
func (l *Ledger) Release(ctx context.Context, itemID string) error {
	ok, err := l.repo.IncrementAvailable(ctx, itemID)
	if err != nil {
		return db.AsServiceError(err, "Failed to release item copy")
	}
	if ok {
		return nil
	}

	item, err := l.FindItem(ctx, model.ItemRef{ID: itemID})
	if err != nil {
		return err
	}
	l.log.Invariant("Release would exceed total copies",
		"item_id", item.ID,
		"available_copies", item.AvailableCopies,
		"total_copies", item.TotalCopies,
	)
	return apperrors.InvariantViolation("Item copy counts are inconsistent", nil).
		WithDetails(map[string]any{"item_id": item.ID})
}
