package repository

import (
	"cmp"
	"context"
	"slices"

	holdserrors "circulation/internal/holds/errors"
	"circulation/pkg/db"
	"circulation/pkg/db/memory"
	"circulation/pkg/model"
)

type memoryHoldRepository struct {
	store *memory.Store
}

func NewMemoryHoldRepository(store *memory.Store) HoldRepository {
	return &memoryHoldRepository{store: store}
}

func (r *memoryHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		hold.Open = hold.Status.IsOpen()
		if hold.Open && openHoldExists(t, hold.PatronID, hold.ItemID, hold.ID) {
			return db.ErrDuplicateKey
		}
		t.Holds[hold.ID] = *hold
		return nil
	})
}

func (r *memoryHoldRepository) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	var found *model.Hold
	err := r.store.View(ctx, func(t *memory.Tables) error {
		hold, ok := t.Holds[id]
		if !ok {
			return holdserrors.ErrNotFound
		}
		found = &hold
		return nil
	})
	return found, err
}

func (r *memoryHoldRepository) FindOpen(ctx context.Context, patronID, itemID string) (*model.Hold, error) {
	var found *model.Hold
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, hold := range t.Holds {
			if hold.PatronID == patronID && hold.ItemID == itemID && hold.Status.IsOpen() {
				h := hold
				found = &h
				return nil
			}
		}
		return holdserrors.ErrNotFound
	})
	return found, err
}

func (r *memoryHoldRepository) UpdateStatus(ctx context.Context, id string, change StatusChange) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		hold, ok := t.Holds[id]
		if !ok || hold.Status != change.From {
			return holdserrors.ErrGuardFailed
		}
		if change.To.IsOpen() && openHoldExists(t, hold.PatronID, hold.ItemID, hold.ID) {
			return db.ErrDuplicateKey
		}
		hold.Status = change.To
		hold.Open = change.To.IsOpen()
		hold.UpdatedAt = change.At
		if change.Notes != nil {
			hold.Notes = *change.Notes
		}
		t.Holds[id] = hold
		return nil
	})
}

func (r *memoryHoldRepository) Find(ctx context.Context, filter model.HoldFilter) ([]*model.Hold, error) {
	var matched []*model.Hold
	err := r.store.View(ctx, func(t *memory.Tables) error {
		matched = matchHolds(t, filter)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(matched, func(a, b *model.Hold) int { return b.HoldDate.Compare(a.HoldDate) })
	return page(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryHoldRepository) Queue(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, error) {
	var matched []*model.Hold
	err := r.store.View(ctx, func(t *memory.Tables) error {
		matched = matchHolds(t, model.HoldFilter{ItemID: itemID, OpenOnly: true})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(matched, func(a, b *model.Hold) int {
		return cmp.Or(a.HoldDate.Compare(b.HoldDate), cmp.Compare(a.ID, b.ID))
	})
	return page(matched, limit, offset), nil
}

func (r *memoryHoldRepository) Count(ctx context.Context, filter model.HoldFilter) (int64, error) {
	var count int64
	err := r.store.View(ctx, func(t *memory.Tables) error {
		count = int64(len(matchHolds(t, filter)))
		return nil
	})
	return count, err
}

func (r *memoryHoldRepository) CountOpenByItem(ctx context.Context, itemID string) (int64, error) {
	return r.Count(ctx, model.HoldFilter{ItemID: itemID, OpenOnly: true})
}

func openHoldExists(t *memory.Tables, patronID, itemID, exceptID string) bool {
	for id, hold := range t.Holds {
		if id != exceptID && hold.PatronID == patronID && hold.ItemID == itemID && hold.Status.IsOpen() {
			return true
		}
	}
	return false
}

func matchHolds(t *memory.Tables, filter model.HoldFilter) []*model.Hold {
	matched := []*model.Hold{}
	for _, hold := range t.Holds {
		if filter.Status != "" && hold.Status != filter.Status {
			continue
		}
		if filter.PatronID != "" && hold.PatronID != filter.PatronID {
			continue
		}
		if filter.ItemID != "" && hold.ItemID != filter.ItemID {
			continue
		}
		if filter.OpenOnly && !hold.Status.IsOpen() {
			continue
		}
		h := hold
		matched = append(matched, &h)
	}
	return matched
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
