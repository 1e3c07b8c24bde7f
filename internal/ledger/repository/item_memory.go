package repository

import (
	"context"

	"circulation/pkg/db/memory"
	"circulation/pkg/model"
)

type memoryItemRepository struct {
	store *memory.Store
}

func NewMemoryItemRepository(store *memory.Store) ItemRepository {
	return &memoryItemRepository{store: store}
}

func (r *memoryItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	var found *model.Item
	err := r.store.View(ctx, func(t *memory.Tables) error {
		item, ok := t.Items[id]
		if !ok {
			return ErrNotFound
		}
		found = &item
		return nil
	})
	return found, err
}

func (r *memoryItemRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Item, error) {
	var found *model.Item
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, item := range t.Items {
			if item.Barcode == barcode {
				found = &item
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *memoryItemRepository) DecrementAvailable(ctx context.Context, id string) (bool, error) {
	return r.adjust(ctx, id, func(item *model.Item) bool {
		if item.AvailableCopies <= 0 {
			return false
		}
		item.AvailableCopies--
		return true
	})
}

func (r *memoryItemRepository) IncrementAvailable(ctx context.Context, id string) (bool, error) {
	return r.adjust(ctx, id, func(item *model.Item) bool {
		if item.AvailableCopies >= item.TotalCopies {
			return false
		}
		item.AvailableCopies++
		return true
	})
}

func (r *memoryItemRepository) adjust(ctx context.Context, id string, apply func(item *model.Item) bool) (bool, error) {
	var matched bool
	err := r.store.Update(ctx, func(t *memory.Tables) error {
		item, ok := t.Items[id]
		if !ok {
			return nil
		}
		if matched = apply(&item); matched {
			t.Items[id] = item
		}
		return nil
	})
	return matched, err
}
