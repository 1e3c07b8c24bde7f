package repository

import (
	"context"
	"time"

	"circulation/pkg/db/memory"
	"circulation/pkg/model"
)

type memoryPolicyRepository struct {
	store *memory.Store
}

func NewMemoryPolicyRepository(store *memory.Store) PolicyRepository {
	return &memoryPolicyRepository{store: store}
}

func (r *memoryPolicyRepository) FindPatron(ctx context.Context, id string) (*model.Patron, error) {
	var found *model.Patron
	err := r.store.View(ctx, func(t *memory.Tables) error {
		patron, ok := t.Patrons[id]
		if !ok {
			return ErrPatronNotFound
		}
		found = &patron
		return nil
	})
	return found, err
}

func (r *memoryPolicyRepository) FindCategory(ctx context.Context, id string) (*model.PatronCategory, error) {
	var found *model.PatronCategory
	err := r.store.View(ctx, func(t *memory.Tables) error {
		category, ok := t.Categories[id]
		if !ok {
			return ErrCategoryNotFound
		}
		found = &category
		return nil
	})
	return found, err
}

// LockPatron only checks existence; memory transactions are already serialized.
func (r *memoryPolicyRepository) LockPatron(ctx context.Context, patronID string, _ time.Time) error {
	return r.store.View(ctx, func(t *memory.Tables) error {
		if _, ok := t.Patrons[patronID]; !ok {
			return ErrPatronNotFound
		}
		return nil
	})
}
