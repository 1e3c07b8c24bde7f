package repository

import (
	"context"

	"circulation/pkg/db"
	"circulation/pkg/db/memory"
	"circulation/pkg/model"
)

type memoryAuditRepository struct {
	store *memory.Store
}

func NewMemoryAuditRepository(store *memory.Store) AuditRepository {
	return &memoryAuditRepository{store: store}
}

func (r *memoryAuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		if _, ok := t.Audit[entry.EventID]; ok {
			return db.ErrDuplicateKey
		}
		t.Audit[entry.EventID] = *entry
		return nil
	})
}
