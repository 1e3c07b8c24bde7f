package repository

import (
	"context"
	"slices"

	"circulation/pkg/db/memory"
	"circulation/pkg/model"
)

type memoryFineRepository struct {
	store *memory.Store
}

func NewMemoryFineRepository(store *memory.Store) FineRepository {
	return &memoryFineRepository{store: store}
}

func (r *memoryFineRepository) Create(ctx context.Context, fine *model.Fine) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		t.Fines[fine.ID] = *fine
		return nil
	})
}

func (r *memoryFineRepository) SumOutstanding(ctx context.Context, patronID string) (model.Money, error) {
	var total model.Money
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, fine := range t.Fines {
			if fine.PatronID == patronID {
				total += fine.Outstanding()
			}
		}
		return nil
	})
	return total, err
}

func (r *memoryFineRepository) Find(ctx context.Context, filter model.FineFilter) ([]*model.Fine, error) {
	var matched []*model.Fine
	err := r.store.View(ctx, func(t *memory.Tables) error {
		matched = r.match(t, filter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matched, func(a, b *model.Fine) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return page(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryFineRepository) Count(ctx context.Context, filter model.FineFilter) (int64, error) {
	var count int64
	err := r.store.View(ctx, func(t *memory.Tables) error {
		count = int64(len(r.match(t, filter)))
		return nil
	})
	return count, err
}

func (r *memoryFineRepository) match(t *memory.Tables, filter model.FineFilter) []*model.Fine {
	matched := []*model.Fine{}
	for _, fine := range t.Fines {
		if filter.PatronID != "" && fine.PatronID != filter.PatronID {
			continue
		}
		if filter.Status != "" && fine.Status != filter.Status {
			continue
		}
		f := fine
		matched = append(matched, &f)
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
