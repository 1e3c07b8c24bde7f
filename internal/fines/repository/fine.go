package repository

import (
	"context"

	"circulation/pkg/model"
)

const (
	CollectionName = "Fines"
	TableName      = "fines"
)

// FineRepository stores assessed fines. Payment fields are written by billing, never here.
type FineRepository interface {
	Create(ctx context.Context, fine *model.Fine) error
	// SumOutstanding totals amount minus amount paid over the patron's unpaid and partial fines.
	SumOutstanding(ctx context.Context, patronID string) (model.Money, error)
	Find(ctx context.Context, filter model.FineFilter) ([]*model.Fine, error)
	Count(ctx context.Context, filter model.FineFilter) (int64, error)
}
