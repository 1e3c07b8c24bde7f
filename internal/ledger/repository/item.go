package repository

import (
	"context"
	"errors"

	"circulation/pkg/model"
)

const (
	CollectionName = "Items"
	TableName      = "items"
)

var ErrNotFound = errors.New("item not found")

// ItemRepository reads items and applies guarded copy-count changes.
// The guarded methods report whether the guard matched; a false result with a nil error
// means either the item is missing or its counts did not satisfy the guard.
type ItemRepository interface {
	FindByID(ctx context.Context, id string) (*model.Item, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Item, error)
	// DecrementAvailable takes one copy when available_copies > 0.
	DecrementAvailable(ctx context.Context, id string) (bool, error)
	// IncrementAvailable returns one copy when available_copies < total_copies.
	IncrementAvailable(ctx context.Context, id string) (bool, error)
}
