package repository

import (
	"context"
	"errors"
	"time"

	"circulation/pkg/model"
)

const (
	PatronCollectionName   = "Patrons"
	CategoryCollectionName = "PatronCategories"
	LockCollectionName     = "PatronLocks"

	PatronTableName   = "patrons"
	CategoryTableName = "patron_categories"
)

var (
	ErrPatronNotFound   = errors.New("patron not found")
	ErrCategoryNotFound = errors.New("patron category not found")
)

// PolicyRepository reads patrons and their categories. Neither is written by circulation,
// apart from the patron lock taken by checkout.
type PolicyRepository interface {
	FindPatron(ctx context.Context, id string) (*model.Patron, error)
	FindCategory(ctx context.Context, id string) (*model.PatronCategory, error)
	// LockPatron serializes concurrent transactions for the same patron until commit.
	LockPatron(ctx context.Context, patronID string, now time.Time) error
}
