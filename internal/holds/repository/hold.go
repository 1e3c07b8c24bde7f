package repository

import (
	"context"
	"time"

	"circulation/pkg/model"
)

const (
	CollectionName = "Holds"
	TableName      = "holds"
)

// StatusChange moves a hold from From to To. Notes is left unchanged when nil.
type StatusChange struct {
	From  model.HoldStatus
	To    model.HoldStatus
	Notes *string
	At    time.Time
}

// HoldRepository persists holds. Create and UpdateStatus return db.ErrDuplicateKey when the
// write would leave two open holds for the same patron and item.
type HoldRepository interface {
	Create(ctx context.Context, hold *model.Hold) error
	FindByID(ctx context.Context, id string) (*model.Hold, error)
	FindOpen(ctx context.Context, patronID, itemID string) (*model.Hold, error)
	// UpdateStatus applies change only while the stored status still equals change.From.
	UpdateStatus(ctx context.Context, id string, change StatusChange) error
	Find(ctx context.Context, filter model.HoldFilter) ([]*model.Hold, error)
	Count(ctx context.Context, filter model.HoldFilter) (int64, error)
	// Queue lists the open holds of an item, oldest first.
	Queue(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, error)
	CountOpenByItem(ctx context.Context, itemID string) (int64, error)
}
