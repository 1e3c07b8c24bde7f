// Package events carries the post-commit notifications emitted by the circulation managers.
//
// Events are published only after the unit of work that produced them committed. A failed
// publish is logged by the caller and never undoes the committed change.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	LoanCreated       Type = "LoanCreated"
	LoanClosed        Type = "LoanClosed"
	LoanRenewed       Type = "LoanRenewed"
	FineAssessed      Type = "FineAssessed"
	HoldPlaced        Type = "HoldPlaced"
	HoldCancelled     Type = "HoldCancelled"
	HoldStatusChanged Type = "HoldStatusChanged"
)

const (
	Source        = "circulation"
	SchemaVersion = "1"
)

type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	OperatorID string          `json:"operator_id,omitempty"`
	PatronID   string          `json:"patron_id,omitempty"`
	ItemID     string          `json:"item_id,omitempty"`
	LoanID     string          `json:"loan_id,omitempty"`
	HoldID     string          `json:"hold_id,omitempty"`
	FineID     string          `json:"fine_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func New(typ Type, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: at,
	}
}

// WithPayload attaches the JSON encoding of v, typically the entity after the change.
func (e Event) WithPayload(v any) Event {
	if data, err := json.Marshal(v); err == nil {
		e.Payload = data
	}
	return e
}

// Key is the partition key. Events for one item stay ordered.
func (e Event) Key() string {
	switch {
	case e.ItemID != "":
		return e.ItemID
	case e.PatronID != "":
		return e.PatronID
	default:
		return e.ID
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
