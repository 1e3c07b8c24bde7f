package model

import "time"

// AuditEntry is one circulation event as recorded by the audit service. EventID is unique,
// so a redelivered event is stored once.
type AuditEntry struct {
	EventID       string    `json:"event_id" bson:"_id"`
	EventType     string    `json:"event_type" bson:"event_type"`
	Source        string    `json:"source" bson:"source"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OperatorID    string    `json:"operator_id,omitempty" bson:"operator_id,omitempty"`
	PatronID      string    `json:"patron_id,omitempty" bson:"patron_id,omitempty"`
	ItemID        string    `json:"item_id,omitempty" bson:"item_id,omitempty"`
	LoanID        string    `json:"loan_id,omitempty" bson:"loan_id,omitempty"`
	HoldID        string    `json:"hold_id,omitempty" bson:"hold_id,omitempty"`
	FineID        string    `json:"fine_id,omitempty" bson:"fine_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt    time.Time `json:"recorded_at" bson:"recorded_at"`
	// Payload is the JSON snapshot of the entity after the change.
	Payload string `json:"payload,omitempty" bson:"payload,omitempty"`
}
