package model

import "time"

type HoldStatus string

const (
	HoldPending   HoldStatus = "pending"
	HoldAvailable HoldStatus = "available"
	HoldFulfilled HoldStatus = "fulfilled"
	HoldCancelled HoldStatus = "cancelled"
	HoldExpired   HoldStatus = "expired"
)

var OpenHoldStatuses = []HoldStatus{HoldPending, HoldAvailable}

func (s HoldStatus) Valid() bool {
	switch s {
	case HoldPending, HoldAvailable, HoldFulfilled, HoldCancelled, HoldExpired:
		return true
	}
	return false
}

// IsOpen reports whether the hold still occupies the patron's place in the item queue.
func (s HoldStatus) IsOpen() bool {
	return s == HoldPending || s == HoldAvailable
}

type Hold struct {
	ID         string     `json:"id" bson:"_id"`
	PatronID   string     `json:"patron_id" bson:"patron_id"`
	ItemID     string     `json:"item_id" bson:"item_id"`
	Status     HoldStatus `json:"status" bson:"status"`
	HoldDate   time.Time  `json:"hold_date" bson:"hold_date"`
	ExpiryDate time.Time  `json:"expiry_date" bson:"expiry_date"`
	Notes      string     `json:"notes,omitempty" bson:"notes,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"`
	// Open mirrors Status.IsOpen so the store can index open holds per (patron, item).
	Open bool `json:"-" bson:"open"`
}

type PlaceHoldRequest struct {
	PatronID string `json:"patron_id" validate:"required,max=64"`
	ItemID   string `json:"item_id" validate:"required,max=64"`
	Notes    string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// HoldStatusUpdate is the only shape an administrative hold update may take.
type HoldStatusUpdate struct {
	Status HoldStatus `json:"status" validate:"required,hold_status"`
	Notes  *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type HoldFilter struct {
	Status   HoldStatus
	PatronID string
	ItemID   string
	OpenOnly bool
	Limit    int
	Offset   int64
}
