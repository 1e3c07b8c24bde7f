package model

import "time"

type Loan struct {
	ID           string     `json:"id" bson:"_id"`
	PatronID     string     `json:"patron_id" bson:"patron_id"`
	ItemID       string     `json:"item_id" bson:"item_id"`
	CheckoutDate time.Time  `json:"checkout_date" bson:"checkout_date"`
	DueDate      time.Time  `json:"due_date" bson:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty" bson:"return_date"`
	RenewedCount int        `json:"renewed_count" bson:"renewed_count"`
	OperatorID   string     `json:"operator_id" bson:"operator_id"`
}

func (l *Loan) IsActive() bool {
	return l.ReturnDate == nil
}

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && now.After(l.DueDate)
}

type CheckoutRequest struct {
	PatronID   string `json:"patron_id" validate:"required,max=64"`
	ItemID     string `json:"item_id,omitempty" validate:"required_without=Barcode,omitempty,max=64"`
	Barcode    string `json:"barcode,omitempty" validate:"required_without=ItemID,omitempty,max=64"`
	OperatorID string `json:"operator_id" validate:"required,max=128"`
}

func (r *CheckoutRequest) ItemRef() ItemRef {
	return ItemRef{ID: r.ItemID, Barcode: r.Barcode}
}

type CheckInRequest struct {
	ItemID     string `json:"item_id,omitempty" validate:"required_without=Barcode,omitempty,max=64"`
	Barcode    string `json:"barcode,omitempty" validate:"required_without=ItemID,omitempty,max=64"`
	OperatorID string `json:"operator_id,omitempty" validate:"omitempty,max=128"`
}

func (r *CheckInRequest) ItemRef() ItemRef {
	return ItemRef{ID: r.ItemID, Barcode: r.Barcode}
}

type CheckInResult struct {
	Loan *Loan `json:"loan"`
	Fine *Fine `json:"fine,omitempty"`
}

// LoanFilter selects loans for the read-side listings. Zero values mean "any".
type LoanFilter struct {
	PatronID    string
	ItemID      string
	ActiveOnly  bool
	OverdueAsOf *time.Time
	Limit       int
	Offset      int64
}
