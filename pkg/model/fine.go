package model

import "time"

type FineStatus string

const (
	FineUnpaid  FineStatus = "unpaid"
	FinePartial FineStatus = "partial"
	FinePaid    FineStatus = "paid"
	FineWaived  FineStatus = "waived"
)

// OutstandingFineStatuses are the statuses whose unpaid remainder counts against checkout.
var OutstandingFineStatuses = []FineStatus{FineUnpaid, FinePartial}

func (s FineStatus) Valid() bool {
	switch s {
	case FineUnpaid, FinePartial, FinePaid, FineWaived:
		return true
	}
	return false
}

type Fine struct {
	ID          string     `json:"id" bson:"_id"`
	PatronID    string     `json:"patron_id" bson:"patron_id"`
	LoanID      string     `json:"loan_id" bson:"loan_id"`
	Amount      Money      `json:"amount" bson:"amount"`
	AmountPaid  Money      `json:"amount_paid" bson:"amount_paid"`
	DaysOverdue int        `json:"days_overdue" bson:"days_overdue"`
	Status      FineStatus `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

func (f *Fine) Outstanding() Money {
	if f.Status != FineUnpaid && f.Status != FinePartial {
		return 0
	}
	return f.Amount - f.AmountPaid
}

type FineFilter struct {
	Status   FineStatus
	PatronID string
	Limit    int
	Offset   int64
}
