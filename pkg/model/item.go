package model

type Item struct {
	ID              string `json:"id" bson:"_id"`
	Barcode         string `json:"barcode" bson:"barcode"`
	Title           string `json:"title,omitempty" bson:"title,omitempty"`
	TotalCopies     int    `json:"total_copies" bson:"total_copies"`
	AvailableCopies int    `json:"available_copies" bson:"available_copies"`
}

// ItemRef identifies an item either by id or by barcode. ID wins when both are set.
type ItemRef struct {
	ID      string
	Barcode string
}

func (r ItemRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return "barcode:" + r.Barcode
}

type PatronStatus string

const (
	PatronActive    PatronStatus = "active"
	PatronSuspended PatronStatus = "suspended"
	PatronExpired   PatronStatus = "expired"
)

type Patron struct {
	ID         string       `json:"id" bson:"_id"`
	Status     PatronStatus `json:"status" bson:"status"`
	CategoryID string       `json:"category_id" bson:"category_id"`
}

func (p *Patron) IsActive() bool {
	return p.Status == PatronActive
}

type PatronCategory struct {
	ID             string `json:"id" bson:"_id"`
	Name           string `json:"name" bson:"name"`
	LoanPeriodDays int    `json:"loan_period_days" bson:"loan_period_days"`
	BorrowingLimit int    `json:"borrowing_limit" bson:"borrowing_limit"`
	CanRenew       bool   `json:"can_renew" bson:"can_renew"`
	MaxRenewals    int    `json:"max_renewals" bson:"max_renewals"`
	FineRatePerDay Money  `json:"fine_rate_per_day" bson:"fine_rate_per_day"`
}

// RenewalAllowed reports whether a loan renewed renewedCount times may be renewed again.
func (c *PatronCategory) RenewalAllowed(renewedCount int) bool {
	return c.CanRenew && renewedCount < c.MaxRenewals
}
