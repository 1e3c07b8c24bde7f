package fines

import (
	"time"

	"circulation/pkg/model"
)

const day = 24 * time.Hour

// Assessment is the outcome of pricing one late return.
type Assessment struct {
	DaysOverdue int
	Amount      model.Money
}

// Assess prices a return: every started day past the due date costs ratePerDay. There is no cap.
func Assess(dueDate, returnDate time.Time, ratePerDay model.Money) Assessment {
	if !returnDate.After(dueDate) {
		return Assessment{}
	}

	late := returnDate.Sub(dueDate)
	days := int(late / day)
	if late%day != 0 {
		days++
	}

	return Assessment{
		DaysOverdue: days,
		Amount:      model.Money(days) * ratePerDay,
	}
}
