package fines

import (
	"testing"
	"time"

	"circulation/pkg/model"
)

func TestAssess(t *testing.T) {
	due := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rate := model.Units(10)

	tests := []struct {
		name     string
		returned time.Time
		wantDays int
		want     model.Money
	}{
		{name: "returned early", returned: due.Add(-48 * time.Hour), wantDays: 0, want: 0},
		{name: "returned exactly at due date", returned: due, wantDays: 0, want: 0},
		{name: "one millisecond late", returned: due.Add(time.Millisecond), wantDays: 1, want: model.Units(10)},
		{name: "exactly one day late", returned: due.Add(24 * time.Hour), wantDays: 1, want: model.Units(10)},
		{name: "one day and one hour late", returned: due.Add(25 * time.Hour), wantDays: 2, want: model.Units(20)},
		{name: "six days late", returned: due.Add(6 * 24 * time.Hour), wantDays: 6, want: model.Units(60)},
		{name: "a year late has no cap", returned: due.Add(365 * 24 * time.Hour), wantDays: 365, want: model.Units(3650)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(due, tt.returned, rate)
			if got.DaysOverdue != tt.wantDays {
				t.Errorf("DaysOverdue = %d, want %d", got.DaysOverdue, tt.wantDays)
			}
			if got.Amount != tt.want {
				t.Errorf("Amount = %s, want %s", got.Amount, tt.want)
			}
		})
	}
}

func TestAssess_FractionalRate(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got := Assess(due, due.Add(3*24*time.Hour), model.Money(25))

	if got.Amount != model.Money(75) {
		t.Errorf("expected 0.75, got %s", got.Amount)
	}
}

func TestAssess_ZeroRate(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got := Assess(due, due.Add(72*time.Hour), 0)

	if got.DaysOverdue != 3 || got.Amount != 0 {
		t.Errorf("expected 3 days and no amount, got %+v", got)
	}
}
