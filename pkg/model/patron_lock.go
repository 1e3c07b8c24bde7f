package model

import "time"

// PatronLock is a per-patron row written inside a checkout transaction. Two concurrent
// checkouts for the same patron both write it, so the store lets only one of them commit
// and the other retries against the new loan count.
type PatronLock struct {
	PatronID string    `bson:"_id" json:"patron_id"`
	LockedAt time.Time `bson:"locked_at" json:"locked_at"`
}
