package dto

import "time"

type StatusOutput struct {
	UserID      string
	Subscribed  bool
	Applied     int
	Skipped     int
	LastBalance int
	LastAt      time.Time
}

// AppliedOutput is a pushed balance that reached the local ledger.
type AppliedOutput struct {
	UserID    string
	Balance   int
	UpdatedAt time.Time
}
