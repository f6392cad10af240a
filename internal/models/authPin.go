package models

import (
	"time"
)

// AuthPin is the one-time code gating release of a single withdrawal.
// Exactly one pin exists per withdrawal, and once HasBeenUsed is set the
// pin can never authorize again: lookups filter on has_been_used = false.
type AuthPin struct {
	ID           string    `db:"id"`
	Code         string    `db:"code"`
	UserID       string    `db:"user_id"`
	WithdrawalID string    `db:"withdrawal_id"`
	HasBeenUsed  bool      `db:"has_been_used"`
	CreatedAt    time.Time `db:"created_at"`
}
