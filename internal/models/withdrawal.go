package models

import (
	"time"
)

type Withdrawal struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Reference     string    `db:"reference"`
	Amount        float64   `db:"amount"`
	WalletType    string    `db:"wallet_type"`
	WalletAddress string    `db:"wallet_address"`
	Details       string    `db:"details"`
	Pin           string    `db:"pin"`
	Approved      bool      `db:"approved"`
	CreatedAt     time.Time `db:"created_at"`
}

// WithdrawalWithOwner joins a withdrawal with its owning user for the admin overview.
type WithdrawalWithOwner struct {
	Withdrawal
	OwnerFirstName string `db:"owner_first_name"`
	OwnerLastName  string `db:"owner_last_name"`
	OwnerEmail     string `db:"owner_email"`
}
