package models

import (
	"database/sql"
	"time"
)

type Deposit struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	Reference     string         `db:"reference"`
	Amount        float64        `db:"amount"`
	WalletType    string         `db:"wallet_type"`
	WalletAddress string         `db:"wallet_address"`
	Description   sql.NullString `db:"description"`
	Details       string         `db:"details"`
	TransferDate  time.Time      `db:"transfer_date"`
	Approved      bool           `db:"approved"`
	CreatedAt     time.Time      `db:"created_at"`
}

// DepositWithOwner joins a deposit with its owning user for the admin overview.
type DepositWithOwner struct {
	Deposit
	OwnerFirstName string `db:"owner_first_name"`
	OwnerLastName  string `db:"owner_last_name"`
	OwnerEmail     string `db:"owner_email"`
}
