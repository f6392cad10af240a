package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID               string         `db:"id"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	Email            string         `db:"email"`
	HashedPassword   string         `db:"hashed_password"`
	Avatar           sql.NullString `db:"avatar"`
	Street           sql.NullString `db:"street"`
	City             sql.NullString `db:"city"`
	State            sql.NullString `db:"state"`
	Country          sql.NullString `db:"country"`
	Zipcode          sql.NullString `db:"zipcode"`
	WalletBalance    float64        `db:"wallet_balance"`
	BonusBalance     float64        `db:"bonus_balance"`
	ProfitBalance    float64        `db:"profit_balance"`
	TotalWithdrawals float64        `db:"total_withdrawals"`
	Permissions      pq.StringArray `db:"permissions"`
	IsAdmin          bool           `db:"is_admin"`
	VerificationCode string         `db:"verification_code"`
	VerifiedAt       sql.NullTime   `db:"verified_at"`
	CreatedAt        time.Time      `db:"created_at"`
}

const (
	// PermissionDeposit is granted to every account at registration.
	PermissionDeposit = "deposit"

	// PermissionWithdraw is granted once the email address is verified.
	PermissionWithdraw = "withdraw"
)

func (u *User) HasVerifiedEmailAddress() bool {
	return u.VerifiedAt.Valid
}
