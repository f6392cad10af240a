package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/zetahub/kryptonite/internal/models"
)

type AuthPinRepository interface {
	Insert(pin *models.AuthPin, tx *sql.Tx) error
	FindUnused(code, userID string) (*models.AuthPin, bool, error)
	MarkUsed(id string, tx *sql.Tx) error
	DeleteForUser(userID string, tx *sql.Tx) error
}

type AuthPinRepositoryImpl struct {
	db *sqlx.DB
}

func NewAuthPinRepository(db *sqlx.DB) AuthPinRepository {
	return &AuthPinRepositoryImpl{db: db}
}

// Insert persists a fresh one-time pin. The unique constraints on code and
// withdrawal_id surface collisions as errors; the caller fails the whole
// submission rather than retrying.
func (repo *AuthPinRepositoryImpl) Insert(pin *models.AuthPin, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO auth_pins (code, user_id, withdrawal_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if tx != nil {
		return tx.QueryRowContext(ctx, query, pin.Code, pin.UserID, pin.WithdrawalID).Scan(&pin.ID, &pin.CreatedAt)
	}

	return repo.db.QueryRowContext(ctx, query, pin.Code, pin.UserID, pin.WithdrawalID).Scan(&pin.ID, &pin.CreatedAt)
}

// FindUnused looks up a pin by code and owner, filtered on
// has_been_used = false. A consumed pin is never returned, which is what
// makes reuse attempts fail.
func (repo *AuthPinRepositoryImpl) FindUnused(code, userID string) (*models.AuthPin, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var pin models.AuthPin

	query := `SELECT * FROM auth_pins WHERE code = $1 AND user_id = $2 AND has_been_used = FALSE`

	err := repo.db.GetContext(ctx, &pin, query, code, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &pin, true, err
}

func (repo *AuthPinRepositoryImpl) MarkUsed(id string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE auth_pins SET has_been_used = TRUE WHERE id = $1`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, id)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}

func (repo *AuthPinRepositoryImpl) DeleteForUser(userID string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM auth_pins WHERE user_id = $1`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, userID)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, userID)
	return err
}
