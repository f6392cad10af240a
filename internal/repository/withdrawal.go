package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/zetahub/kryptonite/internal/models"
)

type WithdrawalRepository interface {
	Insert(withdrawal *models.Withdrawal, tx *sql.Tx) error
	ListForUser(userID string, limit int) ([]models.Withdrawal, error)
	ListWithOwners(limit, offset int) ([]models.WithdrawalWithOwner, error)
	Approve(id string) (bool, error)
	DeleteForUser(userID string, tx *sql.Tx) error
}

type WithdrawalRepositoryImpl struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) WithdrawalRepository {
	return &WithdrawalRepositoryImpl{db: db}
}

// Insert creates the withdrawal record and fills in the generated id,
// reference and creation time on the passed struct. The pin column carries a
// display copy of the auth pin code issued alongside the withdrawal.
func (repo *WithdrawalRepositoryImpl) Insert(withdrawal *models.Withdrawal, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO withdrawals (user_id, amount, wallet_type, wallet_address, details, pin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reference, created_at`

	args := []any{
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.WalletType,
		withdrawal.WalletAddress,
		withdrawal.Details,
		withdrawal.Pin,
	}

	if tx != nil {
		return tx.QueryRowContext(ctx, query, args...).Scan(&withdrawal.ID, &withdrawal.Reference, &withdrawal.CreatedAt)
	}

	return repo.db.QueryRowContext(ctx, query, args...).Scan(&withdrawal.ID, &withdrawal.Reference, &withdrawal.CreatedAt)
}

func (repo *WithdrawalRepositoryImpl) ListForUser(userID string, limit int) ([]models.Withdrawal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	withdrawals := []models.Withdrawal{}

	query := `SELECT * FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	err := repo.db.SelectContext(ctx, &withdrawals, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}

func (repo *WithdrawalRepositoryImpl) ListWithOwners(limit, offset int) ([]models.WithdrawalWithOwner, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	withdrawals := []models.WithdrawalWithOwner{}

	query := `
		SELECT w.*, u.first_name AS owner_first_name, u.last_name AS owner_last_name, u.email AS owner_email
		FROM withdrawals w
		INNER JOIN users u ON u.id = w.user_id
		ORDER BY w.created_at DESC
		LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &withdrawals, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}

func (repo *WithdrawalRepositoryImpl) Approve(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE withdrawals SET approved = TRUE WHERE id = $1`

	result, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (repo *WithdrawalRepositoryImpl) DeleteForUser(userID string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM withdrawals WHERE user_id = $1`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, userID)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, userID)
	return err
}
