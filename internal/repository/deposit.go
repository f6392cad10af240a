package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/zetahub/kryptonite/internal/models"
)

type DepositRepository interface {
	Insert(deposit *models.Deposit, tx *sql.Tx) error
	ListForUser(userID string, limit int) ([]models.Deposit, error)
	ListWithOwners(limit, offset int) ([]models.DepositWithOwner, error)
	Approve(id string) (bool, error)
	DeleteForUser(userID string, tx *sql.Tx) error
}

type DepositRepositoryImpl struct {
	db *sqlx.DB
}

func NewDepositRepository(db *sqlx.DB) DepositRepository {
	return &DepositRepositoryImpl{db: db}
}

// Insert creates the deposit record and fills in the generated id,
// reference and creation time on the passed struct.
func (repo *DepositRepositoryImpl) Insert(deposit *models.Deposit, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO deposits (user_id, amount, wallet_type, wallet_address, description, details, transfer_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, reference, created_at`

	args := []any{
		deposit.UserID,
		deposit.Amount,
		deposit.WalletType,
		deposit.WalletAddress,
		deposit.Description,
		deposit.Details,
		deposit.TransferDate,
	}

	if tx != nil {
		return tx.QueryRowContext(ctx, query, args...).Scan(&deposit.ID, &deposit.Reference, &deposit.CreatedAt)
	}

	return repo.db.QueryRowContext(ctx, query, args...).Scan(&deposit.ID, &deposit.Reference, &deposit.CreatedAt)
}

func (repo *DepositRepositoryImpl) ListForUser(userID string, limit int) ([]models.Deposit, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	deposits := []models.Deposit{}

	query := `SELECT * FROM deposits WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	err := repo.db.SelectContext(ctx, &deposits, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return deposits, nil
}

func (repo *DepositRepositoryImpl) ListWithOwners(limit, offset int) ([]models.DepositWithOwner, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	deposits := []models.DepositWithOwner{}

	query := `
		SELECT d.*, u.first_name AS owner_first_name, u.last_name AS owner_last_name, u.email AS owner_email
		FROM deposits d
		INNER JOIN users u ON u.id = d.user_id
		ORDER BY d.created_at DESC
		LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &deposits, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return deposits, nil
}

// Approve flips the approval flag only. Crediting the owner's wallet is a
// separate, manual admin action.
func (repo *DepositRepositoryImpl) Approve(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE deposits SET approved = TRUE WHERE id = $1`

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

func (repo *DepositRepositoryImpl) DeleteForUser(userID string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM deposits WHERE user_id = $1`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, userID)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, userID)
	return err
}
