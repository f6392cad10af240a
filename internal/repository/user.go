package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zetahub/kryptonite/internal/models"
)

type UserRepository interface {
	Insert(user *models.User, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.User, bool, error)
	GetByEmail(email string) (*models.User, bool, error)
	List(limit, offset int) ([]models.User, error)
	MarkVerified(id string, tx *sql.Tx) error
	RefreshVerificationCode(id, code string) error
	UpdateBalances(id string, wallet, bonus, profit float64) (bool, error)
	CreditTotalWithdrawals(id string, amount float64, tx *sql.Tx) error
	ChangeAvatar(id, avatar string) error
	Delete(id string, tx *sql.Tx) (bool, error)
}

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Insert(user *models.User, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO users (first_name, last_name, email, hashed_password, street, city, state, country, zipcode, permissions, is_admin, verification_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	args := []any{
		user.FirstName,
		user.LastName,
		user.Email,
		user.HashedPassword,
		user.Street,
		user.City,
		user.State,
		user.Country,
		user.Zipcode,
		user.Permissions,
		user.IsAdmin,
		user.VerificationCode,
	}

	if tx != nil {
		err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query, args...)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *UserRepositoryImpl) GetOne(id string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE id = $1`

	err := repo.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) GetByEmail(email string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE email = $1`

	err := repo.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) List(limit, offset int) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	users := []models.User{}

	query := `SELECT * FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &users, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// MarkVerified sets the verification timestamp and grants the withdraw
// permission in a single statement.
func (repo *UserRepositoryImpl) MarkVerified(id string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE users
		SET verified_at = $1,
		    permissions = CASE WHEN $2 = ANY(permissions) THEN permissions ELSE array_append(permissions, $2) END
		WHERE id = $3`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, time.Now(), models.PermissionWithdraw, id)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, time.Now(), models.PermissionWithdraw, id)
	return err
}

func (repo *UserRepositoryImpl) RefreshVerificationCode(id, code string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET verification_code = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, code, id)
	return err
}

func (repo *UserRepositoryImpl) UpdateBalances(id string, wallet, bonus, profit float64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET wallet_balance = $1, bonus_balance = $2, profit_balance = $3 WHERE id = $4`

	result, err := repo.db.ExecContext(ctx, query, wallet, bonus, profit, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (repo *UserRepositoryImpl) CreditTotalWithdrawals(id string, amount float64, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET total_withdrawals = total_withdrawals + $1 WHERE id = $2`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, amount, id)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, amount, id)
	return err
}

func (repo *UserRepositoryImpl) ChangeAvatar(id, avatar string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET avatar = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, avatar, id)
	return err
}

func (repo *UserRepositoryImpl) Delete(id string, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM users WHERE id = $1`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, id)
	} else {
		result, err = repo.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
