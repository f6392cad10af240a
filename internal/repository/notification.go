package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/zetahub/kryptonite/internal/models"
)

type NotificationRepository interface {
	Insert(notification *models.Notification, tx *sql.Tx) error
	ListUnreadForUser(userID string, limit int) ([]models.Notification, error)
	CountUnreadForUser(userID string) (int, error)
	Delete(id, listenerID string) (bool, error)
	DeleteForUser(userID string, tx *sql.Tx) error
}

type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (repo *NotificationRepositoryImpl) Insert(notification *models.Notification, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO notifications (listener_id, description)
		VALUES ($1, $2)
		RETURNING id, status, created_at`

	if tx != nil {
		return tx.QueryRowContext(ctx, query, notification.ListenerID, notification.Description).
			Scan(&notification.ID, &notification.Status, &notification.CreatedAt)
	}

	return repo.db.QueryRowContext(ctx, query, notification.ListenerID, notification.Description).
		Scan(&notification.ID, &notification.Status, &notification.CreatedAt)
}

func (repo *NotificationRepositoryImpl) ListUnreadForUser(userID string, limit int) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	notifications := []models.Notification{}

	query := `
		SELECT * FROM notifications
		WHERE listener_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3`

	err := repo.db.SelectContext(ctx, &notifications, query, userID, models.NotificationStatusUnread, limit)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (repo *NotificationRepositoryImpl) CountUnreadForUser(userID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `SELECT count(*) FROM notifications WHERE listener_id = $1 AND status = $2`

	err := repo.db.GetContext(ctx, &count, query, userID, models.NotificationStatusUnread)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Delete removes the record outright; "marking as read" deletes rather than
// updates.
func (repo *NotificationRepositoryImpl) Delete(id, listenerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM notifications WHERE id = $1 AND listener_id = $2`

	result, err := repo.db.ExecContext(ctx, query, id, listenerID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (repo *NotificationRepositoryImpl) DeleteForUser(userID string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM notifications WHERE listener_id = $1`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, userID)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, userID)
	return err
}
