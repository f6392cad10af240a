package models

import (
	"time"
)

type Notification struct {
	ID          string    `db:"id"`
	ListenerID  string    `db:"listener_id"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

const (
	NotificationStatusUnread = "UNREAD"
	NotificationStatusRead   = "READ"
)
