package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification rows are created by the system on order status changes,
// never directly by a user.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	OrderID   *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
