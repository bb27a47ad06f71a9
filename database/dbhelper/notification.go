package dbhelper

import (
	"github.com/google/uuid"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/models"
)

func CreateNotification(q SQLExecutor, userID uuid.UUID, orderID *uuid.UUID, title, message string) error {
	_, err := q.Exec(`
		INSERT INTO notifications (user_id, order_id, title, message)
		VALUES ($1, $2, $3, $4)`,
		userID, orderID, title, message)
	return err
}

func ListNotifications(userID uuid.UUID) ([]models.Notification, error) {
	rows, err := database.SmartMenu.Query(`
		SELECT id, user_id, order_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead only touches the caller's own row.
func MarkNotificationRead(id, userID uuid.UUID) (bool, error) {
	res, err := database.SmartMenu.Exec(`
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func MarkAllNotificationsRead(userID uuid.UUID) error {
	_, err := database.SmartMenu.Exec(`
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND is_read = FALSE`, userID)
	return err
}
