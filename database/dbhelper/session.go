package dbhelper

import (
	"time"

	"github.com/google/uuid"

	"github.com/ray-remotestate/smartmenu/database"
)

const sessionTTL = 7 * 24 * time.Hour

func CreateSession(q SQLExecutor, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(`
		INSERT INTO sessions (user_id, expires_at)
		VALUES ($1, $2)
		RETURNING id`,
		userID, time.Now().Add(sessionTTL)).Scan(&id)
	return id, err
}

func IsSessionActive(id uuid.UUID) (bool, error) {
	var active bool
	err := database.SmartMenu.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE id = $1 AND revoked_at IS NULL AND expires_at > now()
		)`, id).Scan(&active)
	return active, err
}

// RevokeSession invalidates a single session; other tokens issued to
// the same user stay valid.
func RevokeSession(id uuid.UUID) error {
	_, err := database.SmartMenu.Exec(`
		UPDATE sessions SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}
