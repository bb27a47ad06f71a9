package dbhelper

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/models"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx so the writers
// below can run inside or outside a transaction.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

const userColumns = `id, name, email, phone_number, password, role, telegram_id, otp_code, otp_expires_at, created_at, archived_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.Password, &u.Role,
		&u.TelegramID, &u.OTPCode, &u.OTPExpiresAt, &u.CreatedAt, &u.ArchivedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func IsUserExists(email string) (bool, error) {
	var count int
	err := database.SmartMenu.QueryRow(`SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER($1)`, email).Scan(&count)
	return count > 0, err
}

func CreateUser(q SQLExecutor, name, email, hashedPassword string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, 'user') RETURNING id`,
		name, email, hashedPassword).Scan(&id)
	return id, err
}

func CreateTelegramUser(q SQLExecutor, telegramID, name, email, hashedPassword string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(`
		INSERT INTO users (name, email, password, role, telegram_id)
		VALUES ($1, $2, $3, 'user', $4)
		RETURNING id`,
		name, email, hashedPassword, telegramID).Scan(&id)
	return id, err
}

func GetUserByID(id uuid.UUID) (*models.User, error) {
	row := database.SmartMenu.QueryRow(`
		SELECT `+userColumns+` FROM users
		WHERE id = $1 AND archived_at IS NULL`, id)
	return scanUser(row)
}

// ErrInvalidCredentials covers both an unknown email and a wrong
// password so callers cannot leak which one was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// GetUserByCredentials matches on email and compares the bcrypt hash.
func GetUserByCredentials(email, password string) (*models.User, error) {
	row := database.SmartMenu.QueryRow(`
		SELECT `+userColumns+` FROM users
		WHERE LOWER(email) = LOWER($1) AND archived_at IS NULL`, email)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func GetUserByTelegramID(telegramID string) (*models.User, error) {
	row := database.SmartMenu.QueryRow(`
		SELECT `+userColumns+` FROM users
		WHERE telegram_id = $1 AND archived_at IS NULL`, telegramID)
	return scanUser(row)
}

func SetTelegramID(userID uuid.UUID, telegramID string) error {
	_, err := database.SmartMenu.Exec(`UPDATE users SET telegram_id = $2 WHERE id = $1`, userID, telegramID)
	return err
}

func SetOTP(userID uuid.UUID, code string, expiresAt time.Time) error {
	_, err := database.SmartMenu.Exec(`
		UPDATE users SET otp_code = $2, otp_expires_at = $3
		WHERE id = $1`, userID, code, expiresAt)
	return err
}

func ClearOTP(userID uuid.UUID) error {
	_, err := database.SmartMenu.Exec(`
		UPDATE users SET otp_code = NULL, otp_expires_at = NULL
		WHERE id = $1`, userID)
	return err
}

// UpdateUserProfile applies a partial update; nil fields keep their
// prior values.
func UpdateUserProfile(userID uuid.UUID, name, email *string) (*models.User, error) {
	row := database.SmartMenu.QueryRow(`
		UPDATE users
		SET name = COALESCE($2, name), email = COALESCE($3, email)
		WHERE id = $1 AND archived_at IS NULL
		RETURNING `+userColumns, userID, name, email)
	return scanUser(row)
}

func ListUsers() ([]models.User, error) {
	rows, err := database.SmartMenu.Query(`
		SELECT id, name, email, phone_number, role, telegram_id, created_at
		FROM users
		WHERE archived_at IS NULL
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.Role, &u.TelegramID, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListAdminTelegramIDs returns the linked chat ids of every admin user,
// for the order notification fan-out.
func ListAdminTelegramIDs() ([]string, error) {
	rows, err := database.SmartMenu.Query(`
		SELECT telegram_id FROM users
		WHERE role = 'admin' AND telegram_id IS NOT NULL AND archived_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
