package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/database/dbhelper"
	"github.com/ray-remotestate/smartmenu/middlewares"
	"github.com/ray-remotestate/smartmenu/models"
	"github.com/ray-remotestate/smartmenu/utils"
)

func Register(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "all fields are required", http.StatusBadRequest)
		return
	}

	if len(req.Password) < 6 {
		http.Error(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	exists, err := dbhelper.IsUserExists(req.Email)
	if err != nil {
		http.Error(w, "failed to check user existence", http.StatusInternalServerError)
		return
	}
	if exists {
		http.Error(w, "user already exists", http.StatusBadRequest)
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	var userID, sessionID uuid.UUID
	txErr := database.Tx(func(tx *sql.Tx) error {
		userID, err = dbhelper.CreateUser(tx, req.Name, req.Email, hashedPassword)
		if err != nil {
			logrus.WithError(err).Error("failed to create user")
			return err
		}

		sessionID, err = dbhelper.CreateSession(tx, userID)
		if err != nil {
			logrus.WithError(err).Error("failed to create session")
			return err
		}

		return nil
	})
	if txErr != nil {
		http.Error(w, "failed to register user", http.StatusInternalServerError)
		return
	}

	accessToken, err := utils.GenerateAccessToken(userID, sessionID, []string{string(models.RoleUser)})
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	user, err := dbhelper.GetUserByID(userID)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "success",
		"message":      "User created successfully",
		"access_token": accessToken,
		"token_type":   "Bearer",
		"user":         user,
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		TelegramID string `json:"telegram_id"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	user, err := dbhelper.GetUserByCredentials(req.Email, req.Password)
	if err == dbhelper.ErrInvalidCredentials {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	} else if err != nil {
		logrus.WithError(err).Error("login lookup failed")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	// opportunistic: remember the chat id so admins get order alerts
	if req.TelegramID != "" {
		if err := dbhelper.SetTelegramID(user.ID, req.TelegramID); err != nil {
			logrus.WithError(err).Warn("failed to record telegram id at login")
		} else {
			user.TelegramID = &req.TelegramID
		}
	}

	sessionID, err := dbhelper.CreateSession(database.SmartMenu, user.ID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, sessionID, []string{string(user.Role)})
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "success",
		"message":      "Login successful",
		"access_token": accessToken,
		"token_type":   "Bearer",
		"user":         user,
	})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID, err := claims.SessionID()
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := dbhelper.RevokeSession(sessionID); err != nil {
		http.Error(w, "failed to log out", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "Logged out successfully",
	})
}
