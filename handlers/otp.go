package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/database/dbhelper"
	"github.com/ray-remotestate/smartmenu/models"
	"github.com/ray-remotestate/smartmenu/telegram"
	"github.com/ray-remotestate/smartmenu/utils"
)

const otpTTL = 5 * time.Minute

func SendOtp(w http.ResponseWriter, r *http.Request) {
	type request struct {
		TelegramID string `json:"telegram_id"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.TelegramID == "" {
		http.Error(w, "telegram_id is required", http.StatusBadRequest)
		return
	}

	if !telegram.Configured() {
		http.Error(w, "telegram bot token not configured", http.StatusInternalServerError)
		return
	}

	user, err := dbhelper.GetUserByTelegramID(req.TelegramID)
	if err == sql.ErrNoRows {
		user, err = createTelegramUser(req.TelegramID)
	}
	if err != nil {
		logrus.WithError(err).Error("failed to resolve telegram user")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if err := dbhelper.SetOTP(user.ID, code, time.Now().Add(otpTTL)); err != nil {
		logrus.WithError(err).Error("failed to store otp")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	message := fmt.Sprintf("🔐 <b>Your Login OTP:</b> <code>%s</code>\n<i>Valid for 5 minutes.</i>", code)
	if err := telegram.SendMessage(req.TelegramID, message); err != nil {
		logrus.WithError(err).Error("failed to deliver otp message")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "OTP sent to Telegram",
	})
}

func VerifyOtp(w http.ResponseWriter, r *http.Request) {
	type request struct {
		TelegramID string `json:"telegram_id"`
		OTPCode    string `json:"otp_code"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.TelegramID == "" || req.OTPCode == "" {
		http.Error(w, "telegram_id and otp_code are required", http.StatusBadRequest)
		return
	}

	user, err := dbhelper.GetUserByTelegramID(req.TelegramID)
	if err == sql.ErrNoRows {
		http.Error(w, "invalid OTP", http.StatusUnauthorized)
		return
	} else if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	// a mismatch leaves the stored code untouched, so a typo does not
	// burn the remaining window
	if user.OTPCode == nil || *user.OTPCode != req.OTPCode {
		http.Error(w, "invalid OTP", http.StatusUnauthorized)
		return
	}
	if user.OTPExpiresAt == nil || user.OTPExpiresAt.Before(time.Now()) {
		http.Error(w, "OTP expired", http.StatusUnauthorized)
		return
	}

	if err := dbhelper.ClearOTP(user.ID); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	user.OTPCode = nil
	user.OTPExpiresAt = nil

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

func GetBotURL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !telegram.Configured() {
		json.NewEncoder(w).Encode(map[string]interface{}{"url": nil})
		return
	}

	link, username, err := telegram.BotLink()
	if err != nil {
		logrus.WithError(err).Warn("failed to resolve bot link")
		json.NewEncoder(w).Encode(map[string]interface{}{"url": nil})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"url":      link,
		"username": username,
	})
}

func createTelegramUser(telegramID string) (*models.User, error) {
	// placeholder identity; real profile details come later if the user
	// ever registers properly
	hashed, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	email := fmt.Sprintf("tg_%s@smartmenu.local", telegramID)
	id, err := dbhelper.CreateTelegramUser(database.SmartMenu, telegramID, "Telegram User", email, hashed)
	if err != nil {
		return nil, err
	}
	return dbhelper.GetUserByID(id)
}
