package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/smartmenu/database/dbhelper"
	"github.com/ray-remotestate/smartmenu/middlewares"
)

// CurrentUser returns the authenticated user's record.
func CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := dbhelper.GetUserByID(claims.UserID)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"user":   user,
	})
}

func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type request struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Name == nil && req.Email == nil {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}
	if req.Name != nil && *req.Name == "" {
		http.Error(w, "name cannot be empty", http.StatusUnprocessableEntity)
		return
	}
	if req.Email != nil && *req.Email == "" {
		http.Error(w, "email cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	user, err := dbhelper.UpdateUserProfile(claims.UserID, req.Name, req.Email)
	if err != nil {
		if isPqCode(err, uniqueViolation) {
			http.Error(w, "email already in use", http.StatusUnprocessableEntity)
			return
		}
		logrus.WithError(err).Error("failed to update profile")
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ListUsers is admin-only and returns every user in the directory.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := dbhelper.ListUsers()
	if err != nil {
		http.Error(w, "failed to query users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
