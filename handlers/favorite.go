package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ray-remotestate/smartmenu/database/dbhelper"
	"github.com/ray-remotestate/smartmenu/middlewares"
	"github.com/ray-remotestate/smartmenu/models"
)

func ListFavorites(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	meals, err := dbhelper.ListFavoriteMeals(claims.UserID)
	if err != nil {
		http.Error(w, "failed to query favorites", http.StatusInternalServerError)
		return
	}
	if meals == nil {
		meals = []models.Meal{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "success",
		"favorites": meals,
	})
}

// AddFavorite is idempotent; adding a meal twice succeeds both times
// and leaves a single row.
func AddFavorite(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type request struct {
		MealID uuid.UUID `json:"meal_id"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.MealID == uuid.Nil {
		http.Error(w, "meal_id is required", http.StatusUnprocessableEntity)
		return
	}

	exists, err := dbhelper.MealExists(req.MealID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "meal not found", http.StatusNotFound)
		return
	}

	created, err := dbhelper.AddFavorite(claims.UserID, req.MealID)
	if err != nil {
		http.Error(w, "failed to add favorite", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !created {
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "success",
			"message": "Meal is already in favorites",
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "Meal added to favorites",
	})
}

func RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	mealID, err := uuid.Parse(mux.Vars(r)["mealId"])
	if err != nil {
		http.Error(w, "invalid meal id", http.StatusBadRequest)
		return
	}

	removed, err := dbhelper.RemoveFavorite(claims.UserID, mealID)
	if err != nil {
		http.Error(w, "failed to remove favorite", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "favorite not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "Meal removed from favorites",
	})
}
