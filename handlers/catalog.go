package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/smartmenu/database/dbhelper"
	"github.com/ray-remotestate/smartmenu/models"
)

// ListCategories is the public catalog read; every category, no auth.
func ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := dbhelper.ListCategories()
	if err != nil {
		http.Error(w, "failed to query categories", http.StatusInternalServerError)
		return
	}

	type category struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"category"`
		Description string    `json:"description"`
		ImageURL    string    `json:"image_url"`
	}

	out := make([]category, 0, len(categories))
	for _, c := range categories {
		out = append(out, category{ID: c.ID, Name: c.Name, Description: c.Description, ImageURL: c.ImageURL})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func CreateCategory(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name        string `json:"category"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "category name is required", http.StatusUnprocessableEntity)
		return
	}

	category, err := dbhelper.CreateCategory(req.Name, req.Description, req.ImageURL)
	if err != nil {
		if isPqCode(err, uniqueViolation) {
			http.Error(w, "category already exists", http.StatusBadRequest)
			return
		}
		logrus.WithError(err).Error("failed to create category")
		http.Error(w, "failed to create category", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Category created successfully",
		"category": category,
	})
}

func UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}

	type request struct {
		Name        *string `json:"category"`
		Description *string `json:"description"`
		ImageURL    *string `json:"image_url"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	category, err := dbhelper.UpdateCategory(id, req.Name, req.Description, req.ImageURL)
	if err == sql.ErrNoRows {
		http.Error(w, "category not found", http.StatusNotFound)
		return
	} else if err != nil {
		if isPqCode(err, uniqueViolation) {
			http.Error(w, "category already exists", http.StatusBadRequest)
			return
		}
		logrus.WithError(err).Error("failed to update category")
		http.Error(w, "failed to update category", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Category updated successfully",
		"category": category,
	})
}

func DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}

	deleted, err := dbhelper.DeleteCategory(id)
	if err != nil {
		// deletion is reject-not-cascade while meals still reference it
		if isPqCode(err, foreignKeyViolation) {
			http.Error(w, "category still has meals", http.StatusConflict)
			return
		}
		logrus.WithError(err).Error("failed to delete category")
		http.Error(w, "failed to delete category", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "category not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Category deleted successfully",
	})
}

// ListMeals is the public catalog read; available meals only.
func ListMeals(w http.ResponseWriter, r *http.Request) {
	meals, err := dbhelper.ListAvailableMeals()
	if err != nil {
		http.Error(w, "failed to query meals", http.StatusInternalServerError)
		return
	}
	if meals == nil {
		meals = []models.Meal{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meals)
}

func CreateMeal(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name         string    `json:"meal"`
		CategoryID   uuid.UUID `json:"category_id"`
		ImageURL     string    `json:"mealThumb"`
		Price        *float64  `json:"price"`
		Description  string    `json:"description"`
		Tags         string    `json:"tags"`
		Instructions string    `json:"instructions"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.CategoryID == uuid.Nil || req.Price == nil {
		http.Error(w, "meal, category_id and price are required", http.StatusUnprocessableEntity)
		return
	}
	if *req.Price < 0 {
		http.Error(w, "price must be non-negative", http.StatusUnprocessableEntity)
		return
	}

	exists, err := dbhelper.CategoryExists(req.CategoryID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "category does not exist", http.StatusUnprocessableEntity)
		return
	}

	meal, err := dbhelper.CreateMeal(req.CategoryID, req.Name, req.Description, *req.Price, req.ImageURL, req.Tags, req.Instructions)
	if err != nil {
		logrus.WithError(err).Error("failed to create meal")
		http.Error(w, "failed to create meal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Meal created successfully",
		"meal":    meal,
	})
}

func UpdateMeal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid meal id", http.StatusBadRequest)
		return
	}

	type request struct {
		Name         *string    `json:"meal"`
		CategoryID   *uuid.UUID `json:"category_id"`
		ImageURL     *string    `json:"mealThumb"`
		Price        *float64   `json:"price"`
		Description  *string    `json:"description"`
		Tags         *string    `json:"tags"`
		Instructions *string    `json:"instructions"`
		IsAvailable  *bool      `json:"is_available"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Price != nil && *req.Price < 0 {
		http.Error(w, "price must be non-negative", http.StatusUnprocessableEntity)
		return
	}
	if req.CategoryID != nil {
		exists, err := dbhelper.CategoryExists(*req.CategoryID)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		if !exists {
			http.Error(w, "category does not exist", http.StatusUnprocessableEntity)
			return
		}
	}

	meal, err := dbhelper.UpdateMeal(id, dbhelper.MealUpdate{
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		ImageURL:     req.ImageURL,
		Tags:         req.Tags,
		Instructions: req.Instructions,
		IsAvailable:  req.IsAvailable,
	})
	if err == sql.ErrNoRows {
		http.Error(w, "meal not found", http.StatusNotFound)
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to update meal")
		http.Error(w, "failed to update meal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Meal updated successfully",
		"meal":    meal,
	})
}

func DeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid meal id", http.StatusBadRequest)
		return
	}

	deleted, err := dbhelper.DeleteMeal(id)
	if err != nil {
		if isPqCode(err, foreignKeyViolation) {
			http.Error(w, "meal has been ordered and cannot be deleted", http.StatusConflict)
			return
		}
		logrus.WithError(err).Error("failed to delete meal")
		http.Error(w, "failed to delete meal", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "meal not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Meal deleted successfully",
	})
}

func ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := dbhelper.ListTags()
	if err != nil {
		http.Error(w, "failed to query tags", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tags)
}
