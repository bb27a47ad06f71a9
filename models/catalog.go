package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"category"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Meal struct {
	ID           uuid.UUID `db:"id" json:"id"`
	CategoryID   uuid.UUID `db:"category_id" json:"category_id"`
	CategoryName string    `db:"-" json:"category,omitempty"`
	Name         string    `db:"name" json:"meal"`
	Description  string    `db:"description" json:"description"`
	Price        float64   `db:"price" json:"price"`
	ImageURL     string    `db:"image_url" json:"mealThumb"`
	Tags         string    `db:"tags" json:"tags"`
	Instructions string    `db:"instructions" json:"instructions"`
	IsAvailable  bool      `db:"is_available" json:"is_available"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Favorite struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	MealID    uuid.UUID `db:"meal_id" json:"meal_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
