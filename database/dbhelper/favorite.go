package dbhelper

import (
	"github.com/google/uuid"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/models"
)

func ListFavoriteMeals(userID uuid.UUID) ([]models.Meal, error) {
	rows, err := database.SmartMenu.Query(`
		SELECT `+mealColumns+`, c.name
		FROM favorites f
		JOIN meals m ON m.id = f.meal_id
		JOIN categories c ON c.id = m.category_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []models.Meal
	for rows.Next() {
		var m models.Meal
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
			&m.ImageURL, &m.Tags, &m.Instructions, &m.IsAvailable, &m.CreatedAt, &m.CategoryName); err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// AddFavorite is idempotent; the second add of the same pair reports
// created=false and leaves the single row in place.
func AddFavorite(userID, mealID uuid.UUID) (bool, error) {
	res, err := database.SmartMenu.Exec(`
		INSERT INTO favorites (user_id, meal_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, meal_id) DO NOTHING`, userID, mealID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func RemoveFavorite(userID, mealID uuid.UUID) (bool, error) {
	res, err := database.SmartMenu.Exec(`
		DELETE FROM favorites
		WHERE user_id = $1 AND meal_id = $2`, userID, mealID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
