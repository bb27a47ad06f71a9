package dbhelper

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/models"
)

func ListCategories() ([]models.Category, error) {
	rows, err := database.SmartMenu.Query(`
		SELECT id, name, description, image_url, created_at
		FROM categories
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func CreateCategory(name, description, imageURL string) (*models.Category, error) {
	row := database.SmartMenu.QueryRow(`
		INSERT INTO categories (name, description, image_url)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, image_url, created_at`,
		name, description, imageURL)

	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func UpdateCategory(id uuid.UUID, name, description, imageURL *string) (*models.Category, error) {
	row := database.SmartMenu.QueryRow(`
		UPDATE categories
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			image_url = COALESCE($4, image_url)
		WHERE id = $1
		RETURNING id, name, description, image_url, created_at`,
		id, name, description, imageURL)

	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func DeleteCategory(id uuid.UUID) (bool, error) {
	res, err := database.SmartMenu.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const mealColumns = `m.id, m.category_id, m.name, m.description, m.price, m.image_url, m.tags, m.instructions, m.is_available, m.created_at`

func ListAvailableMeals() ([]models.Meal, error) {
	rows, err := database.SmartMenu.Query(`
		SELECT ` + mealColumns + `, c.name
		FROM meals m
		JOIN categories c ON c.id = m.category_id
		WHERE m.is_available = TRUE
		ORDER BY m.name`)
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

func MealExists(id uuid.UUID) (bool, error) {
	var exists bool
	err := database.SmartMenu.QueryRow(`SELECT EXISTS (SELECT 1 FROM meals WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func CategoryExists(id uuid.UUID) (bool, error) {
	var exists bool
	err := database.SmartMenu.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func CreateMeal(categoryID uuid.UUID, name, description string, price float64, imageURL, tags, instructions string) (*models.Meal, error) {
	row := database.SmartMenu.QueryRow(`
		INSERT INTO meals (category_id, name, description, price, image_url, tags, instructions, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, category_id, name, description, price, image_url, tags, instructions, is_available, created_at`,
		categoryID, name, description, price, imageURL, tags, instructions)
	return scanMeal(row)
}

type MealUpdate struct {
	CategoryID   *uuid.UUID
	Name         *string
	Description  *string
	Price        *float64
	ImageURL     *string
	Tags         *string
	Instructions *string
	IsAvailable  *bool
}

func UpdateMeal(id uuid.UUID, in MealUpdate) (*models.Meal, error) {
	row := database.SmartMenu.QueryRow(`
		UPDATE meals
		SET category_id = COALESCE($2, category_id),
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			price = COALESCE($5, price),
			image_url = COALESCE($6, image_url),
			tags = COALESCE($7, tags),
			instructions = COALESCE($8, instructions),
			is_available = COALESCE($9, is_available)
		WHERE id = $1
		RETURNING id, category_id, name, description, price, image_url, tags, instructions, is_available, created_at`,
		id, in.CategoryID, in.Name, in.Description, in.Price, in.ImageURL, in.Tags, in.Instructions, in.IsAvailable)
	return scanMeal(row)
}

func DeleteMeal(id uuid.UUID) (bool, error) {
	res, err := database.SmartMenu.Exec(`DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanMeal(row *sql.Row) (*models.Meal, error) {
	var m models.Meal
	err := row.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
		&m.ImageURL, &m.Tags, &m.Instructions, &m.IsAvailable, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListTags flattens the meals' free-text comma separated tags into a
// deduplicated sorted list.
func ListTags() ([]string, error) {
	rows, err := database.SmartMenu.Query(`SELECT tags FROM meals WHERE tags <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				seen[tag] = true
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}
