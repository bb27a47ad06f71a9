package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMeals(t *testing.T) {
	mock := setupMock(t)
	mealID, categoryID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE m.is_available = TRUE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "name", "description", "price",
			"image_url", "tags", "instructions", "is_available", "created_at", "c.name"}).
			AddRow(mealID.String(), categoryID.String(), "Pad Thai", "Noodles", 12.75,
				"https://cdn.example.com/pad-thai.jpg", "thai,noodles", "", true, time.Now(), "Mains"))

	w := httptest.NewRecorder()
	ListMeals(w, httptest.NewRequest(http.MethodGet, "/meals", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"meal":"Pad Thai"`)
	assert.Contains(t, body, `"mealThumb":"https://cdn.example.com/pad-thai.jpg"`)
	assert.Contains(t, body, `"category":"Mains"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMealsEmpty(t *testing.T) {
	mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE m.is_available = TRUE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "name", "description", "price",
			"image_url", "tags", "instructions", "is_available", "created_at", "c.name"}))

	w := httptest.NewRecorder()
	ListMeals(w, httptest.NewRequest(http.MethodGet, "/meals", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCategoriesProjection(t *testing.T) {
	mock := setupMock(t)
	categoryID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM categories
		ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "image_url", "created_at"}).
			AddRow(categoryID.String(), "Mains", "Big plates", "", time.Now()))

	w := httptest.NewRecorder()
	ListCategories(w, httptest.NewRequest(http.MethodGet, "/categories", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"Mains"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryDuplicate(t *testing.T) {
	mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories`)).
		WithArgs("Mains", "", "").
		WillReturnError(&pq.Error{Code: "23505"})

	body := map[string]string{"category": "Mains"}
	w := httptest.NewRecorder()
	CreateCategory(w, jsonRequest(t, http.MethodPost, "/categories", body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "category already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryWithMeals(t *testing.T) {
	mock := setupMock(t)
	categoryID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM categories WHERE id = $1`)).
		WithArgs(categoryID).
		WillReturnError(&pq.Error{Code: "23503"})

	r := httptest.NewRequest(http.MethodDelete, "/categories/"+categoryID.String(), nil)
	r = mux.SetURLVars(r, map[string]string{"id": categoryID.String()})
	w := httptest.NewRecorder()
	DeleteCategory(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "category still has meals")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMealUnknownCategory(t *testing.T) {
	mock := setupMock(t)
	categoryID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM categories`)).
		WithArgs(categoryID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	body := map[string]interface{}{"meal": "Pad Thai", "category_id": categoryID, "price": 12.75}
	w := httptest.NewRecorder()
	CreateMeal(w, jsonRequest(t, http.MethodPost, "/meals", body))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMealAlreadyOrdered(t *testing.T) {
	mock := setupMock(t)
	mealID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM meals WHERE id = $1`)).
		WithArgs(mealID).
		WillReturnError(&pq.Error{Code: "23503"})

	r := httptest.NewRequest(http.MethodDelete, "/meals/"+mealID.String(), nil)
	r = mux.SetURLVars(r, map[string]string{"id": mealID.String()})
	w := httptest.NewRecorder()
	DeleteMeal(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTags(t *testing.T) {
	mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT tags FROM meals`)).
		WillReturnRows(sqlmock.NewRows([]string{"tags"}).
			AddRow("thai, noodles").
			AddRow("noodles,spicy"))

	w := httptest.NewRecorder()
	ListTags(w, httptest.NewRequest(http.MethodGet, "/tags", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["noodles","spicy","thai"]`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
