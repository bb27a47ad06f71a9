package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/middlewares"
	"github.com/ray-remotestate/smartmenu/models"
)

func setupMock(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	database.SmartMenu = db
	return mock
}

func authedRequest(t *testing.T, method, target string, body interface{}, userID uuid.UUID, roles ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	claims := &middlewares.Claims{UserID: userID, Roles: roles}
	return r.WithContext(middlewares.WithAuthenticatedUser(r.Context(), claims))
}

func userRow(userID uuid.UUID, name, email, role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "phone_number", "password", "role",
		"telegram_id", "otp_code", "otp_expires_at", "created_at", "archived_at"}).
		AddRow(userID.String(), name, email, nil, "hash", role, nil, nil, nil, time.Now(), nil)
}

func TestCreateOrder(t *testing.T) {
	mock := setupMock(t)
	userID, mealID, orderID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM meals`)).
		WithArgs(mealID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(userID, sqlmock.AnyArg(), 25.50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID.String()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs(orderID, mealID, 2, 12.75).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders
		WHERE id = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"}).
			AddRow(orderID.String(), userID.String(), "#ORD-ABCDEF123456", 25.50, "Pending", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items oi`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "meal_id", "name", "quantity", "price"}).
			AddRow(uuid.NewString(), orderID.String(), mealID.String(), "Pad Thai", 2, 12.75))

	body := map[string]interface{}{
		"total_amount": 25.50,
		"items": []map[string]interface{}{
			{"meal_id": mealID, "quantity": 2, "price": 12.75},
		},
	}
	w := httptest.NewRecorder()
	CreateOrder(w, authedRequest(t, http.MethodPost, "/orders", body, userID, "user"))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, models.StatusPending, resp.Order.Status)
	assert.Equal(t, 25.50, resp.Order.TotalAmount)
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, 2, resp.Order.Items[0].Quantity)
	assert.Equal(t, 12.75, resp.Order.Items[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnknownMeal(t *testing.T) {
	mock := setupMock(t)
	userID, mealID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM meals`)).
		WithArgs(mealID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	body := map[string]interface{}{
		"total_amount": 10.0,
		"items": []map[string]interface{}{
			{"meal_id": mealID, "quantity": 1, "price": 10.0},
		},
	}
	w := httptest.NewRecorder()
	CreateOrder(w, authedRequest(t, http.MethodPost, "/orders", body, userID, "user"))

	// nothing is written: no Begin was ever expected
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBackOnItemFailure(t *testing.T) {
	mock := setupMock(t)
	userID, mealID, orderID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM meals`)).
		WithArgs(mealID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(userID, sqlmock.AnyArg(), 10.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID.String()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	body := map[string]interface{}{
		"total_amount": 10.0,
		"items": []map[string]interface{}{
			{"meal_id": mealID, "quantity": 1, "price": 10.0},
		},
	}
	w := httptest.NewRecorder()
	CreateOrder(w, authedRequest(t, http.MethodPost, "/orders", body, userID, "user"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderValidation(t *testing.T) {
	setupMock(t)
	userID := uuid.New()

	cases := []map[string]interface{}{
		{"items": []map[string]interface{}{{"meal_id": uuid.New(), "quantity": 1, "price": 5.0}}}, // missing total
		{"total_amount": 5.0, "items": []map[string]interface{}{}},                                // empty items
		{"total_amount": 5.0, "items": []map[string]interface{}{{"meal_id": uuid.New(), "quantity": 0, "price": 5.0}}},
		{"total_amount": 5.0, "items": []map[string]interface{}{{"meal_id": uuid.New(), "quantity": 1}}}, // missing price
	}

	for _, body := range cases {
		w := httptest.NewRecorder()
		CreateOrder(w, authedRequest(t, http.MethodPost, "/orders", body, userID, "user"))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	mock := setupMock(t)
	adminID, ownerID, orderID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders
		WHERE id = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"}).
			AddRow(orderID.String(), ownerID.String(), "#ORD-ABCDEF123456", 25.50, "Pending", now, now))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2`)).
		WithArgs(orderID, models.StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WithArgs(ownerID, orderID, "Order Update", "Your Order #ORD-ABCDEF123456 is now Processing").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := authedRequest(t, http.MethodPatch, "/orders/"+orderID.String(), map[string]string{"status": "Processing"}, adminID, "admin")
	r = mux.SetURLVars(r, map[string]string{"id": orderID.String()})
	w := httptest.NewRecorder()
	UpdateOrderStatus(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, models.StatusProcessing, resp.Order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	setupMock(t)
	orderID := uuid.New()

	r := authedRequest(t, http.MethodPatch, "/orders/"+orderID.String(), map[string]string{"status": "Shipped"}, uuid.New(), "admin")
	r = mux.SetURLVars(r, map[string]string{"id": orderID.String()})
	w := httptest.NewRecorder()
	UpdateOrderStatus(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCancelOrder(t *testing.T) {
	mock := setupMock(t)
	userID, orderID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders
		WHERE id = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"}).
			AddRow(orderID.String(), userID.String(), "#ORD-ABCDEF123456", 25.50, "Pending", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = 'Cancelled'`)).
		WithArgs(orderID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := authedRequest(t, http.MethodDelete, "/orders/"+orderID.String()+"/cancel", nil, userID, "user")
	r = mux.SetURLVars(r, map[string]string{"id": orderID.String()})
	w := httptest.NewRecorder()
	CancelOrder(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, models.StatusCancelled, resp.Order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderConflictAfterPending(t *testing.T) {
	mock := setupMock(t)
	userID, orderID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders
		WHERE id = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"}).
			AddRow(orderID.String(), userID.String(), "#ORD-ABCDEF123456", 25.50, "Processing", now, now))

	r := authedRequest(t, http.MethodDelete, "/orders/"+orderID.String()+"/cancel", nil, userID, "user")
	r = mux.SetURLVars(r, map[string]string{"id": orderID.String()})
	w := httptest.NewRecorder()
	CancelOrder(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderForbiddenForNonOwner(t *testing.T) {
	mock := setupMock(t)
	ownerID, otherID, orderID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders
		WHERE id = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"}).
			AddRow(orderID.String(), ownerID.String(), "#ORD-ABCDEF123456", 25.50, "Pending", now, now))

	r := authedRequest(t, http.MethodDelete, "/orders/"+orderID.String()+"/cancel", nil, otherID, "user")
	r = mux.SetURLVars(r, map[string]string{"id": orderID.String()})
	w := httptest.NewRecorder()
	CancelOrder(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchCreateOrdersIsAtomic(t *testing.T) {
	mock := setupMock(t)
	userID := uuid.New()
	mealA, mealB := uuid.New(), uuid.New()
	orderA := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users
		WHERE id = $1`)).
		WithArgs(userID).
		WillReturnRows(userRow(userID, "Alice", "alice@example.com", "user"))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, price FROM meals`)).
		WithArgs(mealA).
		WillReturnRows(sqlmock.NewRows([]string{"name", "price"}).AddRow("Pad Thai", 12.75))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(userID, sqlmock.AnyArg(), 25.50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderA.String()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs(orderA, mealA, 2, 12.75).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// second item references an unavailable meal; everything unwinds
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, price FROM meals`)).
		WithArgs(mealB).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"meal_id": mealA, "quantity": 2},
			{"meal_id": mealB, "quantity": 1},
		},
	}
	w := httptest.NewRecorder()
	BatchCreateOrders(w, authedRequest(t, http.MethodPost, "/orders/batch", body, userID, "user"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersAsUser(t *testing.T) {
	mock := setupMock(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"}))

	w := httptest.NewRecorder()
	ListOrders(w, authedRequest(t, http.MethodGet, "/orders", nil, userID, "user"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"orders":[]}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
