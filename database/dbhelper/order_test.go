package dbhelper

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/models"
)

func TestCancelOrderOnlyWhilePending(t *testing.T) {
	mock := setupMock(t)
	orderID, userID := uuid.New(), uuid.New()

	// status guard is part of the statement, so a non-pending order
	// simply matches no rows
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = 'Cancelled'`)).
		WithArgs(orderID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	cancelled, err := CancelOrder(orderID, userID)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderPending(t *testing.T) {
	mock := setupMock(t)
	orderID, userID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = 'Cancelled'`)).
		WithArgs(orderID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cancelled, err := CancelOrder(orderID, userID)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersScopesToOwner(t *testing.T) {
	mock := setupMock(t)
	userID := uuid.New()
	orderID := uuid.New()
	now := time.Now()

	orderRows := sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"}).
		AddRow(orderID.String(), userID.String(), "#ORD-ABCDEF123456", 25.50, "Pending", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1`)).
		WithArgs(userID).
		WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{"id", "order_id", "meal_id", "name", "quantity", "price"}).
		AddRow(uuid.NewString(), orderID.String(), uuid.NewString(), "Pad Thai", 2, 12.75)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items oi`)).
		WillReturnRows(itemRows)

	orders, err := ListOrders(userID, false)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusPending, orders[0].Status)
	assert.Equal(t, 25.50, orders[0].TotalAmount)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Pad Thai", orders[0].Items[0].MealName)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersAdminSeesAll(t *testing.T) {
	mock := setupMock(t)

	orderRows := sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "created_at", "updated_at"})

	// admin listing has no user filter
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders
			ORDER BY created_at DESC`)).
		WillReturnRows(orderRows)

	orders, err := ListOrders(uuid.New(), true)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderWithItemsRollsBackTogether(t *testing.T) {
	mock := setupMock(t)
	userID := uuid.New()
	orderID := uuid.New()
	mealID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(userID, "#ORD-TEST00000001", 25.50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID.String()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs(orderID, mealID, 2, 12.75).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := database.Tx(func(tx *sql.Tx) error {
		id, err := CreateOrder(tx, userID, "#ORD-TEST00000001", 25.50)
		if err != nil {
			return err
		}
		return CreateOrderItem(tx, id, mealID, 2, 12.75)
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
