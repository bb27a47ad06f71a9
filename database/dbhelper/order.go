package dbhelper

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/models"
)

func CreateOrder(tx *sql.Tx, userID uuid.UUID, orderNumber string, totalAmount float64) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(`
		INSERT INTO orders (user_id, order_number, total_amount, status)
		VALUES ($1, $2, $3, 'Pending')
		RETURNING id`,
		userID, orderNumber, totalAmount).Scan(&id)
	return id, err
}

func CreateOrderItem(tx *sql.Tx, orderID, mealID uuid.UUID, quantity int, price float64) error {
	_, err := tx.Exec(`
		INSERT INTO order_items (order_id, meal_id, quantity, price)
		VALUES ($1, $2, $3, $4)`,
		orderID, mealID, quantity, price)
	return err
}

// GetMealSnapshot reads a meal's current name and price inside the batch
// transaction so the stored totals match what was charged.
func GetMealSnapshot(tx *sql.Tx, mealID uuid.UUID) (string, float64, error) {
	var name string
	var price float64
	err := tx.QueryRow(`SELECT name, price FROM meals WHERE id = $1 AND is_available = TRUE`, mealID).
		Scan(&name, &price)
	return name, price, err
}

func GetOrderByID(id uuid.UUID) (*models.Order, error) {
	row := database.SmartMenu.QueryRow(`
		SELECT id, user_id, order_number, total_amount, status, created_at, updated_at
		FROM orders
		WHERE id = $1`, id)

	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func GetOrderWithItems(id uuid.UUID) (*models.Order, error) {
	order, err := GetOrderByID(id)
	if err != nil {
		return nil, err
	}

	items, err := listItemsForOrders([]uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	return order, nil
}

// ListOrders returns the caller's orders newest first, or every order
// when all is set (admin listing).
func ListOrders(userID uuid.UUID, all bool) ([]models.Order, error) {
	var rows *sql.Rows
	var err error

	if all {
		rows, err = database.SmartMenu.Query(`
			SELECT id, user_id, order_number, total_amount, status, created_at, updated_at
			FROM orders
			ORDER BY created_at DESC`)
	} else {
		rows, err = database.SmartMenu.Query(`
			SELECT id, user_id, order_number, total_amount, status, created_at, updated_at
			FROM orders
			WHERE user_id = $1
			ORDER BY created_at DESC`, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	var ids []uuid.UUID
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Items = []models.OrderItem{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemsByOrder, err := listItemsForOrders(ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if items, ok := itemsByOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return orders, nil
}

func listItemsForOrders(orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	rows, err := database.SmartMenu.Query(`
		SELECT oi.id, oi.order_id, oi.meal_id, m.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN meals m ON m.id = oi.meal_id
		WHERE oi.order_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := make(map[uuid.UUID][]models.OrderItem)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MealID, &it.MealName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	return byOrder, rows.Err()
}

func UpdateOrderStatus(tx *sql.Tx, id uuid.UUID, status models.OrderStatus) error {
	res, err := tx.Exec(`
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CancelOrder flips the status only while the order is still pending;
// the guard lives in the statement so a concurrent admin update cannot
// slip a cancel past a later status.
func CancelOrder(id, userID uuid.UUID) (bool, error) {
	res, err := database.SmartMenu.Exec(`
		UPDATE orders SET status = 'Cancelled', updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = 'Pending'`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
