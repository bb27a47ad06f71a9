package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusCompleted  OrderStatus = "Completed"
	StatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	UserID      uuid.UUID   `db:"user_id" json:"user_id"`
	OrderNumber string      `db:"order_number" json:"order_number"`
	TotalAmount float64     `db:"total_amount" json:"total_amount"`
	Status      OrderStatus `db:"status" json:"status"`
	Items       []OrderItem `db:"-" json:"items"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderItem carries a price snapshot taken at order time; later meal
// price changes never touch it.
type OrderItem struct {
	ID       uuid.UUID `db:"id" json:"id"`
	OrderID  uuid.UUID `db:"order_id" json:"order_id"`
	MealID   uuid.UUID `db:"meal_id" json:"meal_id"`
	MealName string    `db:"-" json:"meal,omitempty"`
	Quantity int       `db:"quantity" json:"quantity"`
	Price    float64   `db:"price" json:"price"`
}
