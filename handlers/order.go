package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/smartmenu/config"
	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/database/dbhelper"
	"github.com/ray-remotestate/smartmenu/middlewares"
	"github.com/ray-remotestate/smartmenu/models"
	"github.com/ray-remotestate/smartmenu/telegram"
	"github.com/ray-remotestate/smartmenu/utils"
)

// CreateOrder places a normalized order: one order row plus one row per
// line item, committed together or not at all. The submitted total is
// stored verbatim; the server never recomputes it.
func CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type item struct {
		MealID   uuid.UUID `json:"meal_id"`
		Quantity int       `json:"quantity"`
		Price    *float64  `json:"price"`
	}
	type request struct {
		TotalAmount *float64 `json:"total_amount"`
		Items       []item   `json:"items"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.TotalAmount == nil || *req.TotalAmount < 0 {
		http.Error(w, "total_amount is required", http.StatusUnprocessableEntity)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "at least one item is required", http.StatusUnprocessableEntity)
		return
	}
	for _, it := range req.Items {
		if it.MealID == uuid.Nil || it.Quantity < 1 || it.Price == nil || *it.Price < 0 {
			http.Error(w, "each item needs meal_id, quantity >= 1 and price", http.StatusUnprocessableEntity)
			return
		}
		exists, err := dbhelper.MealExists(it.MealID)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		if !exists {
			http.Error(w, "item references an unknown meal", http.StatusUnprocessableEntity)
			return
		}
	}

	var orderID uuid.UUID
	txErr := database.Tx(func(tx *sql.Tx) error {
		orderID, err = dbhelper.CreateOrder(tx, claims.UserID, utils.NewOrderNumber(), *req.TotalAmount)
		if err != nil {
			return err
		}
		for _, it := range req.Items {
			if err := dbhelper.CreateOrderItem(tx, orderID, it.MealID, it.Quantity, *it.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		logrus.WithError(txErr).Error("order creation failed")
		http.Error(w, "order failed", http.StatusInternalServerError)
		return
	}

	order, err := dbhelper.GetOrderWithItems(orderID)
	if err != nil {
		http.Error(w, "failed to load order", http.StatusInternalServerError)
		return
	}

	// best-effort admin alert, after the commit; never fails the order
	notifyAdminsNewOrder(order, claims.UserID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// BatchCreateOrders keeps the quick-order contract: each submitted item
// becomes its own single-item order with the price snapshotted from the
// meal. The whole batch commits atomically.
func BatchCreateOrders(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type item struct {
		MealID   uuid.UUID `json:"meal_id"`
		Quantity int       `json:"quantity"`
	}
	type request struct {
		Items []item `json:"items"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "at least one item is required", http.StatusUnprocessableEntity)
		return
	}
	for _, it := range req.Items {
		if it.MealID == uuid.Nil || it.Quantity < 1 {
			http.Error(w, "each item needs meal_id and quantity >= 1", http.StatusUnprocessableEntity)
			return
		}
	}

	user, err := dbhelper.GetUserByID(claims.UserID)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}

	type placedOrder struct {
		ID          uuid.UUID          `json:"id"`
		OrderNumber string             `json:"order_number"`
		MealID      uuid.UUID          `json:"meal_id"`
		MealName    string             `json:"meal_name"`
		UserName    string             `json:"user_name"`
		PhoneNumber string             `json:"phone_number,omitempty"`
		Quantity    int                `json:"quantity"`
		TotalAmount float64            `json:"total_amount"`
		Status      models.OrderStatus `json:"status"`
	}

	phone := ""
	if user.PhoneNumber != nil {
		phone = *user.PhoneNumber
	}

	var placed []placedOrder
	txErr := database.Tx(func(tx *sql.Tx) error {
		for _, it := range req.Items {
			mealName, price, err := dbhelper.GetMealSnapshot(tx, it.MealID)
			if err == sql.ErrNoRows {
				return fmt.Errorf("meal %s is not available", it.MealID)
			} else if err != nil {
				return err
			}

			total := price * float64(it.Quantity)
			orderNumber := utils.NewOrderNumber()
			orderID, err := dbhelper.CreateOrder(tx, claims.UserID, orderNumber, total)
			if err != nil {
				return err
			}
			if err := dbhelper.CreateOrderItem(tx, orderID, it.MealID, it.Quantity, price); err != nil {
				return err
			}

			placed = append(placed, placedOrder{
				ID:          orderID,
				OrderNumber: orderNumber,
				MealID:      it.MealID,
				MealName:    mealName,
				UserName:    user.Name,
				PhoneNumber: phone,
				Quantity:    it.Quantity,
				TotalAmount: total,
				Status:      models.StatusPending,
			})
		}
		return nil
	})
	if txErr != nil {
		logrus.WithError(txErr).Error("batch order creation failed")
		http.Error(w, "order failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Orders placed successfully",
		"orders":  placed,
	})
}

// ListOrders shows the caller's own orders; admins get everything.
func ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	isAdmin := middlewares.HasRole(claims, models.RoleAdmin)
	orders, err := dbhelper.ListOrders(claims.UserID, isAdmin)
	if err != nil {
		http.Error(w, "failed to query orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"orders": orders,
	})
}

// UpdateOrderStatus is admin-only (enforced at the route). Any enum
// status is accepted, including moves backward; the owner's in-app
// notification commits in the same transaction as the status write.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	type request struct {
		Status models.OrderStatus `json:"status"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if !req.Status.IsValid() {
		http.Error(w, "status must be one of Pending, Processing, Completed, Cancelled", http.StatusUnprocessableEntity)
		return
	}

	order, err := dbhelper.GetOrderByID(orderID)
	if err == sql.ErrNoRows {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	txErr := database.Tx(func(tx *sql.Tx) error {
		if err := dbhelper.UpdateOrderStatus(tx, orderID, req.Status); err != nil {
			return err
		}
		message := fmt.Sprintf("Your Order %s is now %s", order.OrderNumber, req.Status)
		return dbhelper.CreateNotification(tx, order.UserID, &order.ID, "Order Update", message)
	})
	if txErr != nil {
		logrus.WithError(txErr).Error("status update failed")
		http.Error(w, "failed to update order status", http.StatusInternalServerError)
		return
	}

	order.Status = req.Status
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Order status updated",
		"order":   order,
	})
}

// CancelOrder lets the owner back out of an order that is still
// pending; anything later returns a conflict and leaves it untouched.
func CancelOrder(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := dbhelper.GetOrderByID(orderID)
	if err == sql.ErrNoRows {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if order.UserID != claims.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if order.Status != models.StatusPending {
		http.Error(w, "only pending orders can be cancelled", http.StatusConflict)
		return
	}

	cancelled, err := dbhelper.CancelOrder(orderID, claims.UserID)
	if err != nil {
		http.Error(w, "failed to cancel order", http.StatusInternalServerError)
		return
	}
	if !cancelled {
		// raced with a status change since the read above
		http.Error(w, "only pending orders can be cancelled", http.StatusConflict)
		return
	}

	order.Status = models.StatusCancelled
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Order cancelled",
		"order":   order,
	})
}

func notifyAdminsNewOrder(order *models.Order, userID uuid.UUID) {
	if !telegram.Configured() {
		logrus.Warn("telegram bot token not configured, skipping order alert")
		return
	}

	user, err := dbhelper.GetUserByID(userID)
	if err != nil {
		logrus.WithError(err).Error("failed to load customer for order alert")
		return
	}

	var products strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&products, "   • %s (x%d)\n", it.MealName, it.Quantity)
	}

	message := fmt.Sprintf(
		"🔔 <b>New Order Received!</b>\n🆔 <b>Order:</b> %s\n📦 <b>Products:</b>\n%s👤 <b>Customer:</b> %s\n💰 <b>Total:</b> $%.2f",
		order.OrderNumber, products.String(), user.Name, order.TotalAmount)

	chatIDs := map[string]bool{}
	if config.AdminChatID != "" {
		chatIDs[config.AdminChatID] = true
	}
	adminIDs, err := dbhelper.ListAdminTelegramIDs()
	if err != nil {
		logrus.WithError(err).Error("failed to list admin chat ids")
	}
	for _, id := range adminIDs {
		chatIDs[id] = true
	}

	if len(chatIDs) == 0 {
		logrus.Info("no admin telegram ids found to notify")
		return
	}

	for chatID := range chatIDs {
		if err := telegram.SendMessage(chatID, message); err != nil {
			logrus.WithError(err).WithField("chat_id", chatID).Error("failed to send order alert")
		}
	}
}
