package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/smartmenu/handlers"
	"github.com/ray-remotestate/smartmenu/middlewares"
	"github.com/ray-remotestate/smartmenu/models"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

func SetupRoutes() *Server {
	router := mux.NewRouter()

	// public routes first; the catch-all auth subrouter below picks up
	// everything registered after it
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")

	router.HandleFunc("/register", handlers.Register).Methods("POST")
	router.HandleFunc("/login", handlers.Login).Methods("POST")
	router.HandleFunc("/send-otp", handlers.SendOtp).Methods("POST")
	router.HandleFunc("/verify-otp", handlers.VerifyOtp).Methods("POST")
	router.HandleFunc("/telegram-bot", handlers.GetBotURL).Methods("GET")

	router.HandleFunc("/categories", handlers.ListCategories).Methods("GET")
	router.HandleFunc("/meals", handlers.ListMeals).Methods("GET")
	router.HandleFunc("/tags", handlers.ListTags).Methods("GET")

	authRoutes := router.PathPrefix("/").Subrouter()
	authRoutes.Use(middlewares.AuthMiddleware)
	adminOnly := middlewares.RoleBasedMiddleware(models.RoleAdmin)

	authRoutes.HandleFunc("/logout", handlers.Logout).Methods("POST")
	authRoutes.HandleFunc("/user", handlers.CurrentUser).Methods("GET")
	authRoutes.HandleFunc("/user/update", handlers.UpdateProfile).Methods("PUT")
	authRoutes.Handle("/users", adminOnly(http.HandlerFunc(handlers.ListUsers))).Methods("GET")

	// admin catalog mutations
	authRoutes.Handle("/categories", adminOnly(http.HandlerFunc(handlers.CreateCategory))).Methods("POST")
	authRoutes.Handle("/categories/{id}", adminOnly(http.HandlerFunc(handlers.UpdateCategory))).Methods("PUT")
	authRoutes.Handle("/categories/{id}", adminOnly(http.HandlerFunc(handlers.DeleteCategory))).Methods("DELETE")
	authRoutes.Handle("/meals", adminOnly(http.HandlerFunc(handlers.CreateMeal))).Methods("POST")
	authRoutes.Handle("/meals/{id}", adminOnly(http.HandlerFunc(handlers.UpdateMeal))).Methods("PUT")
	authRoutes.Handle("/meals/{id}", adminOnly(http.HandlerFunc(handlers.DeleteMeal))).Methods("DELETE")

	// orders
	authRoutes.HandleFunc("/orders", handlers.ListOrders).Methods("GET")
	authRoutes.HandleFunc("/orders", handlers.CreateOrder).Methods("POST")
	authRoutes.HandleFunc("/orders/batch", handlers.BatchCreateOrders).Methods("POST")
	authRoutes.Handle("/orders/{id}", adminOnly(http.HandlerFunc(handlers.UpdateOrderStatus))).Methods("PUT", "PATCH")
	authRoutes.HandleFunc("/orders/{id}/cancel", handlers.CancelOrder).Methods("DELETE")
	authRoutes.Handle("/admin/orders", adminOnly(http.HandlerFunc(handlers.ListOrders))).Methods("GET")

	// favorites
	authRoutes.HandleFunc("/favorites", handlers.ListFavorites).Methods("GET")
	authRoutes.HandleFunc("/favorites", handlers.AddFavorite).Methods("POST")
	authRoutes.HandleFunc("/favorites/{mealId}", handlers.RemoveFavorite).Methods("DELETE")

	// notifications
	authRoutes.HandleFunc("/notifications", handlers.ListNotifications).Methods("GET")
	authRoutes.HandleFunc("/notifications/mark-all-read", handlers.MarkAllNotificationsRead).Methods("POST")
	authRoutes.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods("POST")

	return &Server{
		Router: router,
	}
}

func (svr *Server) Run(port string) error {
	svr.server = &http.Server{
		Addr:              ":" + port,
		Handler:           svr.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
