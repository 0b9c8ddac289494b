package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"revivatech-backend/internal/booking"
	"revivatech-backend/internal/pricing"
	"revivatech-backend/internal/repository"
	"revivatech-backend/internal/security"
	"revivatech-backend/internal/utils"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Manager   *booking.Manager
	Engine    *pricing.Engine
	RulesPath string
	Records   repository.NotificationRepository
	Tokens    security.TokenManager
	Clock     utils.Clock
	WSHandler http.Handler
}

// NewRouter wires all HTTP routes.
func NewRouter(deps RouterDeps) *mux.Router {
	bookings := NewBookingHandler(deps.Manager)
	prices := NewPricingHandler(deps.Engine, deps.RulesPath, deps.Clock)
	notifications := NewNotificationHandler(deps.Records)

	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	router.Use(AuthMiddleware(deps.Tokens))

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/bookings", bookings.Create).Methods("POST")
	api.HandleFunc("/bookings/{id}", bookings.Get).Methods("GET")
	api.HandleFunc("/bookings/{id}/transition", bookings.Transition).Methods("POST")
	api.HandleFunc("/bookings/{id}/cancel", bookings.ForceCancel).Methods("POST")
	api.HandleFunc("/customers/{customerId}/bookings", bookings.ListByCustomer).Methods("GET")

	api.HandleFunc("/quotes", prices.Quote).Methods("POST")
	api.HandleFunc("/admin/pricing/reload", prices.ReloadRules).Methods("POST")

	api.HandleFunc("/users/{userId}/notifications", notifications.ListPending).Methods("GET")
	api.HandleFunc("/admin/notifications/dead-letters", notifications.ListDeadLettered).Methods("GET")

	if deps.WSHandler != nil {
		router.Handle("/ws", deps.WSHandler)
	}

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	return router
}
