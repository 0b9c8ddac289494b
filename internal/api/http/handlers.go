package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"revivatech-backend/internal/booking"
	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/pricing"
	"revivatech-backend/internal/repository"
	"revivatech-backend/internal/utils"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	manager *booking.Manager
}

func NewBookingHandler(manager *booking.Manager) *BookingHandler {
	return &BookingHandler{manager: manager}
}

type createBookingRequest struct {
	CustomerID   string                `json:"customer_id"`
	Device       domain.Device         `json:"device"`
	RepairType   string                `json:"repair_type"`
	Options      domain.ServiceOptions `json:"options"`
	DemandFactor float64               `json:"demand_factor,omitempty"`
	Note         string                `json:"note,omitempty"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	b, err := h.manager.Create(r.Context(), booking.CreateRequest{
		CustomerID:   req.CustomerID,
		Device:       req.Device,
		RepairType:   req.RepairType,
		Options:      req.Options,
		DemandFactor: req.DemandFactor,
		Actor:        actorFrom(r, req.CustomerID),
		Note:         req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b, err := h.manager.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerId"]
	page, pageSize := pagination(r)

	bookings, total, err := h.manager.ListByCustomer(r.Context(), customerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": bookings,
		"total":    total,
		"page":     page,
	})
}

type transitionRequest struct {
	Status domain.BookingStatus `json:"status"`
	Note   string               `json:"note,omitempty"`
}

func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	b, err := h.manager.Transition(r.Context(), id, req.Status, actorFrom(r, "anonymous"), req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) ForceCancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	b, err := h.manager.ForceCancel(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// PricingHandler exposes quote previews and rule reloading.
type PricingHandler struct {
	engine    *pricing.Engine
	rulesPath string
	clock     utils.Clock
}

func NewPricingHandler(engine *pricing.Engine, rulesPath string, clock utils.Clock) *PricingHandler {
	return &PricingHandler{engine: engine, rulesPath: rulesPath, clock: clock}
}

type quoteRequest struct {
	Device       domain.Device         `json:"device"`
	RepairType   string                `json:"repair_type"`
	Options      domain.ServiceOptions `json:"options"`
	DemandFactor float64               `json:"demand_factor,omitempty"`
}

// Quote prices a repair without creating a booking.
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	if req.Options.Quantity < 1 {
		req.Options.Quantity = 1
	}

	estimate, err := h.engine.Calculate(req.Device, req.RepairType, pricing.QuoteContext{
		Options:      req.Options,
		DemandFactor: req.DemandFactor,
		At:           h.clock.Now(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

// ReloadRules re-reads the rule file and atomically swaps the engine's
// snapshot. In-flight estimates keep the old rules.
func (h *PricingHandler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ruleSet, err := pricing.LoadRuleSet(h.rulesPath)
	if err != nil {
		writeError(w, err)
		return
	}
	h.engine.Reload(ruleSet)

	logger.Info("Pricing rules reloaded", "path", h.rulesPath, "rules", len(ruleSet.Rules()))
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"rules":    len(ruleSet.Rules()),
	})
}

// NotificationHandler exposes the operator view of the dispatch queue.
type NotificationHandler struct {
	records repository.NotificationRepository
}

func NewNotificationHandler(records repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{records: records}
}

func (h *NotificationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	recipient := mux.Vars(r)["userId"]
	pending, err := h.records.ListPendingInApp(r.Context(), recipient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": pending})
}

func (h *NotificationHandler) ListDeadLettered(w http.ResponseWriter, r *http.Request) {
	dead, err := h.records.ListDeadLettered(r.Context(), 100)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": dead})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var validation *domain.ValidationError
	var transition *domain.InvalidTransitionError
	var notFound *domain.NotFoundError
	var config *domain.ConfigurationError

	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &transition):
		status = http.StatusConflict
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &config):
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pagination(r *http.Request) (page, pageSize int32) {
	page, pageSize = 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
