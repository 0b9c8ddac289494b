package booking

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/pricing"
	"revivatech-backend/internal/repository"
	"revivatech-backend/internal/utils"
)

// EventHandler consumes accepted transitions. Handlers must not block: the
// manager invokes them while holding the booking's serialization lock so
// per-booking event order matches transition order.
type EventHandler func(domain.BookingStatusChanged)

// Manager owns the booking state machine. All status mutations go through
// Transition; transitions for the same booking id are serialized, while
// different bookings proceed fully in parallel.
type Manager struct {
	repo     repository.BookingRepository
	engine   *pricing.Engine
	clock    utils.Clock
	handlers []EventHandler

	locks sync.Map // booking id -> *sync.Mutex
}

func NewManager(repo repository.BookingRepository, engine *pricing.Engine, clock utils.Clock) *Manager {
	return &Manager{
		repo:   repo,
		engine: engine,
		clock:  clock,
	}
}

// OnStatusChanged registers an event consumer. Registration happens once at
// wiring time, before any transition runs.
func (m *Manager) OnStatusChanged(h EventHandler) {
	m.handlers = append(m.handlers, h)
}

// CreateRequest carries the inputs for a new booking.
type CreateRequest struct {
	CustomerID   string
	Device       domain.Device
	RepairType   string
	Options      domain.ServiceOptions
	DemandFactor float64
	Actor        string
	Note         string
}

// Create opens a new booking in PENDING with a fresh price estimate.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*domain.Booking, error) {
	logger.EnterMethod("Manager.Create", "customer_id", req.CustomerID, "repair_type", req.RepairType)

	if req.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Reason: "required"}
	}
	if req.RepairType == "" {
		return nil, &domain.ValidationError{Field: "repair_type", Reason: "required"}
	}
	if req.Options.Quantity == 0 {
		req.Options.Quantity = 1
	}

	now := m.clock.Now().UTC()
	est, err := m.engine.Calculate(req.Device, req.RepairType, pricing.QuoteContext{
		Options:      req.Options,
		DemandFactor: req.DemandFactor,
		At:           now,
	})
	if err != nil {
		logger.ExitMethodWithError("Manager.Create", err)
		return nil, err
	}

	b := &domain.Booking{
		ID:              uuid.NewString(),
		CustomerID:      req.CustomerID,
		Device:          req.Device,
		RepairType:      req.RepairType,
		Options:         req.Options,
		DemandFactor:    req.DemandFactor,
		Status:          domain.BookingStatusPending,
		BasePricePence:  est.BasePricePence,
		FinalPricePence: est.FinalPricePence,
		Estimate:        est,
		StatusHistory: []domain.StatusChange{{
			Status: domain.BookingStatusPending,
			At:     now,
			Actor:  req.Actor,
			Note:   req.Note,
		}},
		CreatedOn: now,
		UpdatedOn: now,
	}

	if err := m.repo.Create(ctx, b); err != nil {
		logger.ExitMethodWithError("Manager.Create", err, "booking_id", b.ID)
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	m.emit(domain.BookingStatusChanged{
		Booking:    *b,
		To:         domain.BookingStatusPending,
		Actor:      req.Actor,
		Note:       req.Note,
		Progress:   Progress(domain.BookingStatusPending),
		OccurredAt: now,
	})

	logger.ExitMethod("Manager.Create", "booking_id", b.ID)
	return b, nil
}

// Get loads a booking.
func (m *Manager) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return m.repo.GetByID(ctx, bookingID)
}

// ListByCustomer returns a customer's bookings.
func (m *Manager) ListByCustomer(ctx context.Context, customerID string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return m.repo.ListByCustomer(ctx, customerID, page, pageSize)
}

// Transition moves a booking to a direct successor status (or CANCELLED) and
// emits a BookingStatusChanged event. An illegal edge fails with
// InvalidTransitionError and leaves the booking untouched.
func (m *Manager) Transition(ctx context.Context, bookingID string, target domain.BookingStatus, actor, note string) (*domain.Booking, error) {
	logger.EnterMethod("Manager.Transition", "booking_id", bookingID, "target", target)

	if !KnownStatus(target) {
		return nil, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", target)}
	}

	unlock := m.lock(bookingID)
	defer unlock()

	b, err := m.repo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("Manager.Transition", err, "booking_id", bookingID)
		return nil, err
	}

	from := b.Status
	if !CanTransition(from, target) {
		err := &domain.InvalidTransitionError{From: from, To: target}
		logger.ExitMethodWithError("Manager.Transition", err, "booking_id", bookingID)
		return nil, err
	}

	now := m.clock.Now().UTC()

	// Approving a quote refreshes the estimate unless one already exists;
	// the pricing inputs, demand factor included, are persisted on the
	// booking, so an existing estimate means an identical recompute and is
	// skipped.
	if from == domain.BookingStatusQuotePending && target == domain.BookingStatusQuoteApproved && b.Estimate == nil {
		est, err := m.engine.Calculate(b.Device, b.RepairType, pricing.QuoteContext{
			Options:      b.Options,
			DemandFactor: b.DemandFactor,
			At:           b.CreatedOn,
		})
		if err != nil {
			logger.ExitMethodWithError("Manager.Transition", err, "booking_id", bookingID)
			return nil, fmt.Errorf("quote recompute failed: %w", err)
		}
		b.Estimate = est
		b.BasePricePence = est.BasePricePence
		b.FinalPricePence = est.FinalPricePence
	}

	b.Status = target
	b.StatusHistory = append(b.StatusHistory, domain.StatusChange{
		Status: target,
		At:     now,
		Actor:  actor,
		Note:   note,
	})
	b.UpdatedOn = now

	if err := m.repo.Update(ctx, b); err != nil {
		logger.ExitMethodWithError("Manager.Transition", err, "booking_id", bookingID)
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}

	m.emit(domain.BookingStatusChanged{
		Booking:    *b,
		From:       from,
		To:         target,
		Actor:      actor,
		Note:       note,
		Progress:   Progress(target),
		Urgent:     target == domain.BookingStatusCancelled,
		OccurredAt: now,
	})

	logger.ExitMethod("Manager.Transition", "booking_id", bookingID, "from", from, "to", target)
	return b, nil
}

// ForceCancel terminates a booking regardless of its position in the flow.
// Operator surface; stamps the system actor.
func (m *Manager) ForceCancel(ctx context.Context, bookingID, reason string) (*domain.Booking, error) {
	return m.Transition(ctx, bookingID, domain.BookingStatusCancelled, "system", reason)
}

// lock acquires the per-booking serialization point.
func (m *Manager) lock(bookingID string) func() {
	mu, _ := m.locks.LoadOrStore(bookingID, &sync.Mutex{})
	l := mu.(*sync.Mutex)
	l.Lock()
	return l.Unlock
}

func (m *Manager) emit(event domain.BookingStatusChanged) {
	for _, h := range m.handlers {
		h(event)
	}
}
