package repository

import (
	"context"
	"time"

	"revivatech-backend/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// Update persists the booking's status, prices, estimate, and history in
	// one statement. The lifecycle manager serializes calls per booking id,
	// so Update never races with itself for the same booking.
	Update(ctx context.Context, booking *domain.Booking) error
	ListByCustomer(ctx context.Context, customerID string, page, pageSize int32) ([]domain.Booking, int32, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, rec *domain.NotificationRecord) error
	GetByID(ctx context.Context, id string) (*domain.NotificationRecord, error)
	Update(ctx context.Context, rec *domain.NotificationRecord) error
	// ListDue returns pending and retrying records whose next attempt time
	// has passed, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int32) ([]domain.NotificationRecord, error)
	// ListPendingInApp returns undelivered in-app records for a recipient,
	// flushed when the recipient reconnects.
	ListPendingInApp(ctx context.Context, recipient string) ([]domain.NotificationRecord, error)
	ListDeadLettered(ctx context.Context, limit int32) ([]domain.NotificationRecord, error)
}

type PreferenceRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.NotificationPreference, error)
}
