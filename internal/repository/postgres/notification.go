package postgres

import (
	"context"
	"database/sql"
	"time"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.NotificationRecord) error {
	logger.EnterMethod("notificationRepository.Create", "notificationID", n.ID, "channel", n.Channel)

	query := `INSERT INTO notifications (id, booking_id, recipient, channel, title, message,
	                  booking_status, urgent, status, attempts, next_attempt_at, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	logger.DatabaseCall("INSERT", "notifications", "notificationID", n.ID)

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.BookingID, n.Recipient, n.Channel, n.Title, n.Message,
		n.BookingStatus, n.Urgent, n.Status, n.Attempts, n.NextAttemptAt, n.CreatedOn, n.UpdatedOn)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "notificationID", n.ID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.NotificationRecord, error) {
	query := selectNotification + ` WHERE id = $1`

	var n domain.NotificationRecord
	err := r.db.QueryRowContext(ctx, query, id).Scan(notificationFields(&n)...)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Resource: "notification", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *domain.NotificationRecord) error {
	query := `UPDATE notifications
	          SET status = $2, attempts = $3, next_attempt_at = $4, updated_on = $5
	          WHERE id = $1`
	logger.DatabaseCall("UPDATE", "notifications", "notificationID", n.ID, "status", n.Status)

	result, err := r.db.ExecContext(ctx, query, n.ID, n.Status, n.Attempts, n.NextAttemptAt, n.UpdatedOn)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "notificationID", n.ID)
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "notificationID", n.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return &domain.NotFoundError{Resource: "notification", ID: n.ID}
	}
	return nil
}

func (r *notificationRepository) ListDue(ctx context.Context, now time.Time, limit int32) ([]domain.NotificationRecord, error) {
	query := selectNotification + `
	          WHERE status IN ('PENDING', 'RETRYING')
	            AND channel <> 'in_app'
	            AND next_attempt_at <= $1
	          ORDER BY next_attempt_at ASC
	          LIMIT $2`
	return r.list(ctx, query, now, limit)
}

func (r *notificationRepository) ListPendingInApp(ctx context.Context, recipient string) ([]domain.NotificationRecord, error) {
	query := selectNotification + `
	          WHERE channel = 'in_app' AND recipient = $1 AND status = 'PENDING'
	          ORDER BY created_on ASC`
	return r.list(ctx, query, recipient)
}

func (r *notificationRepository) ListDeadLettered(ctx context.Context, limit int32) ([]domain.NotificationRecord, error) {
	query := selectNotification + `
	          WHERE status = 'DEAD_LETTERED'
	          ORDER BY updated_on DESC
	          LIMIT $1`
	return r.list(ctx, query, limit)
}

const selectNotification = `SELECT id, booking_id, recipient, channel, title, message,
	                 booking_status, urgent, status, attempts, next_attempt_at, created_on, updated_on
	          FROM notifications`

func (r *notificationRepository) list(ctx context.Context, query string, args ...any) ([]domain.NotificationRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.NotificationRecord
	for rows.Next() {
		var n domain.NotificationRecord
		if err := rows.Scan(notificationFields(&n)...); err != nil {
			return nil, err
		}
		records = append(records, n)
	}
	return records, rows.Err()
}

func notificationFields(n *domain.NotificationRecord) []any {
	return []any{&n.ID, &n.BookingID, &n.Recipient, &n.Channel, &n.Title, &n.Message,
		&n.BookingStatus, &n.Urgent, &n.Status, &n.Attempts, &n.NextAttemptAt, &n.CreatedOn, &n.UpdatedOn}
}
