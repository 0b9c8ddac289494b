package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/repository/postgres"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *postgres.Store) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return mock, postgres.NewStore(db)
}

func sampleBooking() *domain.Booking {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:         "bk-1",
		CustomerID: "cust-1",
		Device: domain.Device{
			Brand:    "Apple",
			Model:    "iPhone 14",
			Category: domain.DeviceCategorySmartphone,
			AgeYears: 2,
		},
		RepairType:      "screen replacement",
		Options:         domain.ServiceOptions{Quantity: 1},
		Status:          domain.BookingStatusPending,
		BasePricePence:  30000,
		FinalPricePence: 30000,
		StatusHistory: []domain.StatusChange{
			{Status: domain.BookingStatusPending, At: created, Actor: "cust-1"},
		},
		CreatedOn: created,
		UpdatedOn: created,
	}
}

func TestBookingRepository_Create(t *testing.T) {
	mock, store := newMock(t)
	b := sampleBooking()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(b.ID, b.CustomerID, "Apple", "iPhone 14", sqlmock.AnyArg(), 2,
			"screen replacement", sqlmock.AnyArg(), b.DemandFactor, sqlmock.AnyArg(),
			b.BasePricePence, b.FinalPricePence, nil, sqlmock.AnyArg(),
			b.CreatedOn, b.UpdatedOn).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.BookingRepository.Create(context.Background(), b)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_GetByID(t *testing.T) {
	mock, store := newMock(t)
	b := sampleBooking()

	options, _ := json.Marshal(b.Options)
	history, _ := json.Marshal(b.StatusHistory)
	rows := sqlmock.NewRows([]string{
		"id", "customer_id", "brand", "model", "category", "age_years", "repair_type", "options",
		"demand_factor", "status", "base_price_pence", "final_price_pence", "estimate", "status_history", "created_on", "updated_on",
	}).AddRow(b.ID, b.CustomerID, "Apple", "iPhone 14", "smartphone", 2, b.RepairType, options,
		b.DemandFactor, string(b.Status), b.BasePricePence, b.FinalPricePence, nil, history, b.CreatedOn, b.UpdatedOn)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("bk-1").
		WillReturnRows(rows)

	got, err := store.BookingRepository.GetByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, domain.BookingStatusPending, got.Status)
	assert.Nil(t, got.Estimate)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, domain.BookingStatusPending, got.StatusHistory[0].Status)
}

func TestBookingRepository_GetByID_NotFound(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.BookingRepository.GetByID(context.Background(), "missing")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "booking", notFound.Resource)
}

func TestBookingRepository_Update_MissingRowIsNotFound(t *testing.T) {
	mock, store := newMock(t)
	b := sampleBooking()

	mock.ExpectExec("UPDATE bookings").
		WithArgs(b.ID, sqlmock.AnyArg(), b.BasePricePence, b.FinalPricePence,
			sqlmock.AnyArg(), sqlmock.AnyArg(), b.UpdatedOn).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.BookingRepository.Update(context.Background(), b)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestNotificationRepository_ListDue(t *testing.T) {
	mock, store := newMock(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "booking_id", "recipient", "channel", "title", "message",
		"booking_status", "urgent", "status", "attempts", "next_attempt_at", "created_on", "updated_on",
	}).AddRow("n-1", "bk-1", "customer@example.com", "email", "Device received", "msg",
		"DEVICE_RECEIVED", false, "PENDING", 0, now.Add(-time.Minute), now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM notifications").
		WithArgs(now, int32(50)).
		WillReturnRows(rows)

	due, err := store.NotificationRepository.ListDue(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "n-1", due[0].ID)
	assert.Equal(t, domain.NotificationChannelEmail, due[0].Channel)
	assert.Equal(t, domain.NotificationStatusPending, due[0].Status)
}

func TestNotificationRepository_Update(t *testing.T) {
	mock, store := newMock(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rec := &domain.NotificationRecord{
		ID:            "n-1",
		Status:        domain.NotificationStatusRetrying,
		Attempts:      2,
		NextAttemptAt: now.Add(2 * time.Minute),
		UpdatedOn:     now,
	}

	mock.ExpectExec("UPDATE notifications").
		WithArgs(rec.ID, string(rec.Status), rec.Attempts, rec.NextAttemptAt, rec.UpdatedOn).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.NotificationRepository.Update(context.Background(), rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepository_GetByUserID_NotFound(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM notification_preferences").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := store.PreferenceRepository.GetByUserID(context.Background(), "ghost")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
