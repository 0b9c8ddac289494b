package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"revivatech-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.BookingRepository
	repository.NotificationRepository
	repository.PreferenceRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		BookingRepository:      NewBookingRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		PreferenceRepository:   NewPreferenceRepository(db),
	}
}
