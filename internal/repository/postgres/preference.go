package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/repository"
)

type preferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetByUserID(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	query := `SELECT user_id, channels, quiet_start, quiet_end, timezone, email, phone, push_token
	          FROM notification_preferences WHERE user_id = $1`

	var p domain.NotificationPreference
	var channels []byte
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &channels, &p.QuietStart, &p.QuietEnd, &p.Timezone, &p.Email, &p.Phone, &p.PushToken)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Resource: "notification_preference", ID: userID}
	}
	if err != nil {
		return nil, err
	}

	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &p.Channels); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
