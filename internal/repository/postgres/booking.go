package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "bookingID", b.ID, "customerID", b.CustomerID)

	options, err := json.Marshal(b.Options)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "reason", "failed to marshal options")
		return err
	}
	history, err := json.Marshal(b.StatusHistory)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "reason", "failed to marshal status history")
		return err
	}
	estimate, err := marshalEstimate(b.Estimate)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "reason", "failed to marshal estimate")
		return err
	}

	query := `INSERT INTO bookings (id, customer_id, brand, model, category, age_years, repair_type, options,
	                  demand_factor, status, base_price_pence, final_price_pence, estimate, status_history, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	logger.DatabaseCall("INSERT", "bookings", "bookingID", b.ID)

	_, err = r.db.ExecContext(ctx, query,
		b.ID, b.CustomerID,
		b.Device.Brand, b.Device.Model, b.Device.Category, b.Device.AgeYears,
		b.RepairType, options, b.DemandFactor,
		b.Status, b.BasePricePence, b.FinalPricePence,
		estimate, history, b.CreatedOn, b.UpdatedOn)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", b.ID)

	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "bookingID", b.ID)
	} else {
		logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	}
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT id, customer_id, brand, model, category, age_years, repair_type, options,
	                 demand_factor, status, base_price_pence, final_price_pence, estimate, status_history, created_on, updated_on
	          FROM bookings WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Resource: "booking", ID: id}
	}
	return b, err
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	history, err := json.Marshal(b.StatusHistory)
	if err != nil {
		return err
	}
	estimate, err := marshalEstimate(b.Estimate)
	if err != nil {
		return err
	}

	query := `UPDATE bookings
	          SET status = $2, base_price_pence = $3, final_price_pence = $4,
	              estimate = $5, status_history = $6, updated_on = $7
	          WHERE id = $1`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "status", b.Status)

	result, err := r.db.ExecContext(ctx, query,
		b.ID, b.Status, b.BasePricePence, b.FinalPricePence, estimate, history, b.UpdatedOn)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", b.ID)
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "bookingID", b.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return &domain.NotFoundError{Resource: "booking", ID: b.ID}
	}
	return nil
}

func (r *bookingRepository) ListByCustomer(ctx context.Context, customerID string, page, pageSize int32) ([]domain.Booking, int32, error) {
	offset := (page - 1) * pageSize

	query := `SELECT id, customer_id, brand, model, category, age_years, repair_type, options,
	                 demand_factor, status, base_price_pence, final_price_pence, estimate, status_history, created_on, updated_on
	          FROM bookings WHERE customer_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, customerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var count int32
	countQuery := `SELECT count(*) FROM bookings WHERE customer_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, customerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, count, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var options, history []byte
	var estimate sql.NullString

	err := row.Scan(&b.ID, &b.CustomerID,
		&b.Device.Brand, &b.Device.Model, &b.Device.Category, &b.Device.AgeYears,
		&b.RepairType, &options, &b.DemandFactor,
		&b.Status, &b.BasePricePence, &b.FinalPricePence,
		&estimate, &history, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}

	if len(options) > 0 {
		if err := json.Unmarshal(options, &b.Options); err != nil {
			return nil, err
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &b.StatusHistory); err != nil {
			return nil, err
		}
	}
	if estimate.Valid && estimate.String != "" {
		b.Estimate = &domain.PriceEstimate{}
		if err := json.Unmarshal([]byte(estimate.String), b.Estimate); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func marshalEstimate(e *domain.PriceEstimate) (any, error) {
	if e == nil {
		return nil, nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
