package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// BookingRepo persists bookings.
type BookingRepo struct {
	db *sqlx.DB
}

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts b and sets its ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (passenger_id, payment_id, created_at) VALUES (?, ?, ?)`
	id, err := lastID(tx.ExecContext(ctx, q, b.PassengerID, b.PaymentID, b.CreatedAt))
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// SetCancellationReasonTx attaches the passenger's reason to a booking.
func (r *BookingRepo) SetCancellationReasonTx(ctx context.Context, tx *sqlx.Tx, bookingID uint64, reason string) error {
	const q = `UPDATE bookings SET cancellation_reason = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, reason, bookingID)
	return err
}
