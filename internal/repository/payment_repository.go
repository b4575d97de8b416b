package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// PaymentRepo persists captured payments.
type PaymentRepo struct {
	db *sqlx.DB
}

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts p and sets its ID.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (amount_cents, status, transaction_ref, created_at) VALUES (?, ?, ?, ?)`
	id, err := lastID(tx.ExecContext(ctx, q, p.AmountCents, p.Status, p.TransactionRef, p.CreatedAt))
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// RefundByBookingTx marks the payment behind a booking as refunded.
func (r *PaymentRepo) RefundByBookingTx(ctx context.Context, tx *sqlx.Tx, bookingID uint64) error {
	const q = `UPDATE payments p
	           JOIN bookings b ON b.payment_id = p.id
	           SET p.status = ?
	           WHERE b.id = ? AND p.status = ?`
	return expectOne(tx.ExecContext(ctx, q, model.PaymentRefunded, bookingID, model.PaymentCompleted))
}
