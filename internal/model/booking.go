package model

import "time"

// PaymentStatus values.  Capture is simulated, so new payments are always
// COMPLETED; REFUNDED is set when a cancellation is confirmed.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment records the captured amount of one booking.
type Payment struct {
	ID             uint64        `db:"id" json:"id"`
	AmountCents    int64         `db:"amount_cents" json:"amount_cents"`
	Status         PaymentStatus `db:"status" json:"status"`
	TransactionRef string        `db:"transaction_ref" json:"transaction_ref"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// Booking ties a passenger to the payment that bought a ticket.  The
// cancellation reason is set by the passenger's cancellation request.
type Booking struct {
	ID                 uint64    `db:"id" json:"id"`
	PassengerID        uint64    `db:"passenger_id" json:"passenger_id"`
	PaymentID          uint64    `db:"payment_id" json:"payment_id"`
	CancellationReason *string   `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
