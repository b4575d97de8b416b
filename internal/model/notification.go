package model

import "time"

const NotificationCancellationConfirmed = "CANCELLATION_CONFIRMED"

// Notification is a message for a passenger, written in the same
// transaction as the state change it announces.  DeliveredAt is set by the
// delivery worker.
type Notification struct {
	ID          uint64     `db:"id" json:"id"`
	PassengerID uint64     `db:"passenger_id" json:"passenger_id"`
	Message     string     `db:"message" json:"message"`
	Type        string     `db:"type" json:"type"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
}

// AuditEntry records which admin moved a ticket between states.
type AuditEntry struct {
	ID         uint64       `db:"id" json:"id"`
	TicketID   uint64       `db:"ticket_id" json:"ticket_id"`
	AdminID    uint64       `db:"admin_id" json:"admin_id"`
	Action     string       `db:"action" json:"action"`
	FromStatus TicketStatus `db:"from_status" json:"from_status"`
	ToStatus   TicketStatus `db:"to_status" json:"to_status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
