// Package queue defines message payloads exchanged over the message broker.
package queue

const (
	// TicketBookedQueue carries TicketBookedEvent.
	TicketBookedQueue = "ticket.booked"
	// CancellationConfirmedQueue carries CancellationConfirmedEvent.
	CancellationConfirmedQueue = "ticket.cancellation_confirmed"
)

// TicketBookedEvent is published after a booking transaction commits.
type TicketBookedEvent struct {
	TicketID    uint64 `json:"ticket_id"`
	BookingID   uint64 `json:"booking_id"`
	PassengerID uint64 `json:"passenger_id"`
	ScheduleID  uint64 `json:"schedule_id"`
	SeatNumber  string `json:"seat_number"`
	PriceCents  int64  `json:"price_cents"`
	BookedAt    string `json:"booked_at"`
}

// CancellationConfirmedEvent is published after an admin confirms a
// cancellation.  NotificationID points at the row the consumer marks
// delivered once it has handed the message on.
type CancellationConfirmedEvent struct {
	TicketID       uint64 `json:"ticket_id"`
	PassengerID    uint64 `json:"passenger_id"`
	ScheduleID     uint64 `json:"schedule_id"`
	SeatNumber     string `json:"seat_number"`
	AdminID        uint64 `json:"admin_id"`
	NotificationID uint64 `json:"notification_id"`
	Message        string `json:"message"`
	ConfirmedAt    string `json:"confirmed_at"`
}
