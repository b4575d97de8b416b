package model

import "time"

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketBooked              TicketStatus = "BOOKED"
	TicketPendingCancellation TicketStatus = "PENDING_CANCELLATION"
	TicketCancelled           TicketStatus = "CANCELLED"
)

// ticketTransitions lists the only legal moves.  Cancelled is terminal and
// nothing leads back to Booked.
var ticketTransitions = map[TicketStatus]TicketStatus{
	TicketBooked:              TicketPendingCancellation,
	TicketPendingCancellation: TicketCancelled,
}

// CanTransitionTo reports whether a ticket in status s may move to next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	to, ok := ticketTransitions[s]
	return ok && to == next
}

// Ticket is the passenger's claim to one seat on one schedule.  The
// booking links it to the payment; PriceCents is the amount actually
// charged after any discount and BookedAt is when the booking transaction
// wrote its rows.
type Ticket struct {
	ID          uint64       `db:"id" json:"id"`                     // tickets.id
	BookingID   uint64       `db:"booking_id" json:"booking_id"`     // tickets.booking_id
	PassengerID uint64       `db:"passenger_id" json:"passenger_id"` // tickets.passenger_id
	ScheduleID  uint64       `db:"schedule_id" json:"schedule_id"`   // tickets.schedule_id
	SeatNumber  string       `db:"seat_number" json:"seat_number"`   // e.g. "A1"
	PriceCents  int64        `db:"price_cents" json:"price_cents"`   // tickets.price_cents
	Status      TicketStatus `db:"status" json:"status"`             // tickets.status
	BookedAt    time.Time    `db:"booked_at" json:"booked_at"`       // tickets.booked_at
}
