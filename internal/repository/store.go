package repository

import "github.com/jmoiron/sqlx"

// Store bundles every repository over one connection pool so services can
// open a transaction and hand it to several repositories.
type Store struct {
	DB            *sqlx.DB
	Schedules     *ScheduleRepo
	Seats         *SeatInventoryRepo
	Fares         *FareRepo
	Discounts     *DiscountRepo
	Payments      *PaymentRepo
	Bookings      *BookingRepo
	Tickets       *TicketRepo
	Notifications *NotificationRepo
	Audit         *AuditRepo
}

// NewStore wires all repositories to db.
func NewStore(db *sqlx.DB) *Store {
	if db == nil {
		panic("nil db passed to NewStore")
	}
	return &Store{
		DB:            db,
		Schedules:     NewScheduleRepo(db),
		Seats:         NewSeatInventoryRepo(db),
		Fares:         NewFareRepo(db),
		Discounts:     NewDiscountRepo(db),
		Payments:      NewPaymentRepo(db),
		Bookings:      NewBookingRepo(db),
		Tickets:       NewTicketRepo(db),
		Notifications: NewNotificationRepo(db),
		Audit:         NewAuditRepo(db),
	}
}
