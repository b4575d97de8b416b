package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// ErrTicketNotFound is returned when a ticket lookup yields no rows.
var ErrTicketNotFound = errors.New("ticket not found")

const ticketColumns = `id, booking_id, passenger_id, schedule_id, seat_number, price_cents, status, booked_at`

// TicketRepo persists tickets and drives their status column.
type TicketRepo struct {
	db *sqlx.DB
}

func NewTicketRepo(db *sqlx.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts t and sets its ID.  A second live ticket for the same
// schedule seat violates the live seat index and fails with MySQL error
// 1062.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (booking_id, passenger_id, schedule_id, seat_number, price_cents, status, booked_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := lastID(tx.ExecContext(ctx, q, t.BookingID, t.PassengerID, t.ScheduleID, t.SeatNumber, t.PriceCents, t.Status, t.BookedAt))
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// GetByID returns a ticket or ErrTicketNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	var t model.Ticket
	if err := r.db.GetContext(ctx, &t, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id); err != nil {
		return model.Ticket{}, notFound(err, ErrTicketNotFound)
	}
	return t, nil
}

// GetByIDTx reads a ticket inside tx.
func (r *TicketRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uint64) (model.Ticket, error) {
	var t model.Ticket
	if err := tx.GetContext(ctx, &t, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id); err != nil {
		return model.Ticket{}, notFound(err, ErrTicketNotFound)
	}
	return t, nil
}

// TransitionTx moves a ticket from one status to the next.  The UPDATE is
// conditional on the current status, so concurrent transitions from the
// same state produce one winner; the rest get ErrConflict.
func (r *TicketRepo) TransitionTx(ctx context.Context, tx *sqlx.Tx, id uint64, from, to model.TicketStatus) error {
	if !from.CanTransitionTo(to) {
		return ErrConflict
	}
	const q = `UPDATE tickets SET status = ? WHERE id = ? AND status = ?`
	return expectOne(tx.ExecContext(ctx, q, to, id, from))
}
