package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

const seatColumns = `id, schedule_id, seat_number, coach_number, class_type, seat_row, seat_col, is_available, updated_at`

// SeatInventoryRepo owns the seat_inventory table: one row per physical
// seat per schedule.  Availability only changes through ReserveSeatTx and
// ReleaseSeatTx, both conditional on the current flag.
type SeatInventoryRepo struct {
	db *sqlx.DB
}

func NewSeatInventoryRepo(db *sqlx.DB) *SeatInventoryRepo { return &SeatInventoryRepo{db: db} }

// GetSeats lists every seat of a schedule in coach, row, column order.
// It is a plain read; callers must not use it to decide availability for
// a booking.
func (r *SeatInventoryRepo) GetSeats(ctx context.Context, scheduleID uint64) ([]model.SeatRecord, error) {
	q := `SELECT ` + seatColumns + `
	      FROM seat_inventory
	      WHERE schedule_id = ?
	      ORDER BY coach_number, seat_row, seat_col`
	seats := []model.SeatRecord{}
	if err := r.db.SelectContext(ctx, &seats, q, scheduleID); err != nil {
		return nil, err
	}
	return seats, nil
}

// GetSeatTx reads a single seat inside tx.
func (r *SeatInventoryRepo) GetSeatTx(ctx context.Context, tx *sqlx.Tx, scheduleID uint64, seatNumber string) (model.SeatRecord, error) {
	return r.getSeat(ctx, tx, scheduleID, seatNumber)
}

// GetSeat reads a single seat outside any transaction.
func (r *SeatInventoryRepo) GetSeat(ctx context.Context, scheduleID uint64, seatNumber string) (model.SeatRecord, error) {
	return r.getSeat(ctx, r.db, scheduleID, seatNumber)
}

func (r *SeatInventoryRepo) getSeat(ctx context.Context, q sqlx.QueryerContext, scheduleID uint64, seatNumber string) (model.SeatRecord, error) {
	query := `SELECT ` + seatColumns + ` FROM seat_inventory WHERE schedule_id = ? AND seat_number = ?`
	var s model.SeatRecord
	if err := sqlx.GetContext(ctx, q, &s, query, scheduleID, seatNumber); err != nil {
		return model.SeatRecord{}, notFound(err, ErrSeatNotFound)
	}
	return s, nil
}

// ReserveSeatTx flips an available seat to unavailable.  When the seat is
// already taken (or another transaction took it first) ErrConflict is
// returned; the row lock taken by the UPDATE serializes racing callers.
func (r *SeatInventoryRepo) ReserveSeatTx(ctx context.Context, tx *sqlx.Tx, scheduleID uint64, seatNumber string) error {
	const q = `UPDATE seat_inventory SET is_available = FALSE
	           WHERE schedule_id = ? AND seat_number = ? AND is_available = TRUE`
	return expectOne(tx.ExecContext(ctx, q, scheduleID, seatNumber))
}

// ReleaseSeatTx makes a held seat available again.  ErrConflict means the
// seat was not held.
func (r *SeatInventoryRepo) ReleaseSeatTx(ctx context.Context, tx *sqlx.Tx, scheduleID uint64, seatNumber string) error {
	const q = `UPDATE seat_inventory SET is_available = TRUE
	           WHERE schedule_id = ? AND seat_number = ? AND is_available = FALSE`
	return expectOne(tx.ExecContext(ctx, q, scheduleID, seatNumber))
}

// CountTx returns how many seats a schedule already has.
func (r *SeatInventoryRepo) CountTx(ctx context.Context, tx *sqlx.Tx, scheduleID uint64) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM seat_inventory WHERE schedule_id = ?`, scheduleID)
	return n, err
}

// CreateBulkTx inserts all seats in a single statement.  Every seat starts
// available.
func (r *SeatInventoryRepo) CreateBulkTx(ctx context.Context, tx *sqlx.Tx, seats []model.SeatRecord) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seat_inventory (schedule_id, seat_number, coach_number, class_type, seat_row, seat_col, is_available) VALUES `)
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, TRUE)")
		args = append(args, s.ScheduleID, s.SeatNumber, s.CoachNumber, s.ClassType, s.Row, s.Column)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}
