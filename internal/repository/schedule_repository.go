package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// ErrScheduleNotFound indicates that a schedule was not located in the DB.
var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleRoute is a schedule joined with the distance of its route, the
// context a booking needs to price a seat.
type ScheduleRoute struct {
	ScheduleID uint64               `db:"schedule_id"`
	Status     model.ScheduleStatus `db:"status"`
	DistanceKm float64              `db:"distance_km"`
}

// ScheduleRepo reads schedules.  Schedules themselves are maintained by the
// timetable system.
type ScheduleRepo struct {
	db *sqlx.DB
}

func NewScheduleRepo(db *sqlx.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// GetByID returns a schedule or ErrScheduleNotFound.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (model.Schedule, error) {
	const q = `SELECT id, train_id, route_id, departure_at, arrival_at, status, created_at
	           FROM schedules WHERE id = ?`
	var s model.Schedule
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		return model.Schedule{}, notFound(err, ErrScheduleNotFound)
	}
	return s, nil
}

// GetRouteTx loads the schedule's status and route distance inside tx.  A
// shared lock keeps the status from flipping to CANCELLED while the
// booking is in flight.
func (r *ScheduleRepo) GetRouteTx(ctx context.Context, tx *sqlx.Tx, id uint64) (ScheduleRoute, error) {
	const q = `SELECT s.id AS schedule_id, s.status, rt.distance_km
	           FROM schedules s
	           JOIN routes rt ON rt.id = s.route_id
	           WHERE s.id = ?
	           LOCK IN SHARE MODE`
	var sr ScheduleRoute
	if err := tx.GetContext(ctx, &sr, q, id); err != nil {
		return ScheduleRoute{}, notFound(err, ErrScheduleNotFound)
	}
	return sr, nil
}

// GetRoute is GetRouteTx without a transaction or lock, used for quotes.
func (r *ScheduleRepo) GetRoute(ctx context.Context, id uint64) (ScheduleRoute, error) {
	const q = `SELECT s.id AS schedule_id, s.status, rt.distance_km
	           FROM schedules s
	           JOIN routes rt ON rt.id = s.route_id
	           WHERE s.id = ?`
	var sr ScheduleRoute
	if err := r.db.GetContext(ctx, &sr, q, id); err != nil {
		return ScheduleRoute{}, notFound(err, ErrScheduleNotFound)
	}
	return sr, nil
}
