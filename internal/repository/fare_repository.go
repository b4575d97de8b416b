package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// ErrFareNotFound is returned when no fare row matches a (coach, class).
var ErrFareNotFound = errors.New("fare not found")

// FareRepo reads the fare table.  Fare editing lives in the back office.
type FareRepo struct {
	db *sqlx.DB
}

func NewFareRepo(db *sqlx.DB) *FareRepo { return &FareRepo{db: db} }

const fareQuery = `SELECT id, coach_number, class_type, per_km_fare_cents
                   FROM fares WHERE coach_number = ? AND class_type = ?`

// Find returns the fare for a coach and class.
func (r *FareRepo) Find(ctx context.Context, coachNumber int, classType string) (model.Fare, error) {
	var f model.Fare
	if err := r.db.GetContext(ctx, &f, fareQuery, coachNumber, classType); err != nil {
		return model.Fare{}, notFound(err, ErrFareNotFound)
	}
	return f, nil
}

// FindTx is Find inside tx.
func (r *FareRepo) FindTx(ctx context.Context, tx *sqlx.Tx, coachNumber int, classType string) (model.Fare, error) {
	var f model.Fare
	if err := tx.GetContext(ctx, &f, fareQuery, coachNumber, classType); err != nil {
		return model.Fare{}, notFound(err, ErrFareNotFound)
	}
	return f, nil
}
