package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// ErrDiscountNotFound is returned when a code does not exist for the
// passenger.  Codes issued to other passengers are reported the same way.
var ErrDiscountNotFound = errors.New("discount code not found")

const discountQuery = `SELECT id, code, passenger_id, percentage, start_date, end_date, used_at
                       FROM discount_codes WHERE code = ? AND passenger_id = ?`

// DiscountRepo manages passenger-scoped discount codes.
type DiscountRepo struct {
	db *sqlx.DB
}

func NewDiscountRepo(db *sqlx.DB) *DiscountRepo { return &DiscountRepo{db: db} }

// Get returns the code owned by passengerID.
func (r *DiscountRepo) Get(ctx context.Context, code string, passengerID uint64) (model.DiscountCode, error) {
	var d model.DiscountCode
	if err := r.db.GetContext(ctx, &d, discountQuery, code, passengerID); err != nil {
		return model.DiscountCode{}, notFound(err, ErrDiscountNotFound)
	}
	return d, nil
}

// GetTx is Get inside tx.
func (r *DiscountRepo) GetTx(ctx context.Context, tx *sqlx.Tx, code string, passengerID uint64) (model.DiscountCode, error) {
	var d model.DiscountCode
	if err := tx.GetContext(ctx, &d, discountQuery, code, passengerID); err != nil {
		return model.DiscountCode{}, notFound(err, ErrDiscountNotFound)
	}
	return d, nil
}

// MarkUsedTx consumes the code.  The update only matches an unused code,
// so of two bookings racing for the same code exactly one gets a row and
// the other gets ErrConflict.
func (r *DiscountRepo) MarkUsedTx(ctx context.Context, tx *sqlx.Tx, code string, passengerID uint64, usedAt time.Time) error {
	const q = `UPDATE discount_codes SET used_at = ?
	           WHERE code = ? AND passenger_id = ? AND used_at IS NULL`
	return expectOne(tx.ExecContext(ctx, q, usedAt, code, passengerID))
}
