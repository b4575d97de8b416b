package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/repository"
)

// DiscountLedger validates passenger-scoped discount codes and records
// their single use.  A code moves Active → Used inside the booking
// transaction; expiry is evaluated on read.
type DiscountLedger struct {
	discounts *repository.DiscountRepo
	tx        txRunner
	clock     func() time.Time
}

func NewDiscountLedger(store *repository.Store, opts Options) *DiscountLedger {
	e := newEngine(store, opts)
	return &DiscountLedger{discounts: store.Discounts, tx: e.tx, clock: e.now}
}

// Validate checks that code belongs to passengerID, is unused and today is
// inside its window.  It has no side effects.
func (l *DiscountLedger) Validate(ctx context.Context, code string, passengerID uint64) (model.DiscountCode, error) {
	code = normalizeCode(code)
	if code == "" {
		return model.DiscountCode{}, ErrInvalidDiscount
	}
	var dc model.DiscountCode
	err := l.tx.read(ctx, func(ctx context.Context) error {
		var err error
		dc, err = l.usable(l.discounts.Get(ctx, code, passengerID))
		return err
	})
	return dc, err
}

func (l *DiscountLedger) validateTx(ctx context.Context, tx *sqlx.Tx, code string, passengerID uint64) (model.DiscountCode, error) {
	code = normalizeCode(code)
	if code == "" {
		return model.DiscountCode{}, ErrInvalidDiscount
	}
	return l.usable(l.discounts.GetTx(ctx, tx, code, passengerID))
}

// markUsedTx consumes the code.  Losing a race for the code reports
// ErrInvalidDiscount so the whole booking rolls back.
func (l *DiscountLedger) markUsedTx(ctx context.Context, tx *sqlx.Tx, code string, passengerID uint64) error {
	err := l.discounts.MarkUsedTx(ctx, tx, normalizeCode(code), passengerID, l.clock())
	if errors.Is(err, repository.ErrConflict) {
		return ErrInvalidDiscount
	}
	return err
}

func (l *DiscountLedger) usable(dc model.DiscountCode, err error) (model.DiscountCode, error) {
	if err != nil {
		if errors.Is(err, repository.ErrDiscountNotFound) {
			return model.DiscountCode{}, ErrInvalidDiscount
		}
		return model.DiscountCode{}, err
	}
	if !dc.UsableOn(l.clock()) {
		return model.DiscountCode{}, ErrInvalidDiscount
	}
	return dc, nil
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
