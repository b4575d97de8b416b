package service

import (
	"context"
	"errors"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/repository"
)

// FareResolver prices a seat from the route distance and the per-km fare of
// its coach and class.
type FareResolver struct {
	fares *repository.FareRepo
	tx    txRunner
}

func NewFareResolver(store *repository.Store, opts Options) *FareResolver {
	e := newEngine(store, opts)
	return &FareResolver{fares: store.Fares, tx: e.tx}
}

// PriceFor returns the price in cents of one seat.  A missing fare row is
// ErrFareNotFound; there is no fallback price.
func (f *FareResolver) PriceFor(ctx context.Context, distanceKm float64, coachNumber int, classType string) (int64, error) {
	var price int64
	err := f.tx.read(ctx, func(ctx context.Context) error {
		fare, err := f.fares.Find(ctx, coachNumber, classType)
		if err != nil {
			return fareErr(err)
		}
		price = Subtotal(distanceKm, fare.PerKmFareCents)
		return nil
	})
	return price, err
}

func (f *FareResolver) priceForTx(ctx context.Context, tx *sqlx.Tx, distanceKm float64, coachNumber int, classType string) (int64, error) {
	fare, err := f.fares.FindTx(ctx, tx, coachNumber, classType)
	if err != nil {
		return 0, fareErr(err)
	}
	return Subtotal(distanceKm, fare.PerKmFareCents), nil
}

func fareErr(err error) error {
	if errors.Is(err, repository.ErrFareNotFound) {
		return ErrFareNotFound
	}
	return err
}

// Subtotal is distance × per-km fare.  Distance is kept to two decimals,
// as stored, and the product is rounded half up to the cent.
func Subtotal(distanceKm float64, perKmCents int64) int64 {
	hundredthsKm := int64(math.Round(distanceKm * 100))
	return (hundredthsKm*perKmCents + 50) / 100
}

// ApplyDiscount returns subtotal − subtotal×pct/100 with the discount
// rounded half up to the cent.
func ApplyDiscount(subtotal int64, pct int) int64 {
	if pct <= 0 {
		return subtotal
	}
	if pct >= 100 {
		return 0
	}
	off := (subtotal*int64(pct) + 50) / 100
	return subtotal - off
}
