package service

import (
	"context"

	"github.com/google/uuid"
)

// PaymentGateway captures money for a booking and returns the gateway's
// transaction reference.
type PaymentGateway interface {
	Capture(ctx context.Context, passengerID uint64, amountCents int64) (string, error)
}

// SimulatedGateway always succeeds synchronously.
type SimulatedGateway struct{}

func (SimulatedGateway) Capture(ctx context.Context, passengerID uint64, amountCents int64) (string, error) {
	return "PAY-" + uuid.NewString(), nil
}
