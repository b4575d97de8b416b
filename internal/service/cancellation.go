package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/queue"
	"github.com/iliyamo/rail-seat-booking/internal/repository"
)

const maxReasonLength = 500

// RequestCancellationInput is the passenger side of a cancellation.  When
// PassengerID is set the ticket must belong to that passenger.
type RequestCancellationInput struct {
	TicketID    uint64
	PassengerID *uint64
	Reason      string
}

// ConfirmCancellationInput is the admin side.  AdminID is written to the
// audit trail in the same transaction as the status change.
type ConfirmCancellationInput struct {
	TicketID uint64
	AdminID  uint64
}

// Ack acknowledges a state transition.
type Ack struct {
	TicketID uint64             `json:"ticket_id"`
	Status   model.TicketStatus `json:"status"`
}

// CancellationService walks tickets through
// BOOKED → PENDING_CANCELLATION → CANCELLED.  The seat stays held while the
// request is pending and is released only by the admin confirmation.
type CancellationService struct {
	engine
}

func NewCancellationService(store *repository.Store, opts Options) *CancellationService {
	return &CancellationService{engine: newEngine(store, opts)}
}

// RequestCancellation moves a BOOKED ticket to PENDING_CANCELLATION and
// stores the reason on its booking.  Any other current status yields
// ErrTicketNotCancellable and changes nothing.
func (s *CancellationService) RequestCancellation(ctx context.Context, in RequestCancellationInput) (Ack, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return Ack{}, ErrReasonRequired
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return Ack{}, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, maxReasonLength)
	}
	if in.TicketID == 0 {
		return Ack{}, ErrInvalidInput
	}

	err := s.tx.inTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		t, err := s.store.Tickets.GetByIDTx(ctx, tx, in.TicketID)
		if err != nil {
			return ticketErr(err)
		}
		if in.PassengerID != nil && *in.PassengerID != t.PassengerID {
			return ErrTicketNotFound
		}
		if t.Status != model.TicketBooked {
			return ErrTicketNotCancellable
		}
		if err := s.store.Tickets.TransitionTx(ctx, tx, t.ID, model.TicketBooked, model.TicketPendingCancellation); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrTicketNotCancellable
			}
			return err
		}
		return s.store.Bookings.SetCancellationReasonTx(ctx, tx, t.BookingID, reason)
	})
	if err != nil {
		return Ack{}, err
	}

	s.log.WithField("ticket_id", in.TicketID).Info("cancellation requested")
	return Ack{TicketID: in.TicketID, Status: model.TicketPendingCancellation}, nil
}

// ConfirmCancellation finalizes a pending cancellation: the ticket becomes
// CANCELLED, the seat is released, the payment is refunded, the passenger
// gets a notification and the admin is recorded in the audit trail, all in
// one transaction.  A second confirmation finds nothing pending and returns
// ErrNotPendingCancellation without side effects.
func (s *CancellationService) ConfirmCancellation(ctx context.Context, in ConfirmCancellationInput) (Ack, error) {
	if in.TicketID == 0 || in.AdminID == 0 {
		return Ack{}, ErrInvalidInput
	}
	log := s.log.WithFields(logrus.Fields{"ticket_id": in.TicketID, "admin_id": in.AdminID})

	var (
		ticket       model.Ticket
		notification model.Notification
	)
	err := s.tx.inTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		ticket, err = s.store.Tickets.GetByIDTx(ctx, tx, in.TicketID)
		if err != nil {
			return ticketErr(err)
		}
		if ticket.Status != model.TicketPendingCancellation {
			return ErrNotPendingCancellation
		}
		if err := s.store.Tickets.TransitionTx(ctx, tx, ticket.ID, model.TicketPendingCancellation, model.TicketCancelled); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrNotPendingCancellation
			}
			return err
		}

		if err := s.store.Seats.ReleaseSeatTx(ctx, tx, ticket.ScheduleID, ticket.SeatNumber); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				return err
			}
			log.WithField("seat_number", ticket.SeatNumber).Warn("seat was already available on cancellation")
		}
		if err := s.store.Payments.RefundByBookingTx(ctx, tx, ticket.BookingID); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				return err
			}
			log.Warn("payment was not in a refundable state")
		}

		now := s.now()
		notification = model.Notification{
			PassengerID: ticket.PassengerID,
			Message:     cancellationMessage(ticket),
			Type:        model.NotificationCancellationConfirmed,
			CreatedAt:   now,
		}
		if err := s.store.Notifications.CreateTx(ctx, tx, &notification); err != nil {
			return err
		}

		return s.store.Audit.CreateTx(ctx, tx, &model.AuditEntry{
			TicketID:   ticket.ID,
			AdminID:    in.AdminID,
			Action:     "CONFIRM_CANCELLATION",
			FromStatus: model.TicketPendingCancellation,
			ToStatus:   model.TicketCancelled,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return Ack{}, err
	}

	log.Info("cancellation confirmed")
	s.afterCommit(ctx, ticket.ScheduleID, func(ctx context.Context, p EventPublisher) error {
		return p.PublishCancellationConfirmed(ctx, queue.CancellationConfirmedEvent{
			TicketID:       ticket.ID,
			PassengerID:    ticket.PassengerID,
			ScheduleID:     ticket.ScheduleID,
			SeatNumber:     ticket.SeatNumber,
			AdminID:        in.AdminID,
			NotificationID: notification.ID,
			Message:        notification.Message,
			ConfirmedAt:    notification.CreatedAt.Format(time.RFC3339),
		})
	})
	return Ack{TicketID: ticket.ID, Status: model.TicketCancelled}, nil
}

// AuditTrail returns the recorded admin actions for a ticket.
func (s *CancellationService) AuditTrail(ctx context.Context, ticketID uint64) ([]model.AuditEntry, error) {
	var out []model.AuditEntry
	err := s.tx.read(ctx, func(ctx context.Context) error {
		if _, err := s.store.Tickets.GetByID(ctx, ticketID); err != nil {
			return ticketErr(err)
		}
		var err error
		out, err = s.store.Audit.ListByTicket(ctx, ticketID)
		return err
	})
	return out, err
}

func cancellationMessage(t model.Ticket) string {
	return fmt.Sprintf("Your cancellation for ticket #%d (seat %s) has been confirmed. A refund of %d.%02d has been issued.",
		t.ID, t.SeatNumber, t.PriceCents/100, t.PriceCents%100)
}
