package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/queue"
	"github.com/iliyamo/rail-seat-booking/internal/repository"
)

// BookSeatInput is a validated booking request.  The client prices are
// advisory: the server recomputes both and logs any disagreement.
// DiscountedPriceCents without a DiscountCode is ignored.
type BookSeatInput struct {
	PassengerID          uint64
	ScheduleID           uint64
	SeatNumber           string
	OriginalPriceCents   int64
	DiscountedPriceCents *int64
	DiscountCode         *string
}

// QuoteInput asks for the price of a seat, optionally with a code.
type QuoteInput struct {
	PassengerID  uint64
	ScheduleID   uint64
	SeatNumber   string
	DiscountCode *string
}

// Quote is the server-side price of a seat.
type Quote struct {
	ScheduleID         uint64 `json:"schedule_id"`
	SeatNumber         string `json:"seat_number"`
	CoachNumber        int    `json:"coach_number"`
	ClassType          string `json:"class_type"`
	SeatAvailable      bool   `json:"seat_available"`
	SubtotalCents      int64  `json:"subtotal_cents"`
	DiscountCode       string `json:"discount_code,omitempty"`
	DiscountPercentage int    `json:"discount_percentage"`
	FinalCents         int64  `json:"final_cents"`
}

// BookingService turns a seat selection into a confirmed ticket.
type BookingService struct {
	engine
	fares     *FareResolver
	discounts *DiscountLedger
}

func NewBookingService(store *repository.Store, opts Options) *BookingService {
	e := newEngine(store, opts)
	return &BookingService{
		engine:    e,
		fares:     &FareResolver{fares: store.Fares, tx: e.tx},
		discounts: &DiscountLedger{discounts: store.Discounts, tx: e.tx, clock: e.now},
	}
}

// BookSeat runs the whole booking as one transaction: price the seat,
// validate the discount, take the seat, capture payment, write the
// payment, booking and ticket rows and consume the discount.  Any failure
// leaves no trace.  Of N concurrent calls for the same seat exactly one
// succeeds; the others get ErrSeatUnavailable.
func (s *BookingService) BookSeat(ctx context.Context, in BookSeatInput) (model.Ticket, error) {
	in.SeatNumber = strings.TrimSpace(in.SeatNumber)
	if in.PassengerID == 0 || in.ScheduleID == 0 || in.SeatNumber == "" {
		return model.Ticket{}, ErrInvalidInput
	}
	code := ""
	if in.DiscountCode != nil {
		code = normalizeCode(*in.DiscountCode)
	}

	log := s.log.WithFields(logrus.Fields{
		"passenger_id": in.PassengerID,
		"schedule_id":  in.ScheduleID,
		"seat_number":  in.SeatNumber,
	})

	var ticket model.Ticket
	err := s.tx.inTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		sr, err := s.store.Schedules.GetRouteTx(ctx, tx, in.ScheduleID)
		if err != nil {
			return scheduleErr(err)
		}
		if !sr.Status.Bookable() {
			return ErrScheduleNotBookable
		}

		seat, err := s.store.Seats.GetSeatTx(ctx, tx, in.ScheduleID, in.SeatNumber)
		if err != nil {
			return seatErr(err)
		}

		subtotal, err := s.fares.priceForTx(ctx, tx, sr.DistanceKm, seat.CoachNumber, seat.ClassType)
		if err != nil {
			return err
		}
		if in.OriginalPriceCents != subtotal {
			log.WithFields(logrus.Fields{"client_cents": in.OriginalPriceCents, "server_cents": subtotal}).
				Info("client original price differs from server price")
		}

		final := subtotal
		if code != "" {
			dc, err := s.discounts.validateTx(ctx, tx, code, in.PassengerID)
			if err != nil {
				return err
			}
			final = ApplyDiscount(subtotal, dc.Percentage)
			if in.DiscountedPriceCents != nil && *in.DiscountedPriceCents != final {
				log.WithFields(logrus.Fields{"client_cents": *in.DiscountedPriceCents, "server_cents": final}).
					Warn("client discounted price ignored")
			}
		} else if in.DiscountedPriceCents != nil {
			log.Warn("discounted price without discount code ignored")
		}

		if err := s.store.Seats.ReserveSeatTx(ctx, tx, in.ScheduleID, in.SeatNumber); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrSeatUnavailable
			}
			return err
		}

		now := s.now()
		ref, err := s.gateway.Capture(ctx, in.PassengerID, final)
		if err != nil {
			return err
		}
		payment := model.Payment{AmountCents: final, Status: model.PaymentCompleted, TransactionRef: ref, CreatedAt: now}
		if err := s.store.Payments.CreateTx(ctx, tx, &payment); err != nil {
			return err
		}

		booking := model.Booking{PassengerID: in.PassengerID, PaymentID: payment.ID, CreatedAt: now}
		if err := s.store.Bookings.CreateTx(ctx, tx, &booking); err != nil {
			return err
		}

		ticket = model.Ticket{
			BookingID:   booking.ID,
			PassengerID: in.PassengerID,
			ScheduleID:  in.ScheduleID,
			SeatNumber:  in.SeatNumber,
			PriceCents:  final,
			Status:      model.TicketBooked,
			BookedAt:    now,
		}
		if err := s.store.Tickets.CreateTx(ctx, tx, &ticket); err != nil {
			return err
		}

		if code != "" {
			if err := s.discounts.markUsedTx(ctx, tx, code, in.PassengerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Info("booking rolled back")
		return model.Ticket{}, err
	}

	log.WithFields(logrus.Fields{"ticket_id": ticket.ID, "price_cents": ticket.PriceCents}).Info("seat booked")
	s.afterCommit(ctx, ticket.ScheduleID, func(ctx context.Context, p EventPublisher) error {
		return p.PublishTicketBooked(ctx, queue.TicketBookedEvent{
			TicketID:    ticket.ID,
			BookingID:   ticket.BookingID,
			PassengerID: ticket.PassengerID,
			ScheduleID:  ticket.ScheduleID,
			SeatNumber:  ticket.SeatNumber,
			PriceCents:  ticket.PriceCents,
			BookedAt:    ticket.BookedAt.Format(time.RFC3339),
		})
	})
	return ticket, nil
}

// Quote prices a seat the same way BookSeat will, without writing
// anything.  An invalid code fails the quote with ErrInvalidDiscount.
func (s *BookingService) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	in.SeatNumber = strings.TrimSpace(in.SeatNumber)
	if in.ScheduleID == 0 || in.SeatNumber == "" {
		return Quote{}, ErrInvalidInput
	}
	var q Quote
	err := s.tx.read(ctx, func(ctx context.Context) error {
		sr, err := s.store.Schedules.GetRoute(ctx, in.ScheduleID)
		if err != nil {
			return scheduleErr(err)
		}
		seat, err := s.store.Seats.GetSeat(ctx, in.ScheduleID, in.SeatNumber)
		if err != nil {
			return seatErr(err)
		}
		fare, err := s.store.Fares.Find(ctx, seat.CoachNumber, seat.ClassType)
		if err != nil {
			return fareErr(err)
		}
		q = Quote{
			ScheduleID:    in.ScheduleID,
			SeatNumber:    seat.SeatNumber,
			CoachNumber:   seat.CoachNumber,
			ClassType:     seat.ClassType,
			SeatAvailable: seat.IsAvailable && sr.Status.Bookable(),
			SubtotalCents: Subtotal(sr.DistanceKm, fare.PerKmFareCents),
		}
		q.FinalCents = q.SubtotalCents
		if in.DiscountCode != nil && normalizeCode(*in.DiscountCode) != "" {
			if in.PassengerID == 0 {
				return ErrInvalidDiscount
			}
			dc, err := s.discounts.usable(s.store.Discounts.Get(ctx, normalizeCode(*in.DiscountCode), in.PassengerID))
			if err != nil {
				return err
			}
			q.DiscountCode = dc.Code
			q.DiscountPercentage = dc.Percentage
			q.FinalCents = ApplyDiscount(q.SubtotalCents, dc.Percentage)
		}
		return nil
	})
	return q, err
}

// GetTicket returns a ticket.  When passengerID is non-zero the ticket must
// belong to that passenger; a mismatch is reported as ErrTicketNotFound.
func (s *BookingService) GetTicket(ctx context.Context, ticketID, passengerID uint64) (model.Ticket, error) {
	var t model.Ticket
	err := s.tx.read(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.store.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return ticketErr(err)
		}
		if passengerID != 0 && t.PassengerID != passengerID {
			return ErrTicketNotFound
		}
		return nil
	})
	return t, err
}

func scheduleErr(err error) error {
	if errors.Is(err, repository.ErrScheduleNotFound) {
		return ErrScheduleNotFound
	}
	return err
}

func seatErr(err error) error {
	if errors.Is(err, repository.ErrSeatNotFound) {
		return ErrSeatNotFound
	}
	return err
}

func ticketErr(err error) error {
	if errors.Is(err, repository.ErrTicketNotFound) {
		return ErrTicketNotFound
	}
	return err
}
