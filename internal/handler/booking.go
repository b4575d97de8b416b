package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/service"
)

// Booker is the part of the booking service the HTTP layer needs.
type Booker interface {
	BookSeat(ctx context.Context, in service.BookSeatInput) (model.Ticket, error)
	Quote(ctx context.Context, in service.QuoteInput) (service.Quote, error)
	GetTicket(ctx context.Context, ticketID, passengerID uint64) (model.Ticket, error)
}

// BookingHandler serves ticket purchase, price quotes and ticket lookup.
type BookingHandler struct {
	Bookings Booker
	Log      logrus.FieldLogger
}

func NewBookingHandler(b Booker, log logrus.FieldLogger) *BookingHandler {
	if b == nil {
		panic("nil booker passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: b, Log: log}
}

type bookSeatRequest struct {
	PassengerID          uint64  `json:"passenger_id" validate:"required"`
	ScheduleID           uint64  `json:"schedule_id" validate:"required"`
	SeatNumber           string  `json:"seat_number" validate:"required,max=16"`
	OriginalPriceCents   int64   `json:"original_price_cents" validate:"gte=0"`
	DiscountedPriceCents *int64  `json:"discounted_price_cents" validate:"omitempty,gte=0"`
	DiscountCode         *string `json:"discount_code" validate:"omitempty,max=32"`
}

// BookSeat handles POST /v1/bookings and returns 201 with the ticket.
// Prices in the body are advisory; the ticket carries the server price.
func (h *BookingHandler) BookSeat(c echo.Context) error {
	var req bookSeatRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	if id, ok := passengerScope(c); ok && id != req.PassengerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot book for another passenger"})
	}

	ticket, err := h.Bookings.BookSeat(c.Request().Context(), service.BookSeatInput{
		PassengerID:          req.PassengerID,
		ScheduleID:           req.ScheduleID,
		SeatNumber:           req.SeatNumber,
		OriginalPriceCents:   req.OriginalPriceCents,
		DiscountedPriceCents: req.DiscountedPriceCents,
		DiscountCode:         req.DiscountCode,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

type quoteRequest struct {
	PassengerID  uint64  `json:"passenger_id"`
	ScheduleID   uint64  `json:"schedule_id" validate:"required"`
	SeatNumber   string  `json:"seat_number" validate:"required,max=16"`
	DiscountCode *string `json:"discount_code" validate:"omitempty,max=32"`
}

// Quote handles POST /v1/discounts/preview.  It prices a seat, with an
// optional discount code, exactly as a booking would, without side effects.
func (h *BookingHandler) Quote(c echo.Context) error {
	var req quoteRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	if id, ok := passengerScope(c); ok {
		req.PassengerID = id
	}
	q, err := h.Bookings.Quote(c.Request().Context(), service.QuoteInput{
		PassengerID:  req.PassengerID,
		ScheduleID:   req.ScheduleID,
		SeatNumber:   req.SeatNumber,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// GetTicket handles GET /v1/tickets/:id.  Passengers only see their own
// tickets; others may scope the lookup with ?passenger_id=.
func (h *BookingHandler) GetTicket(c echo.Context) error {
	ticketID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var owner uint64
	if id, ok := passengerScope(c); ok {
		owner = id
	} else if q := c.QueryParam("passenger_id"); q != "" {
		n, err := strconv.ParseUint(q, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid passenger_id"})
		}
		owner = n
	}
	t, err := h.Bookings.GetTicket(c.Request().Context(), ticketID, owner)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}
