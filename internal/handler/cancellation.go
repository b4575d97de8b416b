package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/middleware"
	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/service"
)

// Canceller is the cancellation workflow as seen from HTTP.
type Canceller interface {
	RequestCancellation(ctx context.Context, in service.RequestCancellationInput) (service.Ack, error)
	ConfirmCancellation(ctx context.Context, in service.ConfirmCancellationInput) (service.Ack, error)
	AuditTrail(ctx context.Context, ticketID uint64) ([]model.AuditEntry, error)
}

type CancellationHandler struct {
	Cancellations Canceller
	Log           logrus.FieldLogger
}

func NewCancellationHandler(s Canceller, log logrus.FieldLogger) *CancellationHandler {
	if s == nil {
		panic("nil canceller passed to NewCancellationHandler")
	}
	return &CancellationHandler{Cancellations: s, Log: log}
}

// Reason is checked by the service so a blank reason maps to
// ErrReasonRequired rather than a generic validation error.
type requestCancellationRequest struct {
	Reason      string  `json:"reason"`
	PassengerID *uint64 `json:"passenger_id" validate:"omitempty,gt=0"`
}

// Request handles POST /v1/tickets/:id/cancellation and answers 202: the
// ticket now waits for an admin.
func (h *CancellationHandler) Request(c echo.Context) error {
	ticketID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req requestCancellationRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	if id, ok := passengerScope(c); ok {
		req.PassengerID = &id
	}
	ack, err := h.Cancellations.RequestCancellation(c.Request().Context(), service.RequestCancellationInput{
		TicketID:    ticketID,
		PassengerID: req.PassengerID,
		Reason:      req.Reason,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusAccepted, ack)
}

type confirmCancellationRequest struct {
	AdminID uint64 `json:"admin_id" validate:"required"`
}

// Confirm handles POST /v1/tickets/:id/cancellation/confirm.  With
// authentication enabled the token subject must be the admin_id being
// recorded.
func (h *CancellationHandler) Confirm(c echo.Context) error {
	ticketID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req confirmCancellationRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	if sub, ok := middleware.Subject(c); ok && sub != req.AdminID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin_id does not match token"})
	}
	ack, err := h.Cancellations.ConfirmCancellation(c.Request().Context(), service.ConfirmCancellationInput{
		TicketID: ticketID,
		AdminID:  req.AdminID,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ack)
}

// AuditTrail handles GET /v1/tickets/:id/audit.
func (h *CancellationHandler) AuditTrail(c echo.Context) error {
	ticketID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	entries, err := h.Cancellations.AuditTrail(c.Request().Context(), ticketID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": ticketID, "entries": entries})
}
