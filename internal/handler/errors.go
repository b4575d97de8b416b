package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/service"
)

// statusFor maps engine errors to HTTP statuses.  Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSeatUnavailable),
		errors.Is(err, service.ErrTicketNotCancellable),
		errors.Is(err, service.ErrNotPendingCancellation),
		errors.Is(err, service.ErrAlreadyProvisioned):
		return http.StatusConflict
	case errors.Is(err, service.ErrSeatNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrFareNotFound),
		errors.Is(err, service.ErrScheduleNotBookable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// publicMessage picks the text sent to the client.  ErrInvalidInput may be
// wrapped with a description of the bad field; anything else uses the
// sentinel's own message so driver errors never leak.
func publicMessage(err error) string {
	sentinels := []error{
		service.ErrSeatUnavailable, service.ErrTicketNotCancellable, service.ErrNotPendingCancellation,
		service.ErrAlreadyProvisioned, service.ErrSeatNotFound, service.ErrScheduleNotFound,
		service.ErrTicketNotFound, service.ErrInvalidDiscount, service.ErrFareNotFound,
		service.ErrScheduleNotBookable, service.ErrReasonRequired, service.ErrTimeout,
		service.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if errors.Is(err, service.ErrInvalidInput) {
		return err.Error()
	}
	return "internal error"
}

// writeError renders err as {"error": ...}.  Retryable failures carry
// Retry-After so clients back off before repeating.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	if service.Retryable(err) {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(status, echo.Map{"error": publicMessage(err)})
}

// idParam parses a positive integer path parameter.
func idParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
