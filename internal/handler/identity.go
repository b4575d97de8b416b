package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-seat-booking/internal/middleware"
)

// passengerScope returns the id a request is restricted to when the caller
// authenticated as a passenger.  Admins and unauthenticated deployments
// (JWT disabled) are not restricted.
func passengerScope(c echo.Context) (uint64, bool) {
	id, ok := middleware.Subject(c)
	if !ok || middleware.Role(c) == middleware.RoleAdmin {
		return 0, false
	}
	return id, true
}
