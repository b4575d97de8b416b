package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-seat-booking/internal/middleware"
)

// registerPassenger registers booking and cancellation requests.  Admins
// may call them too, for example on behalf of a passenger at the counter.
func registerPassenger(e *echo.Echo, d Deps) {
	g := e.Group("/v1", guard(d, middleware.RolePassenger, middleware.RoleAdmin)...)
	g.POST("/bookings", d.Bookings.BookSeat, optional(d.Idempotency)...)
	g.POST("/discounts/preview", d.Bookings.Quote)
	g.GET("/tickets/:id", d.Bookings.GetTicket)
	g.POST("/tickets/:id/cancellation", d.Cancellations.Request)
}
