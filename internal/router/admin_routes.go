package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-seat-booking/internal/middleware"
)

// registerAdmin registers operator endpoints: cancellation confirmation
// and its audit trail, seat provisioning and GPS fixes.
func registerAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1", guard(d, middleware.RoleAdmin)...)
	g.POST("/tickets/:id/cancellation/confirm", d.Cancellations.Confirm)
	g.GET("/tickets/:id/audit", d.Cancellations.AuditTrail)
	g.POST("/schedules/:id/seats", d.Inventory.ProvisionSeats)
	g.PUT("/trains/:id/location", d.Tracking.UpdateLocation)
}
