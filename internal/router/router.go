package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-seat-booking/internal/handler"
	"github.com/iliyamo/rail-seat-booking/internal/middleware"
)

// Deps collects what the routes need.  Nil middlewares are skipped so
// tests and small deployments can leave Redis-backed features out.
type Deps struct {
	JWTSecret   string
	DB          handler.Pinger
	RateLimit   echo.MiddlewareFunc
	SeatCache   *middleware.SeatMapCache
	Idempotency echo.MiddlewareFunc

	Inventory     *handler.InventoryHandler
	Bookings      *handler.BookingHandler
	Cancellations *handler.CancellationHandler
	Tracking      *handler.TrackingHandler
}

// RegisterRoutes wires every endpoint onto e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Validator = handler.NewValidator()
	registerPublic(e, d)
	registerPassenger(e, d)
	registerAdmin(e, d)
}

// registerPublic exposes read-only endpoints that need no token: health,
// the seat map and train positions.
func registerPublic(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
	e.GET("/v1/schedules/:id/seats", d.Inventory.ListSeats, d.SeatCache.Middleware())
	e.GET("/v1/trains/locations", d.Tracking.ListLocations)
	e.GET("/v1/trains/:id/location", d.Tracking.GetLocation)
}

// guard returns JWT and role checks when a secret is configured, plus the
// rate limiter.  Without a secret every caller is trusted, which is how
// the service runs behind an authenticating gateway.
func guard(d Deps, roles ...string) []echo.MiddlewareFunc {
	var mws []echo.MiddlewareFunc
	if d.JWTSecret != "" {
		mws = append(mws, middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(roles...))
	}
	if d.RateLimit != nil {
		mws = append(mws, d.RateLimit)
	}
	return mws
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
