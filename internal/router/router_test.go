package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rail-seat-booking/internal/handler"
	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/service"
	"github.com/iliyamo/rail-seat-booking/internal/tracking"
)

type stubEngine struct{}

func (stubEngine) ListSeats(ctx context.Context, id uint64) ([]model.SeatRecord, error) {
	return []model.SeatRecord{{ScheduleID: id, SeatNumber: "A1", IsAvailable: true}}, nil
}
func (stubEngine) ProvisionSeats(ctx context.Context, id uint64, c []service.CoachLayout) ([]model.SeatRecord, error) {
	return nil, nil
}
func (stubEngine) BookSeat(ctx context.Context, in service.BookSeatInput) (model.Ticket, error) {
	return model.Ticket{ID: 1, PassengerID: in.PassengerID, Status: model.TicketBooked}, nil
}
func (stubEngine) Quote(ctx context.Context, in service.QuoteInput) (service.Quote, error) {
	return service.Quote{}, nil
}
func (stubEngine) GetTicket(ctx context.Context, id, owner uint64) (model.Ticket, error) {
	return model.Ticket{ID: id}, nil
}
func (stubEngine) RequestCancellation(ctx context.Context, in service.RequestCancellationInput) (service.Ack, error) {
	return service.Ack{TicketID: in.TicketID, Status: model.TicketPendingCancellation}, nil
}
func (stubEngine) ConfirmCancellation(ctx context.Context, in service.ConfirmCancellationInput) (service.Ack, error) {
	return service.Ack{TicketID: in.TicketID, Status: model.TicketCancelled}, nil
}
func (stubEngine) AuditTrail(ctx context.Context, id uint64) ([]model.AuditEntry, error) {
	return nil, nil
}
func (stubEngine) PingContext(ctx context.Context) error { return nil }

func newServer(secret string) *echo.Echo {
	log := logrus.New()
	log.SetOutput(io.Discard)
	e := echo.New()
	RegisterRoutes(e, Deps{
		JWTSecret:     secret,
		DB:            stubEngine{},
		Inventory:     handler.NewInventoryHandler(stubEngine{}, log),
		Bookings:      handler.NewBookingHandler(stubEngine{}, log),
		Cancellations: handler.NewCancellationHandler(stubEngine{}, log),
		Tracking:      handler.NewTrackingHandler(tracking.NewStore()),
	})
	return e
}

func token(t *testing.T, secret string, sub uint64, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "role": role, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func call(e *echo.Echo, method, path, body, bearer string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutesWithAuth(t *testing.T) {
	const secret = "s3cret"
	e := newServer(secret)
	passenger := token(t, secret, 9, "PASSENGER")
	admin := token(t, secret, 77, "ADMIN")
	booking := `{"passenger_id":9,"schedule_id":1,"seat_number":"A1","original_price_cents":50000}`

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", "", ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/schedules/1/seats", "", ""))

	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/v1/bookings", booking, ""))
	assert.Equal(t, http.StatusCreated, call(e, http.MethodPost, "/v1/bookings", booking, passenger))
	assert.Equal(t, http.StatusAccepted, call(e, http.MethodPost, "/v1/tickets/1/cancellation", `{"reason":"ill"}`, passenger))

	assert.Equal(t, http.StatusForbidden, call(e, http.MethodPost, "/v1/tickets/1/cancellation/confirm", `{"admin_id":9}`, passenger))
	assert.Equal(t, http.StatusOK, call(e, http.MethodPost, "/v1/tickets/1/cancellation/confirm", `{"admin_id":77}`, admin))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodPost, "/v1/tickets/1/cancellation/confirm", `{"admin_id":78}`, admin))
}

func TestRoutesWithoutAuth(t *testing.T) {
	e := newServer("")
	assert.Equal(t, http.StatusCreated, call(e, http.MethodPost, "/v1/bookings",
		`{"passenger_id":9,"schedule_id":1,"seat_number":"A1","original_price_cents":0}`, ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodPost, "/v1/tickets/1/cancellation/confirm", `{"admin_id":1}`, ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodPut, "/v1/trains/3/location", `{"latitude":1,"longitude":2}`, ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/trains/3/location", "", ""))
}
