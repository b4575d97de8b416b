package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rail-seat-booking/internal/queue"
	"github.com/iliyamo/rail-seat-booking/internal/repository"
)

var fixedNow = time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

type fakeGateway struct{ ref string }

func (g fakeGateway) Capture(ctx context.Context, passengerID uint64, amountCents int64) (string, error) {
	return g.ref, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	booked    []queue.TicketBookedEvent
	confirmed []queue.CancellationConfirmedEvent
}

func (p *recordingPublisher) PublishTicketBooked(ctx context.Context, ev queue.TicketBookedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.booked = append(p.booked, ev)
	return nil
}

func (p *recordingPublisher) PublishCancellationConfirmed(ctx context.Context, ev queue.CancellationConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, ev)
	return nil
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []uint64
}

func (c *recordingCache) InvalidateSchedule(ctx context.Context, scheduleID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, scheduleID)
}

type mockEnv struct {
	store     *repository.Store
	mock      sqlmock.Sqlmock
	publisher *recordingPublisher
	cache     *recordingCache
	opts      Options
}

func newMockEnv(t *testing.T) *mockEnv {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	env := &mockEnv{
		store:     repository.NewStore(sqlx.NewDb(raw, "mysql")),
		mock:      mock,
		publisher: &recordingPublisher{},
		cache:     &recordingCache{},
	}
	env.opts = Options{
		TxTimeout: time.Second,
		Publisher: env.publisher,
		SeatCache: env.cache,
		Gateway:   fakeGateway{ref: "PAY-test"},
		Clock:     func() time.Time { return fixedNow },
	}
	return env
}

func (e *mockEnv) expectScheduleRoute(id uint64, status string, distance float64) {
	e.mock.ExpectQuery("FROM schedules s").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id", "status", "distance_km"}).AddRow(id, status, distance))
}

func (e *mockEnv) expectSeat(scheduleID uint64, seat string, coach int, class string, available bool) {
	e.mock.ExpectQuery("FROM seat_inventory").WithArgs(scheduleID, seat).
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "seat_number", "coach_number", "class_type", "seat_row", "seat_col", "is_available", "updated_at"}).
			AddRow(1, scheduleID, seat, coach, class, 1, 1, available, fixedNow))
}

func (e *mockEnv) expectFare(coach int, class string, perKm int64) {
	e.mock.ExpectQuery("FROM fares").WithArgs(coach, class).
		WillReturnRows(sqlmock.NewRows([]string{"id", "coach_number", "class_type", "per_km_fare_cents"}).AddRow(1, coach, class, perKm))
}

func (e *mockEnv) expectDiscount(code string, passengerID uint64, pct int, usedAt interface{}) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	e.mock.ExpectQuery("FROM discount_codes").WithArgs(code, passengerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "passenger_id", "percentage", "start_date", "end_date", "used_at"}).
			AddRow(1, code, passengerID, pct, start, end, usedAt))
}

func (e *mockEnv) expectTicket(id uint64, passengerID uint64, status string) {
	e.mock.ExpectQuery("FROM tickets").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "passenger_id", "schedule_id", "seat_number", "price_cents", "status", "booked_at"}).
			AddRow(id, 21, passengerID, 1, "A1", 50000, status, fixedNow))
}

func ptr[T any](v T) *T { return &v }
