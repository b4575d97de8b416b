package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/rail-seat-booking/internal/config"
)

// startRedis returns a client for a throwaway Redis container.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis integration skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisBackedMiddleware(t *testing.T) {
	rdb := startRedis(t)
	log := quietLogger()

	t.Run("seat map cache hit and invalidation", func(t *testing.T) {
		cache := NewSeatMapCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "test"}, rdb, log)
		var calls int32
		e := echo.New()
		e.GET("/v1/schedules/:id/seats", func(c echo.Context) error {
			n := atomic.AddInt32(&calls, 1)
			return c.JSON(http.StatusOK, echo.Map{"call": n})
		}, cache.Middleware())

		get := func() *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/schedules/3/seats", nil))
			return rec
		}

		first := get()
		assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
		second := get()
		assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
		assert.JSONEq(t, first.Body.String(), second.Body.String())

		cache.InvalidateSchedule(context.Background(), 3)
		third := get()
		assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
		assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	})

	t.Run("invalidation during render is not cached", func(t *testing.T) {
		cache := NewSeatMapCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "test-race"}, rdb, log)
		var calls int32
		started, release := make(chan struct{}, 1), make(chan struct{})
		e := echo.New()
		e.GET("/v1/schedules/:id/seats", func(c echo.Context) error {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				started <- struct{}{}
				<-release
			}
			return c.JSON(http.StatusOK, echo.Map{"call": n})
		}, cache.Middleware())

		get := func() *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/schedules/5/seats", nil))
			return rec
		}

		done := make(chan *httptest.ResponseRecorder)
		go func() { done <- get() }()
		<-started
		cache.InvalidateSchedule(context.Background(), 5)
		close(release)
		stale := <-done
		assert.JSONEq(t, `{"call":1}`, stale.Body.String())

		next := get()
		assert.Equal(t, "MISS", next.Header().Get("X-Cache"))
		assert.JSONEq(t, `{"call":2}`, next.Body.String())
		assert.Equal(t, "HIT", get().Header().Get("X-Cache"))
		assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	})

	t.Run("idempotent replay", func(t *testing.T) {
		cfg := config.IdempotencyConfig{Enabled: true, TTL: time.Minute, LockTTL: 5 * time.Second, Prefix: "idem-test"}
		var calls int32
		e := echo.New()
		e.POST("/v1/bookings", func(c echo.Context) error {
			var req struct {
				SeatID int `json:"seat_id"`
			}
			if err := c.Bind(&req); err != nil {
				return err
			}
			n := atomic.AddInt32(&calls, 1)
			return c.JSON(http.StatusCreated, echo.Map{"ticket_id": n, "seat_id": req.SeatID})
		}, Idempotency(cfg, rdb, log))

		post := func(key, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			req.Header.Set(HeaderIdempotencyKey, key)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			return rec
		}

		a := post("abc", `{"seat_id":7}`)
		b := post("abc", `{"seat_id":7}`)
		c := post("other", `{"seat_id":7}`)
		assert.Equal(t, http.StatusCreated, a.Code)
		assert.JSONEq(t, `{"ticket_id":1,"seat_id":7}`, a.Body.String())
		assert.Equal(t, http.StatusCreated, b.Code)
		assert.Equal(t, "true", b.Header().Get("Idempotent-Replay"))
		assert.JSONEq(t, a.Body.String(), b.Body.String())
		assert.JSONEq(t, `{"ticket_id":2,"seat_id":7}`, c.Body.String())

		reused := post("abc", `{"seat_id":8}`)
		assert.Equal(t, http.StatusUnprocessableEntity, reused.Code)
		assert.JSONEq(t, `{"error":"idempotency key reused with a different request"}`, reused.Body.String())
		assert.Empty(t, reused.Header().Get("Idempotent-Replay"))
		assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	})

	t.Run("in-flight duplicate gets 409", func(t *testing.T) {
		cfg := config.IdempotencyConfig{Enabled: true, TTL: time.Minute, LockTTL: 5 * time.Second, Prefix: "idem-lock"}
		started, release := make(chan struct{}), make(chan struct{})
		e := echo.New()
		e.POST("/v1/bookings", func(c echo.Context) error {
			close(started)
			<-release
			return c.JSON(http.StatusCreated, echo.Map{"ok": true})
		}, Idempotency(cfg, rdb, log))

		done := make(chan int)
		go func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
			req.Header.Set(HeaderIdempotencyKey, "slow")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			done <- rec.Code
		}()
		<-started

		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
		req.Header.Set(HeaderIdempotencyKey, "slow")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)

		req = httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(`{"seat_id":9}`))
		req.Header.Set(HeaderIdempotencyKey, "slow")
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		close(release)
		assert.Equal(t, http.StatusCreated, <-done)
	})

	t.Run("token bucket blocks after capacity", func(t *testing.T) {
		cfg := config.RateLimitConfig{
			Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
			TTL: time.Hour, KeyStrategy: "route", Prefix: fmt.Sprintf("rl-%d", time.Now().UnixNano()),
		}
		e := echo.New()
		e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb, log))

		codes := make([]int, 3)
		for i := range codes {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
			codes[i] = rec.Code
		}
		assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	})
}
