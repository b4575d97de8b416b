package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/rail-seat-booking/internal/config"
	"github.com/iliyamo/rail-seat-booking/internal/database"
	"github.com/iliyamo/rail-seat-booking/internal/handler"
	"github.com/iliyamo/rail-seat-booking/internal/logger"
	"github.com/iliyamo/rail-seat-booking/internal/middleware"
	"github.com/iliyamo/rail-seat-booking/internal/queue"
	"github.com/iliyamo/rail-seat-booking/internal/repository"
	"github.com/iliyamo/rail-seat-booking/internal/router"
	"github.com/iliyamo/rail-seat-booking/internal/service"
	"github.com/iliyamo/rail-seat-booking/internal/tracking"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting, seat-map cache and idempotency disabled")
	} else {
		defer rdb.Close()
	}

	seatCache := middleware.NewSeatMapCache(config.LoadCacheConfig(), rdb, log)
	store := repository.NewStore(db)
	var pending sync.WaitGroup
	opts := service.Options{
		TxTimeout: cfg.TxTimeout,
		Logger:    log,
		Publisher: queue.NewPublisher(cfg.RabbitURL, log),
		SeatCache: seatCache,
		Pending:   &pending,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router.RegisterRoutes(e, router.Deps{
		JWTSecret:     cfg.JWTSecret,
		DB:            db,
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		SeatCache:     seatCache,
		Idempotency:   middleware.Idempotency(config.LoadIdempotencyConfig(), rdb, log),
		Inventory:     handler.NewInventoryHandler(service.NewInventoryService(store, opts), log),
		Bookings:      handler.NewBookingHandler(service.NewBookingService(store, opts), log),
		Cancellations: handler.NewCancellationHandler(service.NewCancellationService(store, opts), log),
		Tracking:      handler.NewTrackingHandler(tracking.NewStore()),
	})

	consumer := queue.NewNotificationConsumer(cfg.RabbitURL, cfg.NotificationDir, store.Notifications, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("starting http server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting notification consumer")
		return consumer.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down http server")
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("draining pending events")
	pending.Wait()
	return err
}
