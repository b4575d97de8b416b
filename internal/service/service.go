// Package service implements the seat inventory and booking transaction
// engine: fare resolution, discount validation, atomic seat booking and the
// two-step cancellation workflow.  Every multi-row effect runs in a single
// MySQL transaction; races are settled by conditional updates whose row
// count decides the winner.
package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/queue"
	"github.com/iliyamo/rail-seat-booking/internal/repository"
)

// EventPublisher receives domain events after the transaction that
// produced them has committed.  Failures are logged and never undo the
// commit.
type EventPublisher interface {
	PublishTicketBooked(ctx context.Context, ev queue.TicketBookedEvent) error
	PublishCancellationConfirmed(ctx context.Context, ev queue.CancellationConfirmedEvent) error
}

// SeatCache is told when a schedule's seat map changed so cached listings
// can be dropped.
type SeatCache interface {
	InvalidateSchedule(ctx context.Context, scheduleID uint64)
}

// Options carries the collaborators shared by all services.  Zero values
// are replaced by defaults.
type Options struct {
	TxTimeout time.Duration
	Logger    logrus.FieldLogger
	Publisher EventPublisher
	SeatCache SeatCache
	Gateway   PaymentGateway
	Clock     func() time.Time
	// Pending tracks background event publishes.  Share one across
	// services to drain them all on shutdown.
	Pending *sync.WaitGroup
}

const afterCommitTimeout = 3 * time.Second

// engine is the state every service embeds.
type engine struct {
	store     *repository.Store
	tx        txRunner
	log       logrus.FieldLogger
	publisher EventPublisher
	cache     SeatCache
	gateway   PaymentGateway
	clock     func() time.Time
	pending   *sync.WaitGroup
}

func newEngine(store *repository.Store, opts Options) engine {
	if store == nil {
		panic("nil store passed to service")
	}
	e := engine{
		store:     store,
		tx:        txRunner{db: store.DB, timeout: opts.TxTimeout},
		log:       opts.Logger,
		publisher: opts.Publisher,
		cache:     opts.SeatCache,
		gateway:   opts.Gateway,
		clock:     opts.Clock,
		pending:   opts.Pending,
	}
	if e.tx.timeout <= 0 {
		e.tx.timeout = 5 * time.Second
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	if e.gateway == nil {
		e.gateway = SimulatedGateway{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.pending == nil {
		e.pending = &sync.WaitGroup{}
	}
	return e
}

// now returns the current time in UTC truncated to seconds, matching the
// precision of DATETIME columns.
func (e engine) now() time.Time {
	return e.clock().UTC().Truncate(time.Second)
}

// afterCommit runs side effects that must not affect the request outcome.
// The cache is invalidated before returning; the event is published in the
// background so a slow broker does not hold up the response.
func (e engine) afterCommit(ctx context.Context, scheduleID uint64, publish func(ctx context.Context, p EventPublisher) error) {
	ctx = context.WithoutCancel(ctx)
	if e.cache != nil {
		invCtx, cancel := context.WithTimeout(ctx, afterCommitTimeout)
		e.cache.InvalidateSchedule(invCtx, scheduleID)
		cancel()
	}
	if e.publisher == nil || publish == nil {
		return
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		pubCtx, cancel := context.WithTimeout(ctx, afterCommitTimeout)
		defer cancel()
		if err := publish(pubCtx, e.publisher); err != nil {
			e.log.WithError(err).WithField("schedule_id", scheduleID).Warn("event publish failed")
		}
	}()
}

// Wait blocks until background publishes started so far have finished.
func (e engine) Wait() {
	e.pending.Wait()
}
