package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/database"
)

const (
	mysqlDuplicateEntry   = 1062
	mysqlLockWaitTimeout  = 1205
	mysqlDeadlockDetected = 1213
)

// txRunner bounds every unit of work with a timeout and translates driver
// failures into the engine's error taxonomy.
type txRunner struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r txRunner) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// inTx runs fn in one READ COMMITTED transaction.
func (r txRunner) inTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error { return fn(ctx, tx) })
	return classify(ctx, err)
}

// read runs a non-transactional read under the same bound.
func (r txRunner) read(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return classify(ctx, fn(ctx))
}

func classify(ctx context.Context, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return classifyStoreError(err)
}

// classifyStoreError maps driver and network failures onto ErrTimeout,
// ErrStoreUnavailable or ErrSeatUnavailable.  Anything else is returned
// unchanged.
func classifyStoreError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlLockWaitTimeout, mysqlDeadlockDetected:
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		case mysqlDuplicateEntry:
			if strings.Contains(me.Message, database.LiveSeatIndex) {
				return fmt.Errorf("%w: %v", ErrSeatUnavailable, err)
			}
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
