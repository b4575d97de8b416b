package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DeliveryMarker records that a notification left the system.
type DeliveryMarker interface {
	MarkDelivered(ctx context.Context, id uint64, at time.Time) error
}

// NotificationConsumer stands in for the external notification channel:
// every confirmed cancellation is appended to <dir>/notifications.log and
// its notification row is marked delivered.
type NotificationConsumer struct {
	url    string
	dir    string
	marker DeliveryMarker
	log    logrus.FieldLogger
}

func NewNotificationConsumer(url, dir string, marker DeliveryMarker, log logrus.FieldLogger) *NotificationConsumer {
	return &NotificationConsumer{url: url, dir: dir, marker: marker, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff (capped at 30s) when the broker is unreachable or the channel
// closes.  It returns nil on cancellation.
func (c *NotificationConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("notification-consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("notification-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *NotificationConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("notification-consumer: set QoS failed")
	}
	if _, err := declare(ch, CancellationConfirmedQueue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, CancellationConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.WithError(err).Error("notification-consumer: handle message failed")
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *NotificationConsumer) handle(ctx context.Context, body []byte) error {
	var ev CancellationConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Cancellation confirmed | notification_id=%d | ticket_id=%d | passenger_id=%d | schedule_id=%d | seat=%s | admin_id=%d | message=%q\n",
		ev.ConfirmedAt, ev.NotificationID, ev.TicketID, ev.PassengerID, ev.ScheduleID, ev.SeatNumber, ev.AdminID, ev.Message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	if c.marker != nil && ev.NotificationID != 0 {
		if err := c.marker.MarkDelivered(ctx, ev.NotificationID, time.Now().UTC()); err != nil {
			// the line is written; a redelivery would only duplicate it
			c.log.WithError(err).WithField("notification_id", ev.NotificationID).Warn("notification-consumer: mark delivered failed")
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
