package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends domain events to RabbitMQ.  Each publish dials, declares
// the durable queue and sends one persistent message; events are rare
// enough that a long-lived channel is not worth its reconnect handling.
type Publisher struct {
	url string
	log logrus.FieldLogger
}

func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishTicketBooked publishes ev to the ticket.booked queue.
func (p *Publisher) PublishTicketBooked(ctx context.Context, ev TicketBookedEvent) error {
	return p.publish(ctx, TicketBookedQueue, ev)
}

// PublishCancellationConfirmed publishes ev to the
// ticket.cancellation_confirmed queue.
func (p *Publisher) PublishCancellationConfirmed(ctx context.Context, ev CancellationConfirmedEvent) error {
	return p.publish(ctx, CancellationConfirmedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", queueName, err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(2 * time.Second)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, queueName); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	if p.log != nil {
		p.log.WithField("queue", queueName).Debug("event published")
	}
	return nil
}

// declare makes sure a durable, non-exclusive queue exists.
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}
