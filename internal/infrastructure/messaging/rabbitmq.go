package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"user-directory.backend/internal/domain/events"
)

const exchangeKind = "topic"

var dialAMQP = amqp.Dial

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dial connects to the broker
func Dial(url string) (*amqp.Connection, error) {
	conn, err := dialAMQP(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}
	return conn, nil
}

// RabbitPublisher publishes user events to a topic exchange, routed by event type
type RabbitPublisher struct {
	openChannel func() (amqpChannel, error)
	exchange    string
}

// NewRabbitPublisher creates a publisher on conn
func NewRabbitPublisher(conn *amqp.Connection, exchange string) *RabbitPublisher {
	return &RabbitPublisher{
		openChannel: func() (amqpChannel, error) { return conn.Channel() },
		exchange:    exchange,
	}
}

// Publish sends event as a persistent JSON message
func (p *RabbitPublisher) Publish(ctx context.Context, event events.UserEvent) error {
	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange failed: %w", err)
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload failed: %w", err)
	}

	if err := ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("publish event failed: %w", err)
	}
	return nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, events.UserEvent) error { return nil }
