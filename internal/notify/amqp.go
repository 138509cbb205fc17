package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPDispatcher publishes combined notifications to a durable queue on
// the default exchange. Each dispatch opens its own connection so a broker
// restart between runs never leaves the scanner holding a dead channel;
// the scan fires once a day, so connection churn is irrelevant.
type AMQPDispatcher struct {
	url    string
	queue  string
	logger *slog.Logger
}

// NewAMQPDispatcher creates an AMQP dispatcher. queue defaults to
// DefaultQueue when empty.
func NewAMQPDispatcher(url, queue string, logger *slog.Logger) *AMQPDispatcher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPDispatcher{url: url, queue: queue, logger: logger}
}

// Dispatch publishes the notification as a persistent JSON message.
func (d *AMQPDispatcher) Dispatch(ctx context.Context, n Notification) error {
	conn, err := amqp.Dial(d.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(d.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare %q: %w", d.queue, err)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(n.Kind),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", d.queue, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}

	d.logger.Info("Notification published",
		"queue", d.queue, "kind", string(n.Kind), "items", len(n.Items))
	return nil
}
