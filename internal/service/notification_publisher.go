// Package service publishes session notifications to RabbitMQ so other
// processes (audit, a desktop tray) can follow what the client shows.
// Failures are logged and never reach the session flows.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/lms-client/internal/notify"
	q "github.com/iliyamo/lms-client/internal/queue"
)

// PublishTimeout bounds a single publish.
const PublishTimeout = 2 * time.Second

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// NotificationPublisher implements notify.Notifier over a broker channel.
type NotificationPublisher struct {
	mu     sync.Mutex
	ch     Channel
	origin string
	logger *slog.Logger
}

func NewNotificationPublisher(ch Channel, origin string, logger *slog.Logger) *NotificationPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationPublisher{ch: ch, origin: origin, logger: logger}
}

// DialNotificationPublisher connects to url and declares the notification
// exchange.  The returned closer releases the channel and the connection.
func DialNotificationPublisher(url, origin string, logger *slog.Logger) (*NotificationPublisher, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := q.DeclareExchange(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return NewNotificationPublisher(ch, origin, logger), closers{ch, conn}, nil
}

// Notify publishes n as a persistent JSON message on the notification
// exchange.
func (p *NotificationPublisher) Notify(ctx context.Context, n notify.Notification) {
	if err := p.Publish(ctx, n); err != nil {
		p.logger.Warn("rabbitmq: publish notification failed", "id", n.ID, "err", err)
	}
}

// Publish is Notify with the error returned.
func (p *NotificationPublisher) Publish(ctx context.Context, n notify.Notification) error {
	body, err := json.Marshal(q.EventFrom(n, p.origin))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, q.NotificationExchange, "", false, false, pub)
}

type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
