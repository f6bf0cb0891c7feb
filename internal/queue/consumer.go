package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/lms-client/internal/notify"
)

const maxBackoff = 30 * time.Second

// ErrSkipped marks a well-formed event the consumer chose not to deliver.
var ErrSkipped = errors.New("queue: event skipped")

// Consumer moves broadcast notifications from the broker into a Notifier,
// usually the shell's notify.Center.
type Consumer struct {
	URL    string
	Self   string // origin of this client's own events; those are skipped
	Sink   notify.Notifier
	Logger *slog.Logger
}

// StartNotificationConsumer connects to url, binds a private queue to the
// notification exchange and delivers every event to sink until ctx is
// cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.
func StartNotificationConsumer(ctx context.Context, url, self string, sink notify.Notifier, logger *slog.Logger) error {
	c := &Consumer{URL: url, Self: self, Sink: sink, Logger: logger}
	return c.Run(ctx)
}

// Run blocks until ctx is done and then returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("notification consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("notification consumer: consume loop ended; reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("notification consumer: set QoS failed", "err", err)
	}
	name, err := bindQueue(ch)
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(name, "", false, true, false, false, nil)
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
			err := c.Handle(ctx, d.Body)
			switch {
			case err == nil, errors.Is(err, ErrSkipped):
				_ = d.Ack(false)
			default:
				c.Logger.Warn("notification consumer: handle message failed", "err", err)
				_ = d.Nack(false, false) // no requeue; a poison message would loop
			}
		}
	}
}

// binder is the part of *amqp.Channel that sets up the consumer's queue.
type binder interface {
	ExchangeDeclarer
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// bindQueue declares the exchange and an exclusive, auto-deleted,
// server-named queue bound to it, and returns the queue name.  Each client
// gets its own copy of every notification.
func bindQueue(ch binder) (string, error) {
	if err := DeclareExchange(ch); err != nil {
		return "", fmt.Errorf("exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", NotificationExchange, false, nil); err != nil {
		return "", fmt.Errorf("queue bind: %w", err)
	}
	return q.Name, nil
}

// Handle decodes one message body and delivers it.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if strings.TrimSpace(ev.Message) == "" {
		return errors.New("empty message")
	}
	if c.Self != "" && ev.Origin == c.Self {
		return ErrSkipped
	}
	c.Sink.Notify(ctx, ev.Notification())
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
