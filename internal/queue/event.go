// Package queue defines the notification payload exchanged over the message
// broker and the consumer that feeds broadcasts into the notification center.
package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/lms-client/internal/notify"
)

// NotificationExchange is the durable fanout exchange carrying
// notifications.  Every bound queue receives every message.
const NotificationExchange = "lms.notifications"

// DeclareExchange declares the notification exchange on ch.
func DeclareExchange(ch ExchangeDeclarer) error {
	return ch.ExchangeDeclare(NotificationExchange, "fanout", true, false, false, false, nil)
}

// ExchangeDeclarer is the part of *amqp.Channel that declares exchanges.
type ExchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

// NotificationEvent is the wire form of a notification.  Origin identifies
// the publishing client so a consumer can skip its own echoes.
type NotificationEvent struct {
	ID        string       `json:"id"`
	Level     notify.Level `json:"level"`
	Message   string       `json:"message"`
	Source    string       `json:"source,omitempty"`
	Origin    string       `json:"origin,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// EventFrom wraps n for publishing.
func EventFrom(n notify.Notification, origin string) NotificationEvent {
	return NotificationEvent{
		ID:        n.ID,
		Level:     n.Level,
		Message:   n.Message,
		Source:    n.Source,
		Origin:    origin,
		CreatedAt: n.CreatedAt,
	}
}

// Notification converts the event back, filling a missing id, time or level.
func (e NotificationEvent) Notification() notify.Notification {
	n := notify.New(e.Level, e.Message)
	if e.ID != "" {
		n.ID = e.ID
	}
	if !e.CreatedAt.IsZero() {
		n.CreatedAt = e.CreatedAt
	}
	if n.Level == "" {
		n.Level = notify.LevelInfo
	}
	n.Source = e.Source
	if n.Source == "" {
		n.Source = "broadcast"
	}
	return n
}
