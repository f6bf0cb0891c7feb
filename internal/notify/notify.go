// Package notify carries transient user-visible notifications (toasts)
// raised by the session flows, and keeps a short history of them for the
// notification center.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Level is the severity shown with a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is one toast.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New stamps a notification with a fresh id and the current time.
func New(level Level, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier delivers a notification.  Implementations must not block the
// caller for long and must never fail the caller's flow.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans one notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

// Log writes notifications to a structured logger.
type Log struct{ Logger *slog.Logger }

func (l Log) Notify(ctx context.Context, n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lvl := slog.LevelInfo
	switch n.Level {
	case LevelError:
		lvl = slog.LevelError
	case LevelWarning:
		lvl = slog.LevelWarn
	}
	logger.Log(ctx, lvl, "notification", "id", n.ID, "severity", string(n.Level), "message", n.Message)
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) {})
