package notify

import (
	"context"
	"sync"
)

// DefaultHistory is the number of notifications a Center keeps.
const DefaultHistory = 50

// Center is the in-memory notification center: a bounded, newest-last
// history plus synchronous subscribers.
type Center struct {
	mu    sync.Mutex
	limit int
	items []Notification
	subs  map[int]func(Notification)
	next  int
}

// NewCenter returns a Center keeping at most limit notifications.
func NewCenter(limit int) *Center {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Center{limit: limit, subs: make(map[int]func(Notification))}
}

// Notify records n, evicting the oldest entry when full, then calls every
// subscriber outside the lock.
func (c *Center) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	c.items = append(c.items, n)
	if over := len(c.items) - c.limit; over > 0 {
		c.items = append([]Notification(nil), c.items[over:]...)
	}
	subs := make([]func(Notification), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Recent returns a copy of the history, oldest first.
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Dismiss removes the notification with id and reports whether it existed.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops the whole history.
func (c *Center) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Subscribe registers fn for every future notification.
func (c *Center) Subscribe(fn func(Notification)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
