package events

import (
	"context"
	"sync"
)

// Collector is a Sink that keeps every event in memory. It is safe for
// concurrent use.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (c *Collector) Emit(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := make([]Event, len(c.events))
	copy(cp, c.events)
	return cp
}

// Kinds returns the kinds of the recorded events in order.
func (c *Collector) Kinds() []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := make([]Kind, len(c.events))
	for i, e := range c.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// OfKind returns the recorded events of kind k.
func (c *Collector) OfKind(k Kind) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Event
	for _, e := range c.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
