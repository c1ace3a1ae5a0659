// Package hub fans out "history changed" notifications. It is
// transport-agnostic: subscribers register, receive events via Send, and the
// monitor and replayer publish after every successful write.
package hub

import (
	"log/slog"
	"sync"
	"time"
)

// Kind classifies an Event.
type Kind string

const (
	// KindCaptured follows a monitor upsert: a new record or a re-copy.
	KindCaptured Kind = "captured"
	// KindTouched follows a timestamp bump from a replay or explicit touch.
	KindTouched Kind = "touched"
	// KindError reports a capture that could not be stored.
	KindError Kind = "error"
)

// Event is a history change delivered to subscribers.
type Event struct {
	Kind        Kind      `json:"kind"`
	ID          int64     `json:"id,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	SourceApp   string    `json:"source_app,omitempty"`
	Err         string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

// Subscriber is anything that can receive events from the hub.
type Subscriber interface {
	ID() string
	// Send delivers an event. Must be non-blocking.
	Send(Event)
}

// Hub routes history events to every registered subscriber.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	latest *Event
	now    func() time.Time
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		subs: make(map[string]Subscriber),
		now:  time.Now,
	}
}

// Register adds a subscriber and immediately delivers the most recent event,
// if any, so a late subscriber knows whether it missed something.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s.ID()] = s
	latest := h.latest
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber registered", "subscriber", s.ID(), "total", total)

	if latest != nil {
		s.Send(*latest)
	}
}

// Unregister removes a subscriber from the hub.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.ID())
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber unregistered", "subscriber", s.ID(), "total", total)
}

// Publish records e as the latest event and fans it out. A zero At is
// stamped with the current time.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = h.now().UTC()
	}

	h.mu.Lock()
	h.latest = &e
	targets := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.Send(e)
	}
}

// Latest returns the most recently published event.
func (h *Hub) Latest() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Event{}, false
	}
	return *h.latest, true
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
