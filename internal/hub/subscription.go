package hub

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscription queue length used by Subscribe.
const DefaultBuffer = 16

// Subscription is a channel-backed Subscriber. When its queue is full the
// oldest pending event is dropped in favour of the newest, so a slow reader
// coalesces a burst rather than stalling publishers.
type Subscription struct {
	id string
	h  *Hub
	ch chan Event

	mu     sync.Mutex
	closed bool
}

// Subscribe registers a new Subscription with a queue of size buffer
// (DefaultBuffer when buffer <= 0).
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{
		id: uuid.NewString(),
		h:  h,
		ch: make(chan Event, buffer),
	}
	h.Register(s)
	return s
}

func (s *Subscription) ID() string { return s.id }

// Events returns the receive side of the queue. It is closed by Close.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Send enqueues e without blocking.
func (s *Subscription) Send(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- e:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Close unregisters the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.h.Unregister(s)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
