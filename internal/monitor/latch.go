package monitor

import "sync/atomic"

// Latch marks the next clipboard change as self-inflicted. The replayer sets
// it immediately before writing to the clipboard; the monitor consumes it on
// the following change notification and skips that capture.
type Latch struct {
	set atomic.Bool
}

// Set arms the latch.
func (l *Latch) Set() { l.set.Store(true) }

// Consume disarms the latch and reports whether it was armed.
func (l *Latch) Consume() bool { return l.set.Swap(false) }

// IsSet reports the current state without changing it.
func (l *Latch) IsSet() bool { return l.set.Load() }
