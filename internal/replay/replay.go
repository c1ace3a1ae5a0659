// Package replay writes a stored record back to the system clipboard.
package replay

import (
	"context"
	"fmt"
	"log/slog"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/hub"
	"go.klb.dev/clipstash/internal/monitor"
)

// Store is the slice of history.Store used by a Replayer.
type Store interface {
	Get(ctx context.Context, id int64) (history.Record, error)
	Touch(ctx context.Context, id int64) error
}

// Replayer puts history back on the clipboard without it being recaptured.
type Replayer struct {
	store Store
	clip  clip.Backend
	latch *monitor.Latch
	pub   monitor.Publisher
}

// New returns a Replayer sharing latch with the monitor. pub may be nil.
func New(store Store, backend clip.Backend, latch *monitor.Latch, pub monitor.Publisher) *Replayer {
	return &Replayer{store: store, clip: backend, latch: latch, pub: pub}
}

// Paste writes record id to the clipboard and bumps its timestamp.
func (r *Replayer) Paste(ctx context.Context, id int64) (history.Record, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return history.Record{}, fmt.Errorf("paste: %w", err)
	}

	r.latch.Set()
	switch rec.ContentType {
	case history.Image:
		err = r.clip.WriteImage(rec.Content)
	default:
		err = r.clip.WriteText(rec.Content)
	}
	if err != nil {
		// Nothing reached the clipboard, so no notification will consume it.
		r.latch.Consume()
		return history.Record{}, fmt.Errorf("paste %d: write clipboard: %w", id, err)
	}

	if err := r.store.Touch(ctx, id); err != nil {
		return history.Record{}, fmt.Errorf("paste: %w", err)
	}
	slog.Info("clipboard replayed", "id", id, "type", rec.ContentType)

	if r.pub != nil {
		r.pub.Publish(hub.Event{Kind: hub.KindTouched, ID: id, ContentType: string(rec.ContentType), SourceApp: rec.SourceApp})
	}
	return rec, nil
}
