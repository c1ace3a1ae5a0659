// Package monitor turns clipboard change notifications into history records.
//
// Each notification passes four stages in order: the self-write latch, the
// sensitive-source filter, content extraction (text preferred over image) and
// the store upsert. A rejected or empty change is dropped quietly; a failed
// upsert is logged and published as an error event, and the loop carries on.
package monitor

import (
	"context"
	"log/slog"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/codec"
	"go.klb.dev/clipstash/internal/focus"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/hub"
	"go.klb.dev/clipstash/internal/logging"
)

// Store is the slice of history.Store the monitor writes through.
type Store interface {
	Upsert(ctx context.Context, typ history.ContentType, content []byte, sourceApp, iconPath string) (int64, error)
}

// Publisher receives change events.
type Publisher interface {
	Publish(hub.Event)
}

type outcome int

const (
	outcomeStored outcome = iota
	outcomeSelfWrite
	outcomeSensitive
	outcomeEmpty
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeStored:
		return "stored"
	case outcomeSelfWrite:
		return "self-write"
	case outcomeSensitive:
		return "sensitive"
	case outcomeEmpty:
		return "empty"
	case outcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Monitor owns the capture loop.
type Monitor struct {
	store  Store
	clip   clip.Backend
	focus  focus.Provider
	latch  *Latch
	pub    Publisher
	deny   []string
	logger *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithDenyList replaces DefaultDenyList.
func WithDenyList(deny []string) Option {
	return func(m *Monitor) { m.deny = deny }
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// New wires a monitor. latch is shared with the replayer; pub may be nil.
func New(store Store, backend clip.Backend, provider focus.Provider, latch *Latch, pub Publisher, opts ...Option) *Monitor {
	m := &Monitor{
		store:  store,
		clip:   backend,
		focus:  provider,
		latch:  latch,
		pub:    pub,
		deny:   DefaultDenyList,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run processes change notifications until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("clipboard monitor started", "backend", m.clip.Name())
	watch := m.clip.Watch()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("clipboard monitor stopped")
			return
		case <-watch:
			m.handleChange(ctx)
		}
	}
}

func (m *Monitor) handleChange(ctx context.Context) outcome {
	if m.latch.Consume() {
		m.logger.Debug("clipboard change skipped", "reason", outcomeSelfWrite)
		return outcomeSelfWrite
	}

	fc := m.focus.Current(ctx)
	if IsSensitive(fc.AppName, m.deny) {
		m.logger.Debug("clipboard change skipped", "reason", outcomeSensitive, "source", fc.AppName)
		return outcomeSensitive
	}
	app := fc.AppName
	if app == "" {
		app = history.UnknownApp
	}

	typ, content, ok := m.extract()
	if !ok {
		m.logger.Debug("clipboard change skipped", "reason", outcomeEmpty)
		return outcomeEmpty
	}

	id, err := m.store.Upsert(ctx, typ, content, app, fc.IconPath)
	if err != nil {
		m.logger.Error("store capture", "type", typ, "source", app, "err", err)
		m.publish(hub.Event{Kind: hub.KindError, ContentType: string(typ), SourceApp: app, Err: err.Error()})
		return outcomeFailed
	}

	logging.LogCapture(m.logger, id, string(typ), app, content)
	m.publish(hub.Event{Kind: hub.KindCaptured, ID: id, ContentType: string(typ), SourceApp: app})
	return outcomeStored
}

// extract reads text first and falls back to an image.
func (m *Monitor) extract() (history.ContentType, []byte, bool) {
	if text, ok := m.clip.ReadText(); ok {
		return history.Text, text, true
	}
	if raw, ok := m.clip.ReadImage(); ok {
		png := codec.EncodeImage(raw)
		if len(png) == 0 {
			m.logger.Warn("clipboard image has inconsistent dimensions", "width", raw.Width, "height", raw.Height, "bytes", len(raw.Pix))
		}
		return history.Image, png, true
	}
	return "", nil, false
}

func (m *Monitor) publish(e hub.Event) {
	if m.pub != nil {
		m.pub.Publish(e)
	}
}
