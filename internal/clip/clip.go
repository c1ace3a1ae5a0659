// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  Windows via golang.design/x/clipboard + AddClipboardFormatListener
//	clip_linux.go    Linux via golang.design/x/clipboard, fingerprint polling
//	clip_other.go    everything else, in-memory
//
// When the display is unavailable New falls back to the in-memory backend.
package clip

import (
	"time"

	"go.klb.dev/clipstash/internal/codec"
)

// DefaultPollInterval is used by polling backends when Options leaves it unset.
const DefaultPollInterval = 500 * time.Millisecond

// Options tunes backend construction.
type Options struct {
	// PollInterval applies to backends without native change notification.
	PollInterval time.Duration
}

func (o Options) pollInterval() time.Duration {
	if o.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return o.PollInterval
}

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the clipboard's plain text representation. ok is false
	// when the clipboard holds no text.
	ReadText() (text []byte, ok bool)

	// ReadImage returns the clipboard's raster image as a raw pixel buffer.
	// ok is false when the clipboard holds no image.
	ReadImage() (img codec.RawImage, ok bool)

	// WriteText replaces the clipboard contents with text.
	WriteText(text []byte) error

	// WriteImage replaces the clipboard contents with a PNG encoded image.
	WriteImage(png []byte) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes, including changes made through this Backend. Bursts coalesce
	// into one signal. The channel is never closed.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// notify performs a non-blocking send so a slow reader sees one pending
// signal instead of a backlog.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
