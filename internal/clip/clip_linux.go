//go:build linux

package clip

import (
	"fmt"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/clipstash/internal/codec"
)

// linuxBackend has no change notification to subscribe to, so it polls a
// fingerprint of the clipboard content.
type linuxBackend struct {
	*Polling
}

// New returns the Linux clipboard backend, or the in-memory backend when no
// X11 or Wayland display is reachable.
func New(opts Options) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	return &linuxBackend{Polling: NewPolling(system{}, opts.pollInterval(), fingerprint)}
}

func (b *linuxBackend) Name() string {
	return fmt.Sprintf("Linux clipboard (poll %s)", b.interval)
}

// fingerprint digests whichever representation the monitor would capture:
// text first, then the raw image bytes, without decoding the image.
func fingerprint() string {
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		return codec.Fingerprint("text", text)
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		return codec.Fingerprint("image", img)
	}
	return ""
}
