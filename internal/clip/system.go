//go:build darwin || windows || linux

package clip

import (
	"fmt"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/clipstash/internal/codec"
)

// system implements the read and write half of Backend on top of
// golang.design/x/clipboard. Platform files embed it and add change
// detection.
type system struct{}

func (system) ReadText() ([]byte, bool) {
	text := clipboard.Read(clipboard.FmtText)
	if len(text) == 0 {
		return nil, false
	}
	return text, true
}

func (system) ReadImage() (codec.RawImage, bool) {
	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return codec.RawImage{}, false
	}
	raw, err := codec.DecodeImage(data)
	if err != nil {
		slog.Debug("clipboard image undecodable", "bytes", len(data), "err", err)
		return codec.RawImage{}, false
	}
	return raw, true
}

func (system) WriteText(text []byte) error {
	clipboard.Write(clipboard.FmtText, text)
	return nil
}

func (system) WriteImage(png []byte) error {
	if len(png) == 0 {
		return fmt.Errorf("write image: empty payload")
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}
