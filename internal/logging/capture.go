package logging

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

const previewLen = 120

// LogCapture logs an accepted clipboard capture at INFO (id, type, source,
// size) and, when enabled, a text preview at DEBUG.
func LogCapture(logger *slog.Logger, id int64, contentType, sourceApp string, content []byte) {
	logger.Info("clipboard captured",
		"id", id,
		"type", contentType,
		"source", sourceApp,
		"size_bytes", len(content),
	)

	if contentType != "TEXT" || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug("clipboard text", "id", id, "preview", Preview(string(content)))
}

// Preview truncates s to a log-friendly length on a rune boundary.
func Preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
