package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"text":  FormatText,
		"TINT":  FormatText,
		"human": FormatText,
		"json":  FormatJSON,
		"":      FormatAuto,
		"xml":   FormatAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseFormat(in), in)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn", slog.LevelInfo))
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLevel("loud", slog.LevelError))
}

func TestDefaultLevel_NonTerminal(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, DefaultLevel(&bytes.Buffer{}))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestLogCapture(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatJSON, slog.LevelDebug)

	LogCapture(logger, 3, "TEXT", "Code", []byte("Hello"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "clipboard captured", info["msg"])
	assert.Equal(t, "Code", info["source"])
	assert.EqualValues(t, 5, info["size_bytes"])

	var debug map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &debug))
	assert.Equal(t, "Hello", debug["preview"])
}

func TestLogCapture_ImageHasNoPreview(t *testing.T) {
	var buf bytes.Buffer
	LogCapture(New(&buf, FormatJSON, slog.LevelDebug), 4, "IMAGE", "Preview", []byte{1, 2, 3})
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("é", 100)
	p := Preview(long)
	assert.True(t, strings.HasSuffix(p, "…"))
	assert.LessOrEqual(t, len(p), previewLen+len("…"))
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(p, "…")))
}
