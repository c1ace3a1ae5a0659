package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/hub"
	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/monitor"
	"go.klb.dev/clipstash/internal/replay"
	"go.klb.dev/clipstash/internal/rpc"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		item rpc.Item
		want string
	}{
		{"text", rpc.Item{ContentType: "TEXT", Text: "Hello"}, "Hello"},
		{"whitespace collapsed", rpc.Item{ContentType: "TEXT", Text: "a\n\tb  c"}, "a b c"},
		{"truncated", rpc.Item{ContentType: "TEXT", Text: strings.Repeat("x", 100)}, strings.Repeat("x", previewWidth-1) + "…"},
		{"image", rpc.Item{ContentType: "IMAGE", Size: 2048}, "[image, 2.0 kB]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, preview(tt.item))
		})
	}
}

func TestFmtAge(t *testing.T) {
	now := time.Date(2025, 12, 27, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, "-", fmtAge(time.Time{}, now))
	assert.Equal(t, "5s ago", fmtAge(now.Add(-5*time.Second), now))
	assert.Equal(t, "0s ago", fmtAge(now.Add(time.Second), now))
	assert.Equal(t, "3m ago", fmtAge(now.Add(-3*time.Minute), now))
	assert.Equal(t, "2h ago", fmtAge(now.Add(-2*time.Hour), now))
	old := now.Add(-72 * time.Hour)
	assert.Equal(t, old.Local().Format("2006-01-02 15:04"), fmtAge(old, now))
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrintItems_Empty(t *testing.T) {
	var buf bytes.Buffer
	printItems(&buf, nil, time.Now())
	assert.Equal(t, "No history.\n", buf.String())
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2025, 12, 27, 17, 0, 0, 0, time.Local)
	got := formatEvent(hub.Event{Kind: hub.KindCaptured, ID: 3, ContentType: "TEXT", SourceApp: "Code", At: at})
	assert.Equal(t, "17:00:00  captured  #3 TEXT from Code", got)

	got = formatEvent(hub.Event{Kind: hub.KindError, ContentType: "IMAGE", SourceApp: "Preview", Err: "disk full", At: at})
	assert.Contains(t, got, "disk full")
}

func TestPrintStatus(t *testing.T) {
	now := time.Now()
	var buf bytes.Buffer
	printStatus(&buf, &rpc.StatusResponse{
		Version:   "dev",
		Backend:   "in-memory",
		Database:  "/tmp/clipboard.db",
		Records:   12,
		StartedAt: now.Add(-time.Minute),
		Latest:    &hub.Event{Kind: hub.KindTouched, ID: 4, SourceApp: "Code", At: now},
	}, "/run/clipstash.sock", now)

	out := buf.String()
	assert.Contains(t, out, "Records:")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "/run/clipstash.sock")
	assert.Contains(t, out, "touched #4 Code")
}

// daemon starts an in-process daemon on a fresh socket and returns its path.
func daemon(t *testing.T) (string, *history.Store, *clip.Memory) {
	t.Helper()
	dir, err := os.MkdirTemp("", "cs")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := history.Open(context.Background(), filepath.Join(dir, "h.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	board := clip.NewMemory()
	h := hub.New()
	svc := rpc.NewService(store, replay.New(store, board, &monitor.Latch{}, h), h, rpc.Info{Version: "test"})

	sock := filepath.Join(dir, "d.sock")
	ln, err := ipc.Listen(sock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = rpc.Serve(ctx, ln, svc)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return sock, store, board
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands_AgainstDaemon(t *testing.T) {
	sock, store, board := daemon(t)
	ctx := context.Background()

	hello, err := store.Upsert(ctx, history.Text, []byte("Hello"), "Code", "")
	require.NoError(t, err)
	_, err = store.Upsert(ctx, history.Text, []byte("goodbye"), "Notes", "")
	require.NoError(t, err)

	out, err := execute(t, newListCmd(), "--socket", sock)
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "goodbye")

	out, err = execute(t, newSearchCmd(), "--socket", sock, "HELLO")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.NotContains(t, out, "goodbye")

	out, err = execute(t, newShowCmd(), "--socket", sock, "1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	out, err = execute(t, newPasteCmd(), "--socket", sock, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "pasted #1")
	text, ok := board.ReadText()
	require.True(t, ok)
	assert.Equal(t, "Hello", string(text))

	rec, err := store.Get(ctx, hello)
	require.NoError(t, err)
	assert.Equal(t, "Code", rec.SourceApp)

	_, err = execute(t, newTouchCmd(), "--socket", sock, "999")
	assert.Error(t, err)

	out, err = execute(t, newStatusCmd(), "--socket", sock, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"records": 2`)
}

func TestCommands_NoDaemon(t *testing.T) {
	dir, err := os.MkdirTemp("", "cs")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	_, err = execute(t, newListCmd(), "--socket", filepath.Join(dir, "none.sock"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, newVersionCmd())
	require.NoError(t, err)
	assert.Equal(t, "clipstash dev\n", out)
}
