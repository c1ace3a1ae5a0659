package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/codec"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/hub"
	"go.klb.dev/clipstash/internal/monitor"
	"go.klb.dev/clipstash/internal/replay"
)

type env struct {
	store *history.Store
	board *clip.Memory
	hub   *hub.Hub
	svc   *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	var (
		mu  sync.Mutex
		now = time.Date(2025, 12, 27, 17, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
	s, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), history.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	board := clip.NewMemory()
	h := hub.New()
	r := replay.New(s, board, &monitor.Latch{}, h)
	svc := NewService(s, r, h, Info{Version: "test", Backend: board.Name(), Database: "history.db"})
	return &env{store: s, board: board, hub: h, svc: svc}
}

func (e *env) seed(t *testing.T, typ history.ContentType, content []byte) int64 {
	t.Helper()
	id, err := e.store.Upsert(context.Background(), typ, content, "Code", "")
	require.NoError(t, err)
	return id
}

func (e *env) dial(t *testing.T) *Client {
	t.Helper()
	ln := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	Register(gs, e.svc)
	go gs.Serve(ln)
	t.Cleanup(gs.Stop)

	opts := append(DialOptions(), grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return ln.DialContext(ctx)
	}))
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func testImage() []byte {
	raw := codec.RawImage{Width: 128, Height: 128, Pix: make([]byte, 128*128*4)}
	for i := 3; i < len(raw.Pix); i += 4 {
		raw.Pix[i] = 0xff
	}
	return codec.EncodeImage(raw)
}

func TestGRPC_ListSearchGet(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	hello := e.seed(t, history.Text, []byte("Hello"))
	img := e.seed(t, history.Image, testImage())
	c := e.dial(t)

	items, err := c.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, img, items[0].ID)
	assert.NotEmpty(t, items[0].Thumbnail)
	assert.Empty(t, items[0].Image, "lists carry thumbnails only")
	assert.Equal(t, "Hello", items[1].Text)

	items, err = c.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	found, err := c.Search(ctx, "hell")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, hello, found[0].ID)

	full, err := c.Get(ctx, img)
	require.NoError(t, err)
	data, err := codec.DecodeBase64(full.Image)
	require.NoError(t, err)
	assert.Equal(t, testImage(), data)
}

func TestGRPC_NotFound(t *testing.T) {
	c := newEnv(t).dial(t)

	_, err := c.Get(context.Background(), 404)
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = c.Touch(context.Background(), 404)
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = c.Paste(context.Background(), 404)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_TouchAndPaste(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	old := e.seed(t, history.Text, []byte("old"))
	e.seed(t, history.Text, []byte("new"))
	c := e.dial(t)

	it, err := c.Paste(ctx, old)
	require.NoError(t, err)
	assert.Equal(t, "old", it.Text)

	text, ok := e.board.ReadText()
	require.True(t, ok)
	assert.Equal(t, []byte("old"), text)

	_, err = c.Touch(ctx, old)
	require.NoError(t, err)
	items, err := c.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, old, items[0].ID)
}

func TestGRPC_Status(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seed(t, history.Text, []byte("x"))
	e.hub.Publish(hub.Event{Kind: hub.KindCaptured, ID: 1})
	c := e.dial(t)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, 1, st.Records)
	require.NotNil(t, st.Latest)
	assert.Equal(t, hub.KindCaptured, st.Latest.Kind)
}

func TestGRPC_Watch(t *testing.T) {
	e := newEnv(t)
	c := e.dial(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := c.Watch(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return e.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	e.hub.Publish(hub.Event{Kind: hub.KindCaptured, ID: 9, ContentType: "TEXT"})

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, hub.KindCaptured, ev.Kind)
	assert.Equal(t, int64(9), ev.ID)

	cancel()
	require.Eventually(t, func() bool { return e.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGateway(t *testing.T) {
	e := newEnv(t)
	hello := e.seed(t, history.Text, []byte("Hello"))
	e.seed(t, history.Text, []byte("100% sure"))
	srv := httptest.NewServer(NewGateway(e.svc))
	defer srv.Close()

	get := func(t *testing.T, method, path string) (int, []byte) {
		t.Helper()
		req, err := http.NewRequest(method, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, body
	}

	t.Run("list", func(t *testing.T) {
		code, body := get(t, http.MethodGet, "/v1/history?limit=1")
		require.Equal(t, http.StatusOK, code)
		var resp ItemsResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "100% sure", resp.Items[0].Text)
	})

	t.Run("bad limit", func(t *testing.T) {
		code, _ := get(t, http.MethodGet, "/v1/history?limit=abc")
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("search", func(t *testing.T) {
		code, body := get(t, http.MethodGet, "/v1/search?q=%25")
		require.Equal(t, http.StatusOK, code)
		var resp ItemsResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "100% sure", resp.Items[0].Text)
	})

	t.Run("get", func(t *testing.T) {
		code, body := get(t, http.MethodGet, "/v1/history/1")
		require.Equal(t, http.StatusOK, code)
		var resp ItemResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, hello, resp.Item.ID)
	})

	t.Run("not found", func(t *testing.T) {
		code, body := get(t, http.MethodGet, "/v1/history/999")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Contains(t, string(body), "not found")
	})

	t.Run("bad id", func(t *testing.T) {
		code, _ := get(t, http.MethodGet, "/v1/history/abc")
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("touch", func(t *testing.T) {
		code, _ := get(t, http.MethodPost, "/v1/history/1/touch")
		require.Equal(t, http.StatusOK, code)
		_, body := get(t, http.MethodGet, "/v1/history?limit=1")
		var resp ItemsResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, hello, resp.Items[0].ID)
	})

	t.Run("paste", func(t *testing.T) {
		code, _ := get(t, http.MethodPost, "/v1/history/1/paste")
		require.Equal(t, http.StatusOK, code)
		text, ok := e.board.ReadText()
		require.True(t, ok)
		assert.Equal(t, "Hello", string(text))
	})

	t.Run("status", func(t *testing.T) {
		code, body := get(t, http.MethodGet, "/v1/status")
		require.Equal(t, http.StatusOK, code)
		var resp StatusResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, 2, resp.Records)
	})
}

func TestServe_MultiplexesGRPCAndHTTP(t *testing.T) {
	e := newEnv(t)
	e.seed(t, history.Text, []byte("both"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, e.svc) }()

	conn, err := grpc.NewClient(ln.Addr().String(), DialOptions()...)
	require.NoError(t, err)
	defer conn.Close()

	items, err := NewClient(conn).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	resp, err := http.Get("http://" + ln.Addr().String() + "/v1/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.NotFound, status.Code(toStatus(history.ErrNotFound)))
	assert.Equal(t, codes.Canceled, status.Code(toStatus(context.Canceled)))
	assert.Equal(t, codes.Internal, status.Code(toStatus(io.ErrUnexpectedEOF)))
}
