package rpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/clipstash/internal/hub"
	"go.klb.dev/clipstash/internal/ipc"
)

// Client talks to a running daemon.
type Client struct {
	conn *grpc.ClientConn
}

// DialOptions returns the options every History client needs on top of a
// transport.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
}

// Dial connects to the daemon socket at path. No auth: the socket is local
// and owner-restricted by the OS.
func Dial(path string) (*Client, error) {
	opts := append(DialOptions(), grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return ipc.Dial(ctx, path)
	}))
	conn, err := grpc.NewClient("passthrough:///clipstash", opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection created with DialOptions.
func NewClient(conn *grpc.ClientConn) *Client { return &Client{conn: conn} }

// Close tears down the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) List(ctx context.Context, limit int) ([]Item, error) {
	var resp ItemsResponse
	if err := c.conn.Invoke(ctx, fullMethod("List"), &ListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	var resp ItemsResponse
	if err := c.conn.Invoke(ctx, fullMethod("Search"), &SearchRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Get(ctx context.Context, id int64) (Item, error) {
	return c.byID(ctx, "Get", id)
}

func (c *Client) Touch(ctx context.Context, id int64) (Item, error) {
	return c.byID(ctx, "Touch", id)
}

func (c *Client) Paste(ctx context.Context, id int64) (Item, error) {
	return c.byID(ctx, "Paste", id)
}

func (c *Client) byID(ctx context.Context, method string, id int64) (Item, error) {
	var resp ItemResponse
	if err := c.conn.Invoke(ctx, fullMethod(method), &IDRequest{ID: id}, &resp); err != nil {
		return Item{}, err
	}
	return resp.Item, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.conn.Invoke(ctx, fullMethod("Status"), &StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EventStream is the client side of Watch.
type EventStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event.
func (s *EventStream) Recv() (hub.Event, error) {
	var e hub.Event
	if err := s.stream.RecvMsg(&e); err != nil {
		return hub.Event{}, err
	}
	return e, nil
}

// Watch subscribes to history changes until ctx is cancelled.
func (c *Client) Watch(ctx context.Context) (*EventStream, error) {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], fullMethod("Watch"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&WatchRequest{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}
