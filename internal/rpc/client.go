package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/ipc"
)

// Client talks to a qlip daemon.
type Client struct {
	conn *grpc.ClientConn
}

// DialOptions returns the options every qlip connection needs on top of a
// transport: plaintext credentials and the JSON codec.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
}

// Dial connects to the daemon on the local IPC socket. No auth is needed:
// the socket is local and owner-restricted.
func Dial() (*Client, error) {
	opts := append(DialOptions(), grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return ipc.DialContext(ctx)
	}))
	conn, err := grpc.NewClient("passthrough:///qlip", opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ipc.SocketPath(), err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection created with DialOptions.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return fromStatus(c.conn.Invoke(ctx, fullMethod(method), req, resp))
}

// List returns entries in display order.
func (c *Client) List(ctx context.Context, favoritesOnly bool) ([]history.Entry, error) {
	var resp ListResponse
	if err := c.invoke(ctx, "List", &ListRequest{FavoritesOnly: favoritesOnly}, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) Get(ctx context.Context, id int64) (history.Entry, error) {
	var resp EntryResponse
	err := c.invoke(ctx, "Get", &IDRequest{ID: id}, &resp)
	return resp.Entry, err
}

func (c *Client) Add(ctx context.Context, content history.Content) (int64, error) {
	var resp AddResponse
	err := c.invoke(ctx, "Add", &AddRequest{Content: content}, &resp)
	return resp.ID, err
}

func (c *Client) ToggleFavorite(ctx context.Context, id int64) (history.Entry, error) {
	var resp EntryResponse
	err := c.invoke(ctx, "ToggleFavorite", &IDRequest{ID: id}, &resp)
	return resp.Entry, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.invoke(ctx, "Delete", &IDRequest{ID: id}, &Empty{})
}

func (c *Client) DeleteAll(ctx context.Context) error {
	return c.invoke(ctx, "DeleteAll", &Empty{}, &Empty{})
}

// Use places an entry on the system clipboard of the daemon's host.
func (c *Client) Use(ctx context.Context, id int64) error {
	return c.invoke(ctx, "Use", &IDRequest{ID: id}, &Empty{})
}

func (c *Client) SetPaused(ctx context.Context, paused bool) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.invoke(ctx, "SetPaused", &PauseRequest{Paused: paused}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.invoke(ctx, "Status", &Empty{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Watch calls fn for every change until ctx is done, the daemon goes away,
// or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(history.Change) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("Watch"))
	if err != nil {
		return fromStatus(err)
	}
	if err := stream.SendMsg(&WatchRequest{}); err != nil {
		return fromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return fromStatus(err)
	}
	for {
		var ch history.Change
		if err := stream.RecvMsg(&ch); err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return nil
			}
			return fromStatus(err)
		}
		if err := fn(ch); err != nil {
			return err
		}
	}
}
