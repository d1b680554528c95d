package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/qlip/internal/clip/cliptest"
	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/watcher"
)

type fixture struct {
	store  *history.Store
	mem    *cliptest.Memory
	client *Client
}

func newFixture(t *testing.T, withClipboard bool) *fixture {
	t.Helper()
	store := history.New()
	mem := cliptest.NewMemory()
	var cb Clipboard
	if withClipboard {
		cb = watcher.New(store, mem, nil, 0)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LogUnary))
	Register(srv, NewService(store, cb, Info{Version: "test", Persistence: "none"}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	opts := append(DialOptions(), grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	c := NewClient(conn)
	t.Cleanup(func() { c.Close() })

	return &fixture{store: store, mem: mem, client: c}
}

func TestClientRoundTrip(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	hello, err := f.client.Add(ctx, history.Text("hello"))
	require.NoError(t, err)
	again, err := f.client.Add(ctx, history.Text("hello"))
	require.NoError(t, err)
	assert.Equal(t, hello, again)

	_, err = f.client.Add(ctx, history.URL("https://example.com"))
	require.NoError(t, err)

	e, err := f.client.ToggleFavorite(ctx, hello)
	require.NoError(t, err)
	assert.True(t, e.Favorite)

	list, err := f.client.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hello", list[0].Content.Data)
	assert.Equal(t, history.KindURL, list[1].Content.Kind)

	favs, err := f.client.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, hello, favs[0].ID)

	got, err := f.client.Get(ctx, hello)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content.Data)

	require.NoError(t, f.client.Delete(ctx, hello))
	require.NoError(t, f.client.DeleteAll(ctx))
	assert.Zero(t, f.store.Len())
}

func TestClientErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.client.ToggleFavorite(ctx, 404)
	assert.ErrorIs(t, err, history.ErrNotFound)
	assert.ErrorIs(t, f.client.Delete(ctx, 404), history.ErrNotFound)
	_, err = f.client.Get(ctx, 404)
	assert.ErrorIs(t, err, history.ErrNotFound)

	_, err = f.client.Add(ctx, history.Text(""))
	assert.ErrorIs(t, err, history.ErrEmptyContent)
	_, err = f.client.Add(ctx, history.Content{Kind: "audio", Data: "x"})
	assert.ErrorIs(t, err, history.ErrInvalidKind)

	assert.ErrorIs(t, f.client.Use(ctx, 1), ErrNoClipboard)
	_, err = f.client.SetPaused(ctx, true)
	assert.ErrorIs(t, err, ErrNoClipboard)
}

func TestUseAndPause(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	id, err := f.client.Add(ctx, history.Text("copied"))
	require.NoError(t, err)
	require.NoError(t, f.client.Use(ctx, id))
	writes := f.mem.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "copied", string(writes[0][0].Data))

	st, err := f.client.SetPaused(ctx, true)
	require.NoError(t, err)
	assert.True(t, st.Paused)
	assert.False(t, st.Capturing)

	st, err = f.client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Paused)
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, "memory", st.Clipboard)
	assert.Equal(t, 1, st.Entries)
}

func TestWatch(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan history.Change, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- f.client.Watch(ctx, func(ch history.Change) error {
			got <- ch
			if ch.Op == history.OpCleared {
				return errors.New("done")
			}
			return nil
		})
	}()

	// The stream is registered asynchronously; keep mutating until the
	// first change arrives.
	var first history.Change
	require.Eventually(t, func() bool {
		_, _ = f.store.Add(history.Text(time.Now().String()))
		select {
		case first = <-got:
			return true
		default:
			return false
		}
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, history.OpAdded, first.Op)

	f.store.DeleteAll()
	assert.EqualError(t, <-errc, "done")
}
