// Package server serves the history over a listener shared by gRPC and
// HTTP/1 clients, split by cmux.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 3 * time.Second

// Serve accepts gRPC (content-type application/grpc*) and HTTP/1 requests
// on ln until ctx is done, then shuts both down gracefully.
func Serve(ctx context.Context, ln net.Listener, g *grpc.Server, h http.Handler) error {
	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	hs := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := g.Serve(grpcL); err != nil && !errors.Is(err, cmux.ErrListenerClosed) && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	eg.Go(func() error { return ignoreClosed(hs.Serve(httpL)) })
	eg.Go(func() error { return ignoreClosed(m.Serve()) })
	eg.Go(func() error {
		<-ctx.Done()
		slog.Debug("server shutting down", "addr", ln.Addr())
		shutdown(hs)
		g.GracefulStop()
		m.Close()
		return nil
	})
	return eg.Wait()
}

// ServeHTTP serves h alone on ln until ctx is done.
func ServeHTTP(ctx context.Context, ln net.Listener, h http.Handler) error {
	hs := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown(hs)
	}()
	return ignoreClosed(hs.Serve(ln))
}

func shutdown(hs *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(ctx); err != nil {
		slog.Warn("http shutdown", "err", err)
	}
}

func ignoreClosed(err error) error {
	if err == nil ||
		errors.Is(err, http.ErrServerClosed) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, cmux.ErrServerClosed) {
		return nil
	}
	return err
}
