// Package rpc implements the qlip.v1.History gRPC service, through which UI
// clients list and mutate the history held by the daemon, and its client.
package rpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/qlip/internal/history"
)

// Clipboard is the part of the clipboard watcher the service drives.
type Clipboard interface {
	Use(id int64) error
	Paused() bool
	SetPaused(bool)
	Backend() string
}

// Service implements HistoryServer.
type Service struct {
	store *history.Store
	clip  Clipboard // nil when capture is disabled
	info  Info
}

// NewService returns a Service backed by store. clip may be nil.
func NewService(store *history.Store, clip Clipboard, info Info) *Service {
	return &Service{store: store, clip: clip, info: info}
}

// Store returns the history store the service operates on.
func (s *Service) Store() *history.Store { return s.store }

func (s *Service) List(_ context.Context, req *ListRequest) (*ListResponse, error) {
	entries := s.store.List()
	if req.FavoritesOnly {
		n := 0
		for _, e := range entries {
			if e.Favorite {
				entries[n] = e
				n++
			}
		}
		entries = entries[:n]
	}
	return &ListResponse{Entries: entries}, nil
}

func (s *Service) Get(_ context.Context, req *IDRequest) (*EntryResponse, error) {
	e, err := s.store.Get(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &EntryResponse{Entry: e}, nil
}

func (s *Service) Add(_ context.Context, req *AddRequest) (*AddResponse, error) {
	id, err := s.store.Add(req.Content)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AddResponse{ID: id}, nil
}

func (s *Service) ToggleFavorite(_ context.Context, req *IDRequest) (*EntryResponse, error) {
	e, err := s.store.ToggleFavorite(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &EntryResponse{Entry: e}, nil
}

func (s *Service) Delete(_ context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.Delete(req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Service) DeleteAll(_ context.Context, _ *Empty) (*Empty, error) {
	s.store.DeleteAll()
	return &Empty{}, nil
}

func (s *Service) Use(_ context.Context, req *IDRequest) (*Empty, error) {
	if s.clip == nil {
		return nil, toStatus(ErrNoClipboard)
	}
	if err := s.clip.Use(req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Service) SetPaused(_ context.Context, req *PauseRequest) (*StatusResponse, error) {
	if s.clip == nil {
		return nil, toStatus(ErrNoClipboard)
	}
	s.clip.SetPaused(req.Paused)
	return s.status(), nil
}

func (s *Service) Status(_ context.Context, _ *Empty) (*StatusResponse, error) {
	return s.status(), nil
}

func (s *Service) status() *StatusResponse {
	resp := &StatusResponse{Info: s.info, Stats: s.store.Stats()}
	if s.clip != nil {
		resp.Capturing = !s.clip.Paused()
		resp.Paused = s.clip.Paused()
		resp.Clipboard = s.clip.Backend()
	}
	return resp
}

// Watch streams every store change until the client goes away.
func (s *Service) Watch(_ *WatchRequest, stream grpc.ServerStream) error {
	changes, cancel := s.store.Subscribe()
	defer cancel()

	slog.Debug("watch started")
	for {
		select {
		case <-stream.Context().Done():
			return nil
		case ch := <-changes:
			if err := stream.SendMsg(&ch); err != nil {
				return err
			}
		}
	}
}

// LogUnary logs each call at DEBUG and internal failures at WARN.
func LogUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	attrs := []any{"method", info.FullMethod, "code", code.String(), "took", time.Since(start)}
	if err != nil && code == codes.Internal {
		slog.Warn("rpc failed", append(attrs, "err", err)...)
	} else {
		slog.Debug("rpc", attrs...)
	}
	return resp, err
}
