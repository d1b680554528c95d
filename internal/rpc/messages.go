package rpc

import (
	"time"

	"go.klb.dev/qlip/internal/history"
)

// Empty is the request or response of calls that carry nothing.
type Empty struct{}

type ListRequest struct {
	FavoritesOnly bool `json:"favorites_only,omitempty"`
}

type ListResponse struct {
	Entries []history.Entry `json:"entries"`
}

type IDRequest struct {
	ID int64 `json:"id"`
}

type EntryResponse struct {
	Entry history.Entry `json:"entry"`
}

type AddRequest struct {
	Content history.Content `json:"content"`
}

type AddResponse struct {
	ID int64 `json:"id"`
}

type PauseRequest struct {
	Paused bool `json:"paused"`
}

type WatchRequest struct{}

// Info describes the daemon; it is fixed at startup.
type Info struct {
	Version     string    `json:"version"`
	Persistence string    `json:"persistence"`
	Standalone  bool      `json:"standalone"`
	StartedAt   time.Time `json:"started_at"`
}

type StatusResponse struct {
	Info
	history.Stats
	Capturing bool   `json:"capturing"`
	Paused    bool   `json:"paused"`
	Clipboard string `json:"clipboard,omitempty"`
}
