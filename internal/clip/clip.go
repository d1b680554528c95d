// Package clip provides access to the system clipboard. Build constraints
// select the implementation:
//
//	clip_linux.go   Linux via golang.design/x/clipboard, polling
//	clip_other.go   every other platform: headless no-op
//
// A headless backend is also returned on Linux when no X11/Wayland display is
// reachable, so the daemon still serves its history over IPC.
package clip

import "time"

// DefaultPollInterval is used when New is given a non-positive interval.
const DefaultPollInterval = 250 * time.Millisecond

// MIME types understood by the backends.
const (
	MIMEText = "text/plain"
	MIMEPNG  = "image/png"
)

// Item is a single clipboard representation.
type Item struct {
	MIME string
	Data []byte
}

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents as a slice of typed items.
	// Returns nil, nil if the clipboard is empty or contains only unsupported types.
	Read() ([]Item, error)

	// Write sets the clipboard contents to the provided items.
	Write(items []Item) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed. The caller should call Read()
	// when it receives from the channel.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}
