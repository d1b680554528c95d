// Package watcher feeds the history store from the system clipboard.
package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/qlip/internal/blob"
	"go.klb.dev/qlip/internal/clip"
	"go.klb.dev/qlip/internal/history"
)

// suppressTTL bounds how long a write made by Use is ignored.
const suppressTTL = 2 * time.Second

// DefaultMaxItemSize is the largest clipboard payload captured (10 MiB).
const DefaultMaxItemSize = 10 * 1024 * 1024

// ErrNoImageStore is returned by Use for image entries when no blob store is
// configured.
var ErrNoImageStore = errors.New("no image store configured")

// Watcher captures clipboard changes into a history store and writes chosen
// entries back to the clipboard.
type Watcher struct {
	store       *history.Store
	backend     clip.Backend
	blobs       *blob.Store // nil disables image capture
	maxItemSize int

	paused atomic.Bool

	mu            sync.Mutex
	suppress      []clip.Item // our own last write, not to be captured
	suppressUntil time.Time
	now           func() time.Time
}

// New creates a watcher but does not start it. blobs may be nil.
func New(store *history.Store, backend clip.Backend, blobs *blob.Store, maxItemSize int) *Watcher {
	if maxItemSize <= 0 {
		maxItemSize = DefaultMaxItemSize
	}
	return &Watcher{
		store:       store,
		backend:     backend,
		blobs:       blobs,
		maxItemSize: maxItemSize,
		now:         time.Now,
	}
}

// Backend returns the clipboard backend name.
func (w *Watcher) Backend() string { return w.backend.Name() }

// Paused reports whether capture is paused.
func (w *Watcher) Paused() bool { return w.paused.Load() }

// SetPaused pauses or resumes capture.
func (w *Watcher) SetPaused(p bool) {
	if w.paused.Swap(p) != p {
		slog.Info("clipboard capture", "paused", p)
	}
}

// Run watches the backend until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	slog.Info("clipboard watcher started", "backend", w.backend.Name())
	defer slog.Info("clipboard watcher stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.backend.Watch():
			w.capture()
		}
	}
}

// capture reads the clipboard once and records it. Text wins over images
// when both are present.
func (w *Watcher) capture() {
	if w.Paused() {
		return
	}
	items, err := w.backend.Read()
	if err != nil {
		slog.Error("clipboard read failed", "err", err)
		return
	}
	if len(items) == 0 || w.isOwnWrite(items) {
		return
	}

	content, ok := w.contentOf(items)
	if !ok {
		return
	}
	id, err := w.store.Add(content)
	if err != nil {
		slog.Warn("clipboard entry rejected", "kind", content.Kind, "err", err)
		return
	}
	slog.Debug("clipboard captured", "id", id, "kind", content.Kind)
}

func (w *Watcher) contentOf(items []clip.Item) (history.Content, bool) {
	var img []byte
	for _, it := range items {
		if len(it.Data) > w.maxItemSize {
			slog.Warn("clipboard item too large", "mime", it.MIME, "size", len(it.Data), "max", w.maxItemSize)
			continue
		}
		switch it.MIME {
		case clip.MIMEText:
			return clip.Classify(string(it.Data)), true
		case clip.MIMEPNG:
			img = it.Data
		}
	}
	if img == nil || w.blobs == nil {
		return history.Content{}, false
	}
	ref, err := w.blobs.Put(img)
	if err != nil {
		slog.Error("image store failed", "err", err)
		return history.Content{}, false
	}
	return history.ImageRef(ref), true
}

// Use places entry id on the system clipboard. The resulting clipboard
// change is not captured again.
func (w *Watcher) Use(id int64) error {
	e, err := w.store.Get(id)
	if err != nil {
		return err
	}
	var img []byte
	if e.Content.Kind == history.KindImage {
		if w.blobs == nil {
			return ErrNoImageStore
		}
		if img, err = w.blobs.Get(e.Content.Data); err != nil {
			return fmt.Errorf("read image: %w", err)
		}
	}
	items := clip.Items(e.Content, img)

	w.mu.Lock()
	w.suppress = items
	w.suppressUntil = w.now().Add(suppressTTL)
	w.mu.Unlock()

	if err := w.backend.Write(items); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	slog.Debug("entry placed on clipboard", "id", id, "kind", e.Content.Kind)
	return nil
}

// isOwnWrite reports whether items are what Use last wrote. A matching
// capture consumes the marker so a later genuine copy of the same data is
// recorded; other captures leave it for the write still to come.
func (w *Watcher) isOwnWrite(items []clip.Item) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.suppress == nil {
		return false
	}
	if w.now().After(w.suppressUntil) {
		w.suppress = nil
		return false
	}
	if !sameItems(items, w.suppress) {
		return false
	}
	w.suppress = nil
	return true
}

// sameItems compares the payloads written by Use with what the clipboard
// reports back; backends may add representations, so only the written MIME
// types are compared.
func sameItems(got, want []clip.Item) bool {
	for _, wi := range want {
		found := false
		for _, gi := range got {
			if gi.MIME == wi.MIME && bytes.Equal(gi.Data, wi.Data) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
