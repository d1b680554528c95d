// Package persist snapshots the history store to disk and rehydrates it at
// startup. Two adapters exist: a JSON file (the default, optionally
// passphrase-sealed) and a SQLite database.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.klb.dev/qlip/internal/history"
)

// ErrPersistence wraps every failure to read or write a snapshot.
var ErrPersistence = errors.New("persistence failure")

// Adapter reads and writes whole-store snapshots.
type Adapter interface {
	// Name identifies the adapter and its location for logs.
	Name() string
	// Load returns the last saved snapshot; an absent snapshot is empty, not
	// an error.
	Load(ctx context.Context) ([]history.Entry, error)
	// Save atomically replaces the snapshot with entries.
	Save(ctx context.Context, entries []history.Entry) error
	Close() error
}

// SetAsider is implemented by adapters that can move an unreadable snapshot
// out of the way so later saves do not overwrite it.
type SetAsider interface {
	// SetAside renames the current snapshot and returns its new location.
	// The adapter then behaves as if no snapshot existed.
	SetAside() (string, error)
}

// ErrSaveDisabled is joined to the Restore error when the unreadable
// snapshot is still in place. Callers must not save through the adapter.
var ErrSaveDisabled = errors.New("unreadable snapshot left in place, saving disabled")

// asidePath is where an unreadable snapshot at path is moved.
func asidePath(path string, now time.Time) string {
	return path + ".unreadable-" + now.Format("20060102-150405")
}

// record is the persisted form of one entry.
type record struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Data        string    `json:"data"`
	CapturedAt  time.Time `json:"captured_at"`
	Favorite    bool      `json:"favorite"`
	FavoriteSeq int64     `json:"favorite_seq,omitempty"`
}

func toRecords(entries []history.Entry) []record {
	out := make([]record, len(entries))
	for i, e := range entries {
		out[i] = record{
			ID:          e.ID,
			Kind:        string(e.Content.Kind),
			Data:        e.Content.Data,
			CapturedAt:  e.CapturedAt,
			Favorite:    e.Favorite,
			FavoriteSeq: e.FavoriteSeq,
		}
	}
	return out
}

func fromRecords(recs []record) ([]history.Entry, error) {
	out := make([]history.Entry, 0, len(recs))
	for _, r := range recs {
		kind := history.Kind(r.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: entry %d: %w %q", ErrPersistence, r.ID, history.ErrInvalidKind, r.Kind)
		}
		out = append(out, history.Entry{
			ID:          r.ID,
			Content:     history.Content{Kind: kind, Data: r.Data},
			CapturedAt:  r.CapturedAt,
			Favorite:    r.Favorite,
			FavoriteSeq: r.FavoriteSeq,
		})
	}
	return out, nil
}
