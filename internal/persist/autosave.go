package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/qlip/internal/history"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultSaveDelay coalesces bursts of mutations into one write.
const DefaultSaveDelay = 500 * time.Millisecond

// Open returns the adapter named by backend.
func Open(backend, path, passphrase string) (Adapter, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONFile(path, passphrase), nil
	case BackendSQLite:
		if passphrase != "" {
			slog.Warn("passphrase is ignored by the sqlite backend")
		}
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unknown history backend %q (want %s or %s)", backend, BackendJSON, BackendSQLite)
}

// Restore loads the snapshot into store. A snapshot that cannot be read is
// moved aside when the adapter supports it and the store is left empty; the
// error is returned for reporting. If the snapshot could not be moved, the
// error also matches ErrSaveDisabled.
func Restore(ctx context.Context, store *history.Store, a Adapter) error {
	entries, err := a.Load(ctx)
	if err == nil {
		store.Load(entries)
		slog.Info("history restored", "adapter", a.Name(), "entries", len(entries))
		return nil
	}

	sa, ok := a.(SetAsider)
	if !ok {
		slog.Error("history unreadable, starting empty without saving", "adapter", a.Name(), "err", err)
		return errors.Join(err, ErrSaveDisabled)
	}
	dst, aerr := sa.SetAside()
	if aerr != nil {
		slog.Error("history unreadable and could not be moved aside, starting empty without saving",
			"adapter", a.Name(), "err", err, "move_err", aerr)
		return errors.Join(err, fmt.Errorf("%w: %w", ErrSaveDisabled, aerr))
	}
	slog.Warn("history unreadable, moved aside and starting empty", "adapter", a.Name(), "saved_to", dst, "err", err)
	return err
}

// Autosave writes a snapshot after every change to store, waiting delay
// after the first change so bursts produce one write. It blocks until ctx
// is done, then saves once more and returns that final save's error.
func Autosave(ctx context.Context, store *history.Store, a Adapter, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	changes, cancel := store.Subscribe()
	defer cancel()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending bool
	)
	save := func(ctx context.Context) error {
		pending = false
		entries := store.List()
		if err := a.Save(ctx, entries); err != nil {
			slog.Error("history save failed", "adapter", a.Name(), "err", err)
			return err
		}
		slog.Debug("history saved", "adapter", a.Name(), "entries", len(entries))
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			final, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer done()
			return save(final)
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if !pending {
				pending = true
				timer = time.NewTimer(delay)
				fire = timer.C
			}
		case <-fire:
			fire = nil
			_ = save(ctx)
		}
	}
}
