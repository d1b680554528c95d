// Package history implements the clipboard history store.
// The store owns the ordered collection of entries and their favorite status.
// It is transport-agnostic: the clipboard watcher adds entries, UI clients
// list and mutate them, and the persistence layer snapshots and reloads them.
package history

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when an operation references an unknown entry id.
	ErrNotFound = errors.New("entry not found")
	// ErrEmptyContent is returned by Add for content with no data.
	ErrEmptyContent = errors.New("empty content")
	// ErrInvalidKind is returned for content of an unknown kind.
	ErrInvalidKind = errors.New("invalid content kind")
)

// Op identifies the mutation that produced a Change.
type Op string

const (
	OpAdded    Op = "added"
	OpFavorite Op = "favorite"
	OpDeleted  Op = "deleted"
	OpCleared  Op = "cleared"
	OpLoaded   Op = "loaded"
	OpEvicted  Op = "evicted"
)

// Change is delivered to subscribers after every mutation.
// ID is zero for store-wide operations (cleared, loaded).
type Change struct {
	Op Op    `json:"op"`
	ID int64 `json:"id,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries caps the number of non-favorite entries. After each Add the
// oldest non-favorites beyond n are evicted. n <= 0 disables the cap.
func WithMaxEntries(n int) Option {
	return func(s *Store) { s.maxEntries = n }
}

// WithClock overrides the time source used for CapturedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the clipboard history. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []*Entry // ascending by ID
	nextID  int64
	nextFav int64

	maxEntries int
	now        func() time.Time

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		nextID:  1,
		nextFav: 1,
		now:     time.Now,
		subs:    make(map[int]chan Change),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add records content as the newest entry and returns its id. If content is
// identical to the most recently added entry still present, nothing changes
// and that entry's id is returned.
func (s *Store) Add(c Content) (int64, error) {
	if !c.Kind.Valid() {
		return 0, ErrInvalidKind
	}
	if c.Data == "" {
		return 0, ErrEmptyContent
	}

	s.mu.Lock()
	if n := len(s.entries); n > 0 && s.entries[n-1].Content == c {
		id := s.entries[n-1].ID
		s.mu.Unlock()
		return id, nil
	}
	e := &Entry{
		ID:         s.nextID,
		Content:    c,
		CapturedAt: s.now(),
	}
	s.nextID++
	s.entries = append(s.entries, e)
	evicted := s.evictLocked()
	s.mu.Unlock()

	s.notify(Change{Op: OpAdded, ID: e.ID})
	for _, id := range evicted {
		s.notify(Change{Op: OpEvicted, ID: id})
	}
	return e.ID, nil
}

// evictLocked drops the oldest non-favorites beyond maxEntries.
// Must be called with s.mu held.
func (s *Store) evictLocked() []int64 {
	if s.maxEntries <= 0 {
		return nil
	}
	plain := 0
	for _, e := range s.entries {
		if !e.Favorite {
			plain++
		}
	}
	excess := plain - s.maxEntries
	if excess <= 0 {
		return nil
	}
	var evicted []int64
	kept := s.entries[:0]
	for _, e := range s.entries {
		if excess > 0 && !e.Favorite {
			evicted = append(evicted, e.ID)
			excess--
			continue
		}
		kept = append(kept, e)
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	return evicted
}

// ToggleFavorite flips the favorite flag of an entry and returns the updated
// entry. An entry that becomes a favorite moves to the top of the favorites.
func (s *Store) ToggleFavorite(id int64) (Entry, error) {
	s.mu.Lock()
	e, _ := s.findLocked(id)
	if e == nil {
		s.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	e.Favorite = !e.Favorite
	if e.Favorite {
		e.FavoriteSeq = s.nextFav
		s.nextFav++
	} else {
		e.FavoriteSeq = 0
	}
	out := *e
	s.mu.Unlock()

	s.notify(Change{Op: OpFavorite, ID: id})
	return out, nil
}

// Delete removes an entry.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	e, i := s.findLocked(id)
	if e == nil {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	s.mu.Unlock()

	s.notify(Change{Op: OpDeleted, ID: id})
	return nil
}

// DeleteAll removes every entry, favorites included. Ids are never reused:
// the counter keeps running.
func (s *Store) DeleteAll() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()

	slog.Debug("history cleared", "removed", n)
	s.notify(Change{Op: OpCleared})
}

// Get returns a copy of a single entry.
func (s *Store) Get(id int64) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, _ := s.findLocked(id)
	if e == nil {
		return Entry{}, ErrNotFound
	}
	return *e, nil
}

// List returns a copy of all entries in display order: favorites first (most
// recently favorited first), then the rest newest first.
func (s *Store) List() []Entry {
	s.mu.RLock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	s.mu.RUnlock()

	slices.SortFunc(out, compareDisplay)
	return out
}

func compareDisplay(a, b Entry) int {
	if a.Favorite != b.Favorite {
		if a.Favorite {
			return -1
		}
		return 1
	}
	if a.Favorite {
		if c := cmp.Compare(b.FavoriteSeq, a.FavoriteSeq); c != 0 {
			return c
		}
	}
	return cmp.Compare(b.ID, a.ID)
}

// Load replaces the store contents with entries, bypassing deduplication.
// Counters are advanced past the highest loaded id and favorite sequence so
// later entries never collide with loaded ones. When ids repeat the last
// occurrence wins.
func (s *Store) Load(entries []Entry) {
	byID := make(map[int64]*Entry, len(entries))
	for _, e := range entries {
		if !e.Favorite {
			e.FavoriteSeq = 0
		}
		byID[e.ID] = &e
	}
	loaded := make([]*Entry, 0, len(byID))
	for _, e := range byID {
		loaded = append(loaded, e)
	}
	slices.SortFunc(loaded, func(a, b *Entry) int { return cmp.Compare(a.ID, b.ID) })

	s.mu.Lock()
	s.entries = loaded
	for _, e := range loaded {
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
		if e.FavoriteSeq >= s.nextFav {
			s.nextFav = e.FavoriteSeq + 1
		}
	}
	s.mu.Unlock()

	s.notify(Change{Op: OpLoaded})
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats summarises the store.
type Stats struct {
	Entries   int   `json:"entries"`
	Favorites int   `json:"favorites"`
	NextID    int64 `json:"next_id"`
}

// Stats returns entry counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Entries: len(s.entries), NextID: s.nextID}
	for _, e := range s.entries {
		if e.Favorite {
			st.Favorites++
		}
	}
	return st
}

// findLocked returns the entry with id and its index, or nil.
// Must be called with s.mu held.
func (s *Store) findLocked(id int64) (*Entry, int) {
	i, ok := slices.BinarySearchFunc(s.entries, id, func(e *Entry, id int64) int {
		return cmp.Compare(e.ID, id)
	})
	if !ok {
		return nil, -1
	}
	return s.entries[i], i
}

// Subscribe returns a channel receiving every Change and a function that
// cancels the subscription. Delivery never blocks the store: if the buffer is
// full the change is dropped.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 32)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			slog.Warn("history subscriber full, dropping change", "op", c.Op, "id", c.ID)
		}
	}
}
