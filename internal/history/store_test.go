package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func data(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Content.Data
	}
	return out
}

func mustAdd(t *testing.T, s *Store, c Content) int64 {
	t.Helper()
	id, err := s.Add(c)
	require.NoError(t, err)
	return id
}

func TestAddNewestFirst(t *testing.T) {
	s := New()
	for i := range 5 {
		mustAdd(t, s, Text(fmt.Sprintf("item %d", i)))
	}
	assert.Equal(t, []string{"item 4", "item 3", "item 2", "item 1", "item 0"}, data(s.List()))
}

func TestAddDeduplicatesMostRecent(t *testing.T) {
	s := New()
	first := mustAdd(t, s, Text("hello"))
	second := mustAdd(t, s, Text("hello"))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Len())

	// Only the most recent entry is compared.
	mustAdd(t, s, Text("world"))
	mustAdd(t, s, Text("hello"))
	assert.Equal(t, []string{"hello", "world", "hello"}, data(s.List()))
}

func TestAddSameDataDifferentKind(t *testing.T) {
	s := New()
	mustAdd(t, s, Text("/tmp/a"))
	mustAdd(t, s, File("/tmp/a"))
	assert.Equal(t, 2, s.Len())
}

func TestAddRejectsInvalidContent(t *testing.T) {
	s := New()
	_, err := s.Add(Text(""))
	assert.ErrorIs(t, err, ErrEmptyContent)
	_, err = s.Add(Content{Kind: "audio", Data: "x"})
	assert.ErrorIs(t, err, ErrInvalidKind)
	assert.Zero(t, s.Len())
}

func TestDedupThenFavorite(t *testing.T) {
	s := New()
	hello := mustAdd(t, s, Text("hello"))
	mustAdd(t, s, Text("hello"))
	require.Len(t, s.List(), 1)

	mustAdd(t, s, Text("world"))
	assert.Equal(t, []string{"world", "hello"}, data(s.List()))

	_, err := s.ToggleFavorite(hello)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, data(s.List()))
}

func TestToggleFavoriteTwiceIsIdentity(t *testing.T) {
	s := New()
	id := mustAdd(t, s, Text("a"))
	mustAdd(t, s, Text("b"))

	e, err := s.ToggleFavorite(id)
	require.NoError(t, err)
	assert.True(t, e.Favorite)

	e, err = s.ToggleFavorite(id)
	require.NoError(t, err)
	assert.False(t, e.Favorite)
	assert.Zero(t, e.FavoriteSeq)
	assert.Equal(t, []string{"b", "a"}, data(s.List()))
}

func TestFavoritesPrecedeOthers(t *testing.T) {
	s := New()
	ids := make([]int64, 6)
	for i := range ids {
		ids[i] = mustAdd(t, s, Text(fmt.Sprintf("%d", i)))
	}
	// Favorite in a scrambled order; most recently favorited comes first.
	for _, i := range []int{1, 4, 0} {
		_, err := s.ToggleFavorite(ids[i])
		require.NoError(t, err)
	}

	list := s.List()
	assert.Equal(t, []string{"0", "4", "1", "5", "3", "2"}, data(list))
	seenPlain := false
	for _, e := range list {
		if !e.Favorite {
			seenPlain = true
			continue
		}
		assert.False(t, seenPlain, "favorite %d listed after a non-favorite", e.ID)
	}
}

func TestNotFound(t *testing.T) {
	s := New()
	_, err := s.ToggleFavorite(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(42), ErrNotFound)
	_, err = s.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := New()
	a := mustAdd(t, s, Text("a"))
	b := mustAdd(t, s, Text("b"))
	require.NoError(t, s.Delete(b))
	assert.Equal(t, []string{"a"}, data(s.List()))

	// With "b" gone, "a" is the most recent entry again.
	id := mustAdd(t, s, Text("a"))
	assert.Equal(t, a, id)
	assert.ErrorIs(t, s.Delete(b), ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	s := New()
	a := mustAdd(t, s, Text("a"))
	mustAdd(t, s, Text("b"))
	_, err := s.ToggleFavorite(a)
	require.NoError(t, err)

	s.DeleteAll()
	assert.Empty(t, s.List())

	// Ids are not reused after clearing.
	id := mustAdd(t, s, Text("a"))
	assert.Greater(t, id, a+1)
}

func TestLoadBypassesDedupAndAdvancesCounters(t *testing.T) {
	s := New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.Load([]Entry{
		{ID: 3, Content: Text("same"), CapturedAt: at},
		{ID: 7, Content: Text("same"), CapturedAt: at},
		{ID: 5, Content: URL("https://example.com"), CapturedAt: at, Favorite: true, FavoriteSeq: 9},
	})
	require.Equal(t, 3, s.Len())
	assert.Equal(t, []int64{5, 7, 3}, ids(s.List()))

	id := mustAdd(t, s, Text("new"))
	assert.Equal(t, int64(8), id)

	e := mustAdd(t, s, Text("other"))
	fav, err := s.ToggleFavorite(e)
	require.NoError(t, err)
	assert.Equal(t, int64(10), fav.FavoriteSeq)
}

func TestLoadDuplicateIDsLastWins(t *testing.T) {
	s := New()
	s.Load([]Entry{
		{ID: 1, Content: Text("old")},
		{ID: 1, Content: Text("new")},
	})
	e, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "new", e.Content.Data)
}

func TestMaxEntriesNeverEvictsFavorites(t *testing.T) {
	s := New(WithMaxEntries(2))
	keep := mustAdd(t, s, Text("keep"))
	_, err := s.ToggleFavorite(keep)
	require.NoError(t, err)

	for _, v := range []string{"a", "b", "c", "d"} {
		mustAdd(t, s, Text(v))
	}
	assert.Equal(t, []string{"keep", "d", "c"}, data(s.List()))
}

func TestWithClock(t *testing.T) {
	at := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return at }))
	id := mustAdd(t, s, Text("x"))
	e, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, at, e.CapturedAt)
}

func TestListIsACopy(t *testing.T) {
	s := New()
	id := mustAdd(t, s, Text("x"))
	list := s.List()
	list[0].Favorite = true
	list[0].Content.Data = "mutated"

	e, err := s.Get(id)
	require.NoError(t, err)
	assert.False(t, e.Favorite)
	assert.Equal(t, "x", e.Content.Data)
}

func TestSubscribe(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	id := mustAdd(t, s, Text("x"))
	mustAdd(t, s, Text("x")) // dedup: no notification
	_, err := s.ToggleFavorite(id)
	require.NoError(t, err)
	require.NoError(t, s.Delete(id))
	s.DeleteAll()

	want := []Change{
		{Op: OpAdded, ID: id},
		{Op: OpFavorite, ID: id},
		{Op: OpDeleted, ID: id},
		{Op: OpCleared},
	}
	for _, w := range want {
		select {
		case got := <-ch:
			assert.Equal(t, w, got)
		case <-time.After(time.Second):
			t.Fatalf("missing change %v", w)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	mustAdd(t, s, Text("after"))
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				id, err := s.Add(Text(fmt.Sprintf("%d-%d", w, i)))
				if err != nil {
					t.Error(err)
					return
				}
				if i%3 == 0 {
					_, _ = s.ToggleFavorite(id)
				}
				_ = s.List()
			}
		}()
	}
	wg.Wait()

	list := s.List()
	seen := make(map[int64]bool, len(list))
	for _, e := range list {
		assert.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, list, 400)
}

func ids(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
