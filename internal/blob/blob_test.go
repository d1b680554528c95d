package blob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "images"))

	ref, err := s.Put([]byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), Hash([]byte("png-bytes"))+".png"), ref)

	again, err := s.Put([]byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	got, err := s.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)
}

func TestPutEmpty(t *testing.T) {
	_, err := New(t.TempDir()).Put(nil)
	assert.Error(t, err)
}

func TestGetOutsideStore(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Get("/etc/passwd")
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	s := New(t.TempDir())
	keep, err := s.Put([]byte("keep"))
	require.NoError(t, err)
	drop, err := s.Put([]byte("drop"))
	require.NoError(t, err)

	n, err := s.Prune(map[string]bool{keep: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, keep)
	_, err = os.Stat(drop)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPruneMissingDir(t *testing.T) {
	n, err := New(filepath.Join(t.TempDir(), "absent")).Prune(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
