// Package blob stores captured clipboard images on disk. Entries only keep a
// reference (the file path) so snapshots stay small.
package blob

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a content-addressed directory of PNG files.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// Put writes data and returns its reference. Writing identical bytes twice
// yields the same reference and touches the disk once.
func (s *Store) Put(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("blob: empty image")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("blob: create dir: %w", err)
	}
	path := filepath.Join(s.dir, Hash(data)+".png")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	tmp, err := os.CreateTemp(s.dir, ".blob-*")
	if err != nil {
		return "", fmt.Errorf("blob: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("blob: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("blob: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("blob: rename: %w", err)
	}
	return path, nil
}

// Get reads the image behind ref. Only references inside the store are
// honoured.
func (s *Store) Get(ref string) ([]byte, error) {
	if !s.owns(ref) {
		return nil, fmt.Errorf("blob: %q is outside %s", ref, s.dir)
	}
	return os.ReadFile(ref)
}

// Prune removes blobs not present in keep. It returns the number removed.
func (s *Store) Prune(keep map[string]bool) (int, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("blob: %w", err)
	}
	n := 0
	for _, de := range ents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".png") {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		if keep[path] {
			continue
		}
		if err := os.Remove(path); err != nil {
			return n, fmt.Errorf("blob: %w", err)
		}
		n++
	}
	return n, nil
}

func (s *Store) owns(ref string) bool {
	rel, err := filepath.Rel(s.dir, ref)
	return err == nil && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}
