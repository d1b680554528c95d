// Package cliptest provides an in-memory clipboard for tests of code that
// drives a clip.Backend.
package cliptest

import (
	"slices"
	"sync"

	"go.klb.dev/qlip/internal/clip"
)

// Memory is an in-process clip.Backend. Set simulates a copy by another
// application; Write records what qlip itself put on the clipboard.
type Memory struct {
	mu      sync.Mutex
	items   []clip.Item
	writes  [][]clip.Item
	watchCh chan struct{}
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{watchCh: make(chan struct{}, 1)}
}

func (m *Memory) Name() string { return "memory" }

// Set replaces the clipboard contents and signals a change.
func (m *Memory) Set(items ...clip.Item) {
	m.mu.Lock()
	m.items = slices.Clone(items)
	m.mu.Unlock()
	m.signal()
}

func (m *Memory) Read() ([]clip.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items), nil
}

// Write replaces the clipboard contents. Like a real clipboard it signals a
// change, which the watcher must recognise as its own.
func (m *Memory) Write(items []clip.Item) error {
	m.mu.Lock()
	m.items = slices.Clone(items)
	m.writes = append(m.writes, slices.Clone(items))
	m.mu.Unlock()
	m.signal()
	return nil
}

// Writes returns every Write call so far.
func (m *Memory) Writes() [][]clip.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.writes)
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }
func (m *Memory) Close()                 {}

func (m *Memory) signal() {
	select {
	case m.watchCh <- struct{}{}:
	default:
	}
}
