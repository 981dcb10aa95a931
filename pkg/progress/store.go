// Package progress persists the user's progress: completed tasks, player
// level, capstone modes and found-in-raid item counts.
//
// State lives in a small key-value Store whose values are JSON documents.
// Two backends are provided: FileStore keeps everything in one JSON object
// file, SQLiteStore keeps one row per key. MemStore backs tests.
package progress

import (
	"errors"
	"sort"
	"sync"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// CompletedSet is the set of completed node ids.
type CompletedSet = model.CompletedSet

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("store is closed")

// Store is a key-value store of JSON values.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) ([]byte, bool, error)
	// Set writes one value.
	Set(key string, value []byte) error
	// SetMany writes all values in a single update.
	SetMany(values map[string][]byte) error
	Delete(key string) error
	// Keys returns all keys, sorted.
	Keys() ([]string, error)
	Close() error
}

// Refresher is implemented by stores that cache their backing file and can
// re-read it after another process changed it.
type Refresher interface {
	Refresh() error
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemStore) Set(key string, value []byte) error {
	return m.SetMany(map[string][]byte{key: value})
}

func (m *MemStore) SetMany(values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for k, v := range values {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return sortedKeys(m.data), nil
}

func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
