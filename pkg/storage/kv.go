// Package storage persists the clip library to a local key-value store.
//
// The layout is two JSON documents under stable keys: ClipsKey holds the
// ordered clip records and CategoriesKey holds the ordered category names.
// New fields may be added to records; keys are never repurposed.
package storage

import (
	"context"
	"sync"
)

// Keys of the persisted library
const (
	ClipsKey      = "savedClips"
	CategoriesKey = "categories"
)

// KV is the local persistent key-value store the library is saved to
type KV interface {
	// Get returns the value stored under key. The boolean is false when the
	// key has never been written.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Batcher is implemented by stores that can write several keys as one
// all-or-nothing operation.
type Batcher interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// MemoryKV keeps values in process memory. It is safe for concurrent use.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) SetMany(ctx context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = append([]byte(nil), v...)
	}
	return nil
}
