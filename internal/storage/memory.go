// internal/storage/memory.go
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

type memoryEntry struct {
	data        []byte
	contentType string
	etag        string
}

// MemoryStore holds objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryEntry
	gets    uint64
	misses  uint64
	puts    uint64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryEntry)}
}

// Get returns a copy of the object at key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++
	entry, ok := m.objects[key]
	if !ok {
		m.misses++
		return nil, fmt.Errorf("%s: %w", m.Location(key), ErrNotFound)
	}
	return append([]byte(nil), entry.data...), nil
}

// Put stores a copy of data at key.
func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	etag := Digest(data)
	m.objects[key] = memoryEntry{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		etag:        etag,
	}
	m.puts++

	log.Debug().
		Str("key", key).
		Int("size_bytes", len(data)).
		Msg("Stored object in memory")

	return etag, nil
}

// Location returns a mem:// URI for key.
func (m *MemoryStore) Location(key string) string {
	return "mem://" + key
}

// ContentType returns the content type recorded for key.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}

// Stats returns access counters.
func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"objects": len(m.objects),
		"gets":    m.gets,
		"misses":  m.misses,
		"puts":    m.puts,
	}
}
