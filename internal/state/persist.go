package state

import (
	"errors"
	"sync"
)

// ErrNoDocument is returned by a Persister when nothing has been saved yet.
var ErrNoDocument = errors.New("no document stored")

// Persister is the durable-storage boundary for the store. Implementations
// hold opaque blobs keyed by name; the store owns serialization. Writes are
// issued from the store's flush goroutine, never from the mutation path.
type Persister interface {
	// Load returns the blob stored under key, or ErrNoDocument.
	Load(key string) ([]byte, error)
	// Save replaces the blob stored under key.
	Save(key string, data []byte) error
	Close() error
}

// Blob keys. The document key is the only migration-sensitive blob; session
// and cache blobs are recoverable and carry no version contract.
const (
	KeyDocument = "document"
	KeySession  = "session"
)

// MemoryPersister is an in-memory Persister for tests.
type MemoryPersister struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// SaveErr, when set, is returned from every Save. Lets tests exercise
	// flush-failure logging without a real backend.
	SaveErr error
}

// NewMemoryPersister returns an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{blobs: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNoDocument
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryPersister) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	out := make([]byte, len(data))
	copy(out, data)
	m.blobs[key] = out
	return nil
}

func (m *MemoryPersister) Close() error { return nil }
