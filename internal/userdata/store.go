package userdata

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a DocumentStore when no document exists under
// the requested key.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the minimal key-value document interface required by the
// adapters. Documents are opaque JSON blobs keyed by collection and ID.
type DocumentStore interface {
	// Get returns the raw document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) ([]byte, error)

	// Set writes the full document, replacing any existing value.
	Set(ctx context.Context, collection, id string, doc []byte) error
}

// InMemoryDocumentStore is an in-memory DocumentStore used for testing and
// development.
type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewInMemoryDocumentStore creates a new in-memory document store.
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string][]byte)}
}

// Get returns the raw document, or ErrNotFound.
func (s *InMemoryDocumentStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[collection+":"+id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

// Set writes the full document, replacing any existing value.
func (s *InMemoryDocumentStore) Set(ctx context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(doc))
	copy(stored, doc)
	s.docs[collection+":"+id] = stored
	return nil
}
