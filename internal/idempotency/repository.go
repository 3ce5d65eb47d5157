package idempotency

import (
	"sync"
	"time"
)

// InMemoryRepository keeps idempotency records in a map. Records are
// copied on the way in and out so callers can't mutate stored state.
type InMemoryRepository struct {
	mu   sync.RWMutex
	keys map[string]*Key
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		keys: make(map[string]*Key),
	}
}

// Get implements Repository.
func (r *InMemoryRepository) Get(key string) (*Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.keys[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return copyRecord(record), nil
}

// Store implements Repository, validating the key and stamping CreatedAt
// when the caller left it zero.
func (r *InMemoryRepository) Store(record *Key) error {
	if err := ValidateKey(record.Key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.keys[record.Key]; exists {
		return ErrKeyExists
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	r.keys[record.Key] = copyRecord(record)
	return nil
}

// DeleteOlderThan implements Repository.
func (r *InMemoryRepository) DeleteOlderThan(duration time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-duration)
	var deleted int64
	for key, record := range r.keys {
		if record.CreatedAt.Before(cutoff) {
			delete(r.keys, key)
			deleted++
		}
	}
	return deleted, nil
}

// copyRecord deep-copies a record, including the optional VisitID pointer.
func copyRecord(record *Key) *Key {
	if record == nil {
		return nil
	}

	copied := *record
	if record.VisitID != nil {
		visitID := *record.VisitID
		copied.VisitID = &visitID
	}
	return &copied
}
