package visit

import (
	"context"
	"sort"
	"sync"
)

// Repository defines the data operations for visit history.
type Repository interface {
	// Create stores a new visit.
	Create(ctx context.Context, v *Visit) error

	// ListByUser returns the user's visits matching the filter, newest
	// visit date first.
	ListByUser(ctx context.Context, userID string, f Filter) ([]Visit, error)

	// Delete removes a visit after verifying ownership. Returns
	// ErrVisitNotFound or ErrNotOwner on failure.
	Delete(ctx context.Context, userID, visitID string) error
}

// InMemoryRepository is an in-memory Repository used for testing and
// development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	visits map[string]Visit
}

// NewInMemoryRepository creates a new in-memory visit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{visits: make(map[string]Visit)}
}

// Create stores a new visit.
func (r *InMemoryRepository) Create(ctx context.Context, v *Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits[v.ID] = *v
	return nil
}

// ListByUser returns the user's visits matching the filter, newest first.
func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string, f Filter) ([]Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Visit, 0)
	for _, v := range r.visits {
		if v.UserID == userID && f.Matches(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VisitDate.After(out[j].VisitDate)
	})
	return out, nil
}

// Delete removes a visit after verifying ownership.
func (r *InMemoryRepository) Delete(ctx context.Context, userID, visitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visits[visitID]
	if !ok {
		return ErrVisitNotFound
	}
	if v.UserID != userID {
		return ErrNotOwner
	}
	delete(r.visits, visitID)
	return nil
}
