package favorites

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Intended for tests; the client uses SQLiteRepository.
type InMemoryRepository struct {
	mu  sync.Mutex
	ids []string
	set bool
}

// NewInMemoryRepository creates an empty in-memory favorites repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Load returns the stored ids, or an empty slice when nothing was saved.
func (r *InMemoryRepository) Load(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.set {
		return []string{}, nil
	}
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out, nil
}

// Save replaces the stored value.
func (r *InMemoryRepository) Save(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = make([]string, len(ids))
	copy(r.ids, ids)
	r.set = true
	return nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
