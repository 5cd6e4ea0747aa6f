// Package favorites maintains the user's starred stops with write-through
// persistence.
package favorites

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the favorites service.
type ServiceConfig struct {
	// Repository is the persistence backend.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service is the in-process favorites set. The persisted value is loaded
// once at startup; every toggle synchronously rewrites it, so a read after
// a toggle always observes the toggle within the same process.
type Service struct {
	repo   Repository
	logger zerolog.Logger

	mu  sync.Mutex
	ids []string
}

// NewService creates the favorites service, loading the persisted set.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	ids, err := cfg.Repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		ids:    dedupe(ids),
	}, nil
}

// Contains reports whether the stop id is favorited.
func (s *Service) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// Toggle flips membership for id and persists the new set before
// returning. The returned bool is the new membership state.
//
// Toggling twice restores membership but not the original position: a
// removed-then-re-added id lands at the end of the list. That matches the
// persisted format's append semantics and is deliberate.
func (s *Service) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	next := make([]string, 0, len(s.ids)+1)
	if idx >= 0 {
		next = append(next, s.ids[:idx]...)
		next = append(next, s.ids[idx+1:]...)
	} else {
		next = append(next, s.ids...)
		next = append(next, id)
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return idx >= 0, fmt.Errorf("persisting favorites: %w", err)
	}

	s.ids = next
	added := idx < 0

	s.logger.Debug().
		Str("stop_id", id).
		Bool("favorited", added).
		Int("total", len(s.ids)).
		Msg("toggled favorite")

	return added, nil
}

// All returns the favorited stop ids in insertion order.
func (s *Service) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Service) indexOf(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// dedupe drops repeated ids while preserving first-seen order; persisted
// data from older versions may carry duplicates.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
