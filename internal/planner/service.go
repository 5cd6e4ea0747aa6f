package planner

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the planning service.
type ServiceConfig struct {
	// Backends are the configured routing sources in priority order; the
	// first one is used. Typically the dedicated transit-routing backend
	// first, then the general trip planner.
	Backends []Backend

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service plans trips through the highest-priority configured backend.
// It never retries a failed plan; transport-level retry policy lives in
// the shared upstream client.
type Service struct {
	backends []Backend
	logger   zerolog.Logger
}

// NewService creates a planning service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		backends: cfg.Backends,
		logger:   cfg.Logger,
	}
}

// Configured reports whether at least one backend is available.
func (s *Service) Configured() bool {
	return len(s.backends) > 0
}

// BackendName returns the active backend's name, or empty when none is
// configured.
func (s *Service) BackendName() string {
	if len(s.backends) == 0 {
		return ""
	}
	return s.backends[0].Name()
}

// Plan requests itineraries from origin to destination.
//
// Outcomes stay three-way distinguishable: ErrNotConfigured when no
// backend exists, ErrNoItineraries when the backend found none, and a
// *planner.Error carrying the cause when the request itself failed.
func (s *Service) Plan(ctx context.Context, origin, destination string) ([]Itinerary, error) {
	if len(s.backends) == 0 {
		return nil, ErrNotConfigured
	}

	backend := s.backends[0]

	s.logger.Debug().
		Str("backend", backend.Name()).
		Str("origin", origin).
		Str("destination", destination).
		Msg("planning trip")

	itineraries, err := backend.Plan(ctx, origin, destination)
	if err != nil {
		if errors.Is(err, ErrNoItineraries) {
			s.logger.Debug().Str("backend", backend.Name()).Msg("no itineraries found")
			return nil, err
		}
		s.logger.Warn().Err(err).Str("backend", backend.Name()).Msg("trip planning failed")
		return nil, err
	}

	if len(itineraries) == 0 {
		return nil, ErrNoItineraries
	}

	s.logger.Debug().
		Str("backend", backend.Name()).
		Int("itinerary_count", len(itineraries)).
		Msg("received itineraries")

	return itineraries, nil
}
