// Package dashboard holds the rider-facing view state and renders it as
// text. All mutation goes through setters so background workers and the
// command loop can share one State.
package dashboard

import (
	"errors"
	"sync"

	"github.com/mitravind07/transitcast/internal/geo"
	"github.com/mitravind07/transitcast/internal/planner"
	"github.com/mitravind07/transitcast/internal/stops"
	"github.com/mitravind07/transitcast/internal/tracker"
	"github.com/mitravind07/transitcast/internal/upstream"
	"github.com/mitravind07/transitcast/internal/vehicles"
)

// State is the current view model. Safe for concurrent use.
type State struct {
	mu sync.RWMutex

	location       *geo.Coordinate
	locationNote   string
	advisory       string
	stops          []stops.Stop
	favorites      map[string]bool
	arrivals       *tracker.Update
	itineraries    []planner.Itinerary
	planOutcome    planOutcome
	planErr        error
	planBackend    string
	vehicles       []vehicles.VehiclePosition
	providerHealth []upstream.Health
}

type planOutcome int

const (
	planNone planOutcome = iota
	planOK
	planNotConfigured
	planNoItineraries
	planFailed
)

// NewState creates an empty view state.
func NewState() *State {
	return &State{favorites: map[string]bool{}}
}

// SetLocation records the resolved position and an optional note about
// how it was obtained (pinned, IP-based, fallback).
func (s *State) SetLocation(coord geo.Coordinate, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := coord
	s.location = &c
	s.locationNote = note
}

// SetAdvisory records a banner message about degraded behavior, such as
// location being unavailable. Empty clears it.
func (s *State) SetAdvisory(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advisory = msg
}

// SetStops replaces the discovered stop list.
func (s *State) SetStops(list []stops.Stop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops = list
}

// Stops returns the discovered stop list in display order.
func (s *State) Stops() []stops.Stop {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stops.Stop, len(s.stops))
	copy(out, s.stops)
	return out
}

// StopAt returns the stop at the 1-based display index.
func (s *State) StopAt(index int) (stops.Stop, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 1 || index > len(s.stops) {
		return stops.Stop{}, false
	}
	return s.stops[index-1], true
}

// SetFavorites replaces the favorite marker set.
func (s *State) SetFavorites(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.favorites[id] = true
	}
}

// SetArrivals records the latest arrivals update for the selected stop.
func (s *State) SetArrivals(u tracker.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrivals = &u
}

// ClearArrivals drops the arrivals panel, used when the selection is
// cleared.
func (s *State) ClearArrivals() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrivals = nil
}

// SetPlanResult records a route planning outcome. A nil error with
// itineraries is success; sentinel and backend errors render as
// distinct guidance.
func (s *State) SetPlanResult(backend string, itineraries []planner.Itinerary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planBackend = backend
	s.itineraries = itineraries
	s.planErr = err

	switch {
	case err == nil:
		s.planOutcome = planOK
	case errors.Is(err, planner.ErrNotConfigured):
		s.planOutcome = planNotConfigured
	case errors.Is(err, planner.ErrNoItineraries):
		s.planOutcome = planNoItineraries
	default:
		s.planOutcome = planFailed
	}
}

// SetVehicles replaces the live vehicle snapshot.
func (s *State) SetVehicles(list []vehicles.VehiclePosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = list
}

// SetProviderHealth replaces the provider health snapshot.
func (s *State) SetProviderHealth(list []upstream.Health) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerHealth = list
}
