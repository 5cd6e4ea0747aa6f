// Package planner provides point-to-point transit itinerary planning over
// interchangeable routing backends.
package planner

import (
	"context"
	"errors"

	"github.com/mitravind07/transitcast/internal/geo"
)

// Sentinel errors for planning operations.
var (
	// ErrNotConfigured indicates no routing backend is configured at all.
	// Callers must distinguish this from an empty itinerary list.
	ErrNotConfigured = errors.New("no routing backend configured")
	// ErrNoItineraries indicates the backend answered but found no
	// itineraries for the requested trip.
	ErrNoItineraries = errors.New("no itineraries found")
)

// Itinerary is one candidate trip plan in the canonical shape both
// backends normalize into. Backend-specific fields never leak past the
// adapter boundary.
type Itinerary struct {
	// DurationSeconds is the total trip duration, always in seconds
	// regardless of the unit the backend reported.
	DurationSeconds float64

	// Legs are the trip segments in travel order.
	Legs []Leg

	// Geometry is the overview path as (lat, lon) points, nil when the
	// backend did not provide a decodable coordinate list. Callers must
	// tolerate geometry-less itineraries.
	Geometry []geo.Coordinate
}

// DurationMinutes returns the rounded duration for display.
func (it Itinerary) DurationMinutes() int {
	return int(it.DurationSeconds/60 + 0.5)
}

// Leg is one segment of an itinerary. Both backends expose leg detail
// inconsistently, so the canonical model keeps only the mode.
type Leg struct {
	// Mode is the travel mode label, empty when unknown.
	Mode string
}

// Backend is one configured routing source.
type Backend interface {
	// Plan requests itineraries from origin to destination, both given as
	// free-form text (addresses or "lat,lon" pairs, backend-dependent).
	Plan(ctx context.Context, origin, destination string) ([]Itinerary, error)

	// Name returns the backend identifier for logging and error reporting.
	Name() string
}

// Error is a failed planning request with a human-readable cause. It is
// distinguishable from both ErrNotConfigured and ErrNoItineraries.
type Error struct {
	Backend string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
