// Package arrivals provides per-stop departure data.
package arrivals

import (
	"context"
	"time"
)

// Source identifies which schedule field an arrival's time came from.
type Source string

const (
	// SourcePredicted means a real-time predicted departure time was used.
	SourcePredicted Source = "predicted"
	// SourceScheduled means the static scheduled departure time was used.
	SourceScheduled Source = "scheduled"
	// SourceArrivalFallback means only an arrival time was available.
	SourceArrivalFallback Source = "arrival-fallback"
)

// Arrival is one predicted or scheduled departure event at a stop.
// Arrivals are recomputed wholesale on every refresh and never mutated.
type Arrival struct {
	// RouteLabel is the display label for the serving route.
	RouteLabel string

	// Headsign is the trip destination text, empty when unknown.
	Headsign string

	// Departs is the best available departure time, nil when the provider
	// gave none ("TBD" on the rendering surface).
	Departs *time.Time

	// Source records which field Departs was taken from.
	Source Source
}

// Fetcher retrieves the upcoming arrivals for one stop.
type Fetcher interface {
	StopArrivals(ctx context.Context, stopID string) ([]Arrival, error)
}
