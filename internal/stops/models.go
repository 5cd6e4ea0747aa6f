// Package stops provides nearby transit stop discovery.
package stops

import "context"

// Stop is a physical boarding point with a stable external identifier.
// A Stop is built once per fetch cycle and superseded, never mutated, by
// the next cycle.
type Stop struct {
	// ID is the provider-assigned stable identifier (Onestop ID).
	ID string

	// Name is the display name, falling back name -> street -> ID.
	Name string

	Lat float64
	Lon float64

	// DistanceMeters is the great-circle distance from the query point,
	// attached for display. Nil when the query point is unknown.
	DistanceMeters *float64
}

// Provider supplies raw nearby-stop records already normalized to Stop.
type Provider interface {
	// NearbyStops returns stops within radiusMeters of the point, at most
	// limit entries, in provider order.
	NearbyStops(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]Stop, error)
}
