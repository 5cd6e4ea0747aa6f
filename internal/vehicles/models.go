// Package vehicles polls live vehicle positions from a provider feed.
package vehicles

import "context"

// VehiclePosition is a single live vehicle observation.
type VehiclePosition struct {
	// ID uniquely identifies the vehicle within the feed.
	ID string `json:"id"`

	// Lat and Lon are the vehicle's last reported position.
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// RouteLabel is the rider-facing route name, if the feed carries one.
	RouteLabel string `json:"routeLabel,omitempty"`
}

// Feed supplies current vehicle positions.
type Feed interface {
	// Positions returns the feed's current vehicle positions.
	Positions(ctx context.Context) ([]VehiclePosition, error)
}
