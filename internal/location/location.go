// Package location resolves the rider's approximate position. Location
// is advisory: callers fall back to a configured default when no locator
// can produce a fix.
package location

import (
	"context"
	"errors"

	"github.com/mitravind07/transitcast/internal/geo"
)

// ErrUnavailable indicates no position could be determined. Callers
// treat this as "use the fallback", not as a failure.
var ErrUnavailable = errors.New("location unavailable")

// Locator resolves a position.
type Locator interface {
	// Locate returns the current position, or ErrUnavailable when no
	// fix can be produced.
	Locate(ctx context.Context) (geo.Coordinate, error)
}

// Static always returns a fixed coordinate.
type Static struct {
	coord geo.Coordinate
}

// NewStatic creates a locator pinned to the given coordinate.
func NewStatic(coord geo.Coordinate) *Static {
	return &Static{coord: coord}
}

// Locate returns the pinned coordinate.
func (s *Static) Locate(_ context.Context) (geo.Coordinate, error) {
	if err := s.coord.Validate(); err != nil {
		return geo.Coordinate{}, ErrUnavailable
	}
	return s.coord, nil
}

// Chain tries each locator in order and returns the first fix.
type Chain struct {
	locators []Locator
}

// NewChain creates a locator that falls through the given locators.
func NewChain(locators ...Locator) *Chain {
	return &Chain{locators: locators}
}

// Locate returns the first successful fix, or ErrUnavailable when every
// locator fails.
func (c *Chain) Locate(ctx context.Context) (geo.Coordinate, error) {
	for _, l := range c.locators {
		coord, err := l.Locate(ctx)
		if err == nil {
			return coord, nil
		}
	}
	return geo.Coordinate{}, ErrUnavailable
}
