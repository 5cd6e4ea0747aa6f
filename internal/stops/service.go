package stops

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mitravind07/transitcast/internal/geo"
)

// ServiceConfig holds configuration for the stop discovery service.
type ServiceConfig struct {
	// Provider is the stop data source.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service discovers stops near a point. Discovery fails soft: any provider
// failure degrades to an empty result with a warning log, never an error —
// "no stops nearby" is a better outcome for the user than a raw transport
// error.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a stop discovery service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// FindNearby returns stops within radiusMeters of (lat, lon), at most limit
// entries, in provider order. Each stop carries its distance from the query
// point for display. Invalid inputs and provider failures yield an empty
// slice.
func (s *Service) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) []Stop {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		s.logger.Warn().Float64("lat", lat).Float64("lon", lon).Msg("non-finite query point, skipping stop discovery")
		return []Stop{}
	}
	if radiusMeters <= 0 || limit < 0 {
		s.logger.Warn().
			Float64("radius_m", radiusMeters).
			Int("limit", limit).
			Msg("invalid discovery parameters, skipping stop discovery")
		return []Stop{}
	}

	found, err := s.provider.NearbyStops(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("nearby stops fetch failed")
		return []Stop{}
	}

	for i := range found {
		d := geo.DistanceMeters(lat, lon, found[i].Lat, found[i].Lon)
		found[i].DistanceMeters = &d
	}

	s.logger.Debug().Int("stop_count", len(found)).Msg("discovered nearby stops")
	return found
}

// AttachDistance recomputes display distances against a new query point.
// A nil origin marks every distance unknown.
func AttachDistance(list []Stop, origin *geo.Coordinate) {
	for i := range list {
		if origin == nil {
			list[i].DistanceMeters = nil
			continue
		}
		d := geo.DistanceMeters(origin.Lat, origin.Lon, list[i].Lat, list[i].Lon)
		list[i].DistanceMeters = &d
	}
}

// SortByDistance orders stops by ascending attached distance, unknown
// distances last. This is an opt-in enhancement: FindNearby deliberately
// preserves provider order, which already reflects rough proximity.
func SortByDistance(list []Stop) {
	sort.SliceStable(list, func(i, j int) bool {
		di, dj := list[i].DistanceMeters, list[j].DistanceMeters
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}
