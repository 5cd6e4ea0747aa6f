package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mitravind07/transitcast/internal/geo"
	"github.com/mitravind07/transitcast/internal/upstream"
)

// IPGeoProviderName identifies the IP geolocation provider.
const IPGeoProviderName = "ipgeo"

// IPGeoConfig holds configuration for the IP geolocation locator.
type IPGeoConfig struct {
	// LookupURL is the full URL of the IP geolocation endpoint. The
	// endpoint must return JSON with "lat"/"lon" (or "latitude"/
	// "longitude") fields for the caller's address.
	LookupURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *upstream.Client

	// Logger for locator operations.
	Logger zerolog.Logger
}

// IPGeo resolves a coarse position from the machine's public IP
// address. Accuracy is city-level at best, which is enough to seed stop
// discovery.
type IPGeo struct {
	lookupURL string
	http      *upstream.Client
	logger    zerolog.Logger
}

// NewIPGeo creates an IP geolocation locator.
func NewIPGeo(cfg IPGeoConfig) *IPGeo {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = upstream.NewClient(upstream.DefaultConfig(IPGeoProviderName))
	}

	return &IPGeo{
		lookupURL: cfg.LookupURL,
		http:      httpClient,
		logger:    cfg.Logger,
	}
}

// Locate queries the geolocation endpoint. Any failure, including a
// response without usable coordinates, degrades to ErrUnavailable.
func (g *IPGeo) Locate(ctx context.Context) (geo.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.lookupURL, http.NoBody)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: creating request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Msg("ip geolocation lookup failed")
		return geo.Coordinate{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Coordinate{}, fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}

	var raw struct {
		Lat       *float64 `json:"lat"`
		Lon       *float64 `json:"lon"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: decoding response: %w", ErrUnavailable, err)
	}

	lat, lon := raw.Lat, raw.Lon
	if lat == nil {
		lat = raw.Latitude
	}
	if lon == nil {
		lon = raw.Longitude
	}
	if lat == nil || lon == nil {
		return geo.Coordinate{}, fmt.Errorf("%w: response missing coordinates", ErrUnavailable)
	}

	coord := geo.Coordinate{Lat: *lat, Lon: *lon}
	if err := coord.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return coord, nil
}
