// Package transitland implements the planner backend for the Transitland
// routing endpoint.
package transitland

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/mitravind07/transitcast/internal/geo"
	"github.com/mitravind07/transitcast/internal/planner"
	"github.com/mitravind07/transitcast/internal/upstream"
)

// BackendName identifies this routing backend.
const BackendName = "transitland-routing"

// ClientConfig holds configuration for the Transitland routing backend.
type ClientConfig struct {
	// RoutingURL is the full routing endpoint URL (required).
	RoutingURL string

	// Mode is the requested travel modes. Default: "TRANSIT,WALK".
	Mode string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *upstream.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client plans trips against the Transitland routing endpoint and
// normalizes its response shape into the canonical itinerary model.
type Client struct {
	routingURL string
	mode       string
	http       *upstream.Client
	logger     zerolog.Logger
}

// NewClient creates a Transitland routing backend.
func NewClient(cfg ClientConfig) *Client {
	mode := cfg.Mode
	if mode == "" {
		mode = "TRANSIT,WALK"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = upstream.NewClient(upstream.DefaultConfig(BackendName))
	}

	return &Client{
		routingURL: cfg.RoutingURL,
		mode:       mode,
		http:       httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return BackendName
}

// Plan requests itineraries. Origin and destination pass through verbatim:
// the endpoint accepts both addresses and "lat,lon" pairs.
func (c *Client) Plan(ctx context.Context, origin, destination string) ([]planner.Itinerary, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", c.mode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routingURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "creating request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "routing request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &planner.Error{
			Backend: BackendName,
			Message: fmt.Sprintf("routing backend returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "reading routing response", Err: err}
	}

	var parsed routingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "decoding routing response", Err: err}
	}

	if len(parsed.Itineraries) == 0 {
		return nil, planner.ErrNoItineraries
	}

	out := make([]planner.Itinerary, 0, len(parsed.Itineraries))
	for i := range parsed.Itineraries {
		out = append(out, toItinerary(&parsed.Itineraries[i]))
	}
	return out, nil
}

// toItinerary normalizes a raw itinerary. Duration arrives either as
// pre-computed minutes or as seconds; internally everything is seconds.
func toItinerary(raw *tlItinerary) planner.Itinerary {
	it := planner.Itinerary{}

	switch {
	case raw.DurationMinutes > 0:
		it.DurationSeconds = raw.DurationMinutes * 60
	default:
		it.DurationSeconds = raw.Duration
	}

	// Leg detail varies wildly between deployments; only the count is
	// guaranteed. Extract the mode when an element actually carries one.
	it.Legs = make([]planner.Leg, 0, len(raw.Legs))
	for _, rawLeg := range raw.Legs {
		var leg tlLeg
		if err := json.Unmarshal(rawLeg, &leg); err != nil {
			it.Legs = append(it.Legs, planner.Leg{})
			continue
		}
		it.Legs = append(it.Legs, planner.Leg{Mode: leg.Mode})
	}

	// Overview geometry is an explicit [lon, lat] coordinate list.
	if raw.Geometry != nil {
		for _, pair := range raw.Geometry.Coordinates {
			if len(pair) < 2 {
				continue
			}
			it.Geometry = append(it.Geometry, geo.Coordinate{Lat: pair[1], Lon: pair[0]})
		}
	}

	return it
}

// Transitland routing response structures.

type routingResponse struct {
	Itineraries []tlItinerary `json:"itineraries"`
}

type tlItinerary struct {
	DurationMinutes float64           `json:"duration_minutes"`
	Duration        float64           `json:"duration"`
	Legs            []json.RawMessage `json:"legs"`
	Geometry        *tlGeometry       `json:"geometry"`
}

type tlLeg struct {
	Mode string `json:"mode"`
}

type tlGeometry struct {
	Coordinates [][]float64 `json:"coordinates"`
}
