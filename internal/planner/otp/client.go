// Package otp implements the planner backend for an OpenTripPlanner
// instance's plan API.
package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/mitravind07/transitcast/internal/planner"
	"github.com/mitravind07/transitcast/internal/upstream"
)

// BackendName identifies this routing backend.
const BackendName = "otp"

// ClientConfig holds configuration for the OTP backend.
type ClientConfig struct {
	// BaseURL is the OTP server base URL (required); the plan path is
	// appended.
	BaseURL string

	// Router is the OTP router id. Default: "default".
	Router string

	// Mode is the requested travel modes. Default: "TRANSIT,WALK".
	Mode string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *upstream.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client plans trips against an OpenTripPlanner instance.
//
// OTP encodes leg geometry as opaque encoded polylines; this client does
// not decode them, so normalized itineraries carry no geometry. That is a
// deliberate capability gap: absent geometry over guessed coordinates.
type Client struct {
	baseURL string
	router  string
	mode    string
	http    *upstream.Client
	logger  zerolog.Logger
}

// NewClient creates an OTP backend.
func NewClient(cfg ClientConfig) *Client {
	router := cfg.Router
	if router == "" {
		router = "default"
	}
	mode := cfg.Mode
	if mode == "" {
		mode = "TRANSIT,WALK"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = upstream.NewClient(upstream.DefaultConfig(BackendName))
	}

	return &Client{
		baseURL: cfg.BaseURL,
		router:  router,
		mode:    mode,
		http:    httpClient,
		logger:  cfg.Logger,
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return BackendName
}

// Plan requests itineraries. Origin and destination must be "lat,lon"
// strings, which is what OTP's fromPlace/toPlace parameters expect.
func (c *Client) Plan(ctx context.Context, origin, destination string) ([]planner.Itinerary, error) {
	q := url.Values{}
	q.Set("fromPlace", origin)
	q.Set("toPlace", destination)
	q.Set("mode", c.mode)

	planURL := fmt.Sprintf("%s/routers/%s/plan?%s", c.baseURL, c.router, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, planURL, http.NoBody)
	if err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "creating request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "plan request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &planner.Error{
			Backend: BackendName,
			Message: fmt.Sprintf("OTP returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "reading plan response", Err: err}
	}

	var parsed planResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &planner.Error{Backend: BackendName, Message: "decoding plan response", Err: err}
	}

	if parsed.Plan == nil || len(parsed.Plan.Itineraries) == 0 {
		return nil, planner.ErrNoItineraries
	}

	out := make([]planner.Itinerary, 0, len(parsed.Plan.Itineraries))
	for i := range parsed.Plan.Itineraries {
		out = append(out, toItinerary(&parsed.Plan.Itineraries[i]))
	}
	return out, nil
}

// toItinerary normalizes a raw OTP itinerary. OTP reports duration in
// seconds already; leg geometry stays undecoded so Geometry is always nil.
func toItinerary(raw *otpItinerary) planner.Itinerary {
	it := planner.Itinerary{
		DurationSeconds: raw.Duration,
	}

	it.Legs = make([]planner.Leg, 0, len(raw.Legs))
	for _, rawLeg := range raw.Legs {
		var leg otpLeg
		if err := json.Unmarshal(rawLeg, &leg); err != nil {
			it.Legs = append(it.Legs, planner.Leg{})
			continue
		}
		it.Legs = append(it.Legs, planner.Leg{Mode: leg.Mode})
	}

	return it
}

// OTP plan response structures.

type planResponse struct {
	Plan *otpPlan `json:"plan"`
}

type otpPlan struct {
	Itineraries []otpItinerary `json:"itineraries"`
}

type otpItinerary struct {
	Duration float64           `json:"duration"`
	Legs     []json.RawMessage `json:"legs"`
}

type otpLeg struct {
	Mode string `json:"mode"`
}
