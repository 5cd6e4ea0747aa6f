// Package transitland provides a client for the Transitland v2 REST API,
// serving both stop discovery and per-stop schedule queries.
package transitland

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitravind07/transitcast/internal/arrivals"
	"github.com/mitravind07/transitcast/internal/stops"
	"github.com/mitravind07/transitcast/internal/upstream"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "transitland"

	// DefaultBaseURL is the Transitland v2 REST base URL.
	DefaultBaseURL = "https://transit.land/api/v2/rest"
)

// ClientConfig holds configuration for the Transitland client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to transit.land).
	BaseURL string

	// APIKey is an optional Transitland API key sent as a query parameter.
	APIKey string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses an upstream client with defaults.
	HTTPClient *upstream.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Transitland REST API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
	logger  zerolog.Logger
}

// NewClient creates a new Transitland client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = upstream.NewClient(upstream.DefaultConfig(ProviderName))
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// NearbyStops queries stops within radiusMeters of the point. Records
// without coordinate geometry are dropped individually; one malformed
// record never discards its siblings.
func (c *Client) NearbyStops(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]stops.Stop, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("r", strconv.FormatFloat(radiusMeters, 'f', -1, 64))
	q.Set("per_page", strconv.Itoa(limit))

	var resp stopsResponse
	if err := c.getJSON(ctx, "/stops", q, &resp); err != nil {
		return nil, err
	}

	out := make([]stops.Stop, 0, len(resp.Stops))
	for i := range resp.Stops {
		stop, ok := c.toStop(&resp.Stops[i])
		if !ok {
			c.logger.Debug().
				Str("onestop_id", resp.Stops[i].OnestopID).
				Msg("dropping stop without coordinate geometry")
			continue
		}
		out = append(out, stop)
	}

	return out, nil
}

// StopArrivals queries the upcoming schedule entries for a stop.
func (c *Client) StopArrivals(ctx context.Context, stopID string) ([]arrivals.Arrival, error) {
	q := url.Values{}
	q.Set("stop_onestop_id", stopID)
	q.Set("per_page", "20")

	var resp schedulesResponse
	if err := c.getJSON(ctx, "/stop_schedules", q, &resp); err != nil {
		return nil, err
	}

	out := make([]arrivals.Arrival, 0, len(resp.Schedules))
	for i := range resp.Schedules {
		out = append(out, toArrival(&resp.Schedules[i], time.Now()))
	}

	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// toStop converts a raw Transitland stop record to the canonical model.
// Returns false when the record has no usable coordinates.
func (c *Client) toStop(raw *tlStop) (stops.Stop, bool) {
	if raw.OnestopID == "" || raw.Geometry == nil || len(raw.Geometry.Coordinates) < 2 {
		return stops.Stop{}, false
	}

	name := raw.Name
	if name == "" {
		name = raw.Street
	}
	if name == "" {
		name = raw.OnestopID
	}

	// GeoJSON order: [lon, lat].
	return stops.Stop{
		ID:   raw.OnestopID,
		Name: name,
		Lon:  raw.Geometry.Coordinates[0],
		Lat:  raw.Geometry.Coordinates[1],
	}, true
}

// toArrival converts a raw schedule entry, preferring predicted departure,
// then scheduled departure, then arrival time. A missing or unparseable
// time degrades to unknown rather than dropping the entry.
func toArrival(raw *tlSchedule, now time.Time) arrivals.Arrival {
	a := arrivals.Arrival{
		Headsign: raw.Headsign,
	}
	if a.Headsign == "" {
		a.Headsign = raw.TripHeadsign
	}

	switch {
	case raw.Route != nil && raw.Route.Name != "":
		a.RouteLabel = raw.Route.Name
	case raw.Route != nil && raw.Route.OnestopID != "":
		a.RouteLabel = raw.Route.OnestopID
	default:
		a.RouteLabel = raw.OnestopID
	}

	switch {
	case raw.PredictedDeparture != "":
		a.Source = arrivals.SourcePredicted
		a.Departs = parseScheduleTime(raw.PredictedDeparture, now)
	case raw.Departure != "":
		a.Source = arrivals.SourceScheduled
		a.Departs = parseScheduleTime(raw.Departure, now)
	case raw.Arrival != "":
		a.Source = arrivals.SourceArrivalFallback
		a.Departs = parseScheduleTime(raw.Arrival, now)
	default:
		a.Source = arrivals.SourceScheduled
	}

	return a
}

// parseScheduleTime accepts the two shapes Transitland hands back: a full
// RFC 3339 timestamp or a bare HH:MM:SS clock time, anchored to today.
func parseScheduleTime(s string, now time.Time) *time.Time {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return &ts
	}
	if clock, err := time.Parse("15:04:05", s); err == nil {
		ts := time.Date(now.Year(), now.Month(), now.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location())
		return &ts
	}
	return nil
}

// Transitland API response structures.

type stopsResponse struct {
	Stops []tlStop `json:"stops"`
}

type tlStop struct {
	OnestopID string      `json:"onestop_id"`
	Name      string      `json:"name"`
	Street    string      `json:"street"`
	Geometry  *tlGeometry `json:"geometry"`
}

type tlGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type schedulesResponse struct {
	Schedules []tlSchedule `json:"stop_schedules"`
}

type tlSchedule struct {
	OnestopID          string   `json:"onestop_id"`
	PredictedDeparture string   `json:"predicted_departure_time"`
	Departure          string   `json:"departure_time"`
	Arrival            string   `json:"arrival_time"`
	Headsign           string   `json:"headsign"`
	TripHeadsign       string   `json:"trip_headsign"`
	Route              *tlRoute `json:"route"`
}

type tlRoute struct {
	Name      string `json:"name"`
	OnestopID string `json:"onestop_id"`
}
