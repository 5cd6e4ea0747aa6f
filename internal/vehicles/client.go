package vehicles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mitravind07/transitcast/internal/upstream"
)

// ProviderName identifies the vehicle position feed.
const ProviderName = "vehicle-feed"

// ClientConfig holds configuration for the vehicle feed client.
type ClientConfig struct {
	// FeedURL is the full URL of the vehicle position feed.
	FeedURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *upstream.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches vehicle positions from an HTTP JSON feed.
type Client struct {
	feedURL string
	http    *upstream.Client
	logger  zerolog.Logger
}

// NewClient creates a new vehicle feed client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = upstream.NewClient(upstream.DefaultConfig(ProviderName))
	}

	return &Client{
		feedURL: cfg.FeedURL,
		http:    httpClient,
		logger:  cfg.Logger,
	}
}

// Positions fetches the feed's current vehicle positions. The feed may
// wrap its payload in a {"vehicles": [...]} envelope or return a bare
// array; both shapes are accepted. Entries without coordinates are
// dropped individually.
func (c *Client) Positions(ctx context.Context) ([]VehiclePosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	raw, err := decodeFeed(body)
	if err != nil {
		return nil, err
	}

	out := make([]VehiclePosition, 0, len(raw))
	for i := range raw {
		pos, ok := toPosition(&raw[i])
		if !ok {
			c.logger.Debug().
				Str("vehicle_id", raw[i].ID).
				Msg("dropping vehicle without coordinates")
			continue
		}
		out = append(out, pos)
	}

	return out, nil
}

// decodeFeed handles both feed shapes: an enveloped object and a bare
// top-level array.
func decodeFeed(body []byte) ([]feedVehicle, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []feedVehicle
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return list, nil
	}

	var envelope struct {
		Vehicles []feedVehicle `json:"vehicles"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return envelope.Vehicles, nil
}

// toPosition converts a raw feed entry to the canonical model. Returns
// false when either coordinate is missing.
func toPosition(raw *feedVehicle) (VehiclePosition, bool) {
	if raw.Lat == nil || raw.Lon == nil {
		return VehiclePosition{}, false
	}

	label := raw.RouteLabel
	if label == "" {
		label = raw.RouteLabelAlt
	}
	if label == "" {
		label = raw.Route
	}

	return VehiclePosition{
		ID:         raw.ID,
		Lat:        *raw.Lat,
		Lon:        *raw.Lon,
		RouteLabel: label,
	}, true
}

// Label fallback order: route_label (canonical), routeLabel, route.
type feedVehicle struct {
	ID            string   `json:"id"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	RouteLabel    string   `json:"route_label"`
	RouteLabelAlt string   `json:"routeLabel"`
	Route         string   `json:"route"`
}
