package transitland_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitravind07/transitcast/internal/arrivals"
	"github.com/mitravind07/transitcast/internal/transitland"
	"github.com/mitravind07/transitcast/internal/upstream"
)

func newTestClient(baseURL string) *transitland.Client {
	return transitland.NewClient(transitland.ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: upstream.NewClient(upstream.DefaultConfig("transitland-test")),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Name(t *testing.T) {
	client := transitland.NewClient(transitland.ClientConfig{Logger: zerolog.Nop()})
	assert.Equal(t, "transitland", client.Name())
}

func TestClient_NearbyStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stops", r.URL.Path)
		assert.Equal(t, "12.9716", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.5946", r.URL.Query().Get("lon"))
		assert.Equal(t, "800", r.URL.Query().Get("r"))
		assert.Equal(t, "30", r.URL.Query().Get("per_page"))

		resp := map[string]interface{}{
			"stops": []map[string]interface{}{
				{
					"onestop_id": "s-abc123-majestic",
					"name":       "Majestic Bus Station",
					"geometry": map[string]interface{}{
						"type":        "Point",
						"coordinates": []float64{77.5713, 12.9774},
					},
				},
				{
					"onestop_id": "s-abc456-corner",
					"street":     "MG Road",
					"geometry": map[string]interface{}{
						"type":        "Point",
						"coordinates": []float64{77.6190, 12.9752},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	found, err := client.NearbyStops(context.Background(), 12.9716, 77.5946, 800, 30)
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, "s-abc123-majestic", found[0].ID)
	assert.Equal(t, "Majestic Bus Station", found[0].Name)
	assert.InDelta(t, 12.9774, found[0].Lat, 0.0001)
	assert.InDelta(t, 77.5713, found[0].Lon, 0.0001)

	// Street is the name fallback when name is absent.
	assert.Equal(t, "MG Road", found[1].Name)
}

func TestClient_NearbyStops_DropsMalformedRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]interface{}{
			"stops": []map[string]interface{}{
				{
					"onestop_id": "s-no-geometry",
					"name":       "Ghost Stop",
					"geometry":   nil,
				},
				{
					"onestop_id": "s-ok",
					"geometry": map[string]interface{}{
						"type":        "Point",
						"coordinates": []float64{77.6, 12.9},
					},
				},
				{
					// No onestop_id at all.
					"name": "Anonymous Stop",
					"geometry": map[string]interface{}{
						"type":        "Point",
						"coordinates": []float64{77.7, 12.8},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	found, err := client.NearbyStops(context.Background(), 12.9716, 77.5946, 800, 30)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "s-ok", found[0].ID)
	// ID doubles as the display name when both name and street are missing.
	assert.Equal(t, "s-ok", found[0].Name)
}

func TestClient_NearbyStops_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.NearbyStops(context.Background(), 12.9716, 77.5946, 800, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 403")
}

func TestClient_StopArrivals_SourcePriority(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stop_schedules", r.URL.Path)
		assert.Equal(t, "s-abc123-majestic", r.URL.Query().Get("stop_onestop_id"))

		resp := map[string]interface{}{
			"stop_schedules": []map[string]interface{}{
				{
					"predicted_departure_time": "2026-08-29T10:05:00Z",
					"departure_time":           "2026-08-29T10:00:00Z",
					"route":                    map[string]string{"name": "335E"},
					"headsign":                 "Kadugodi",
				},
				{
					"departure_time": "10:30:00",
					"route":          map[string]string{"onestop_id": "r-abc-500d"},
					"trip_headsign":  "Silk Board",
				},
				{
					"arrival_time": "2026-08-29T11:00:00Z",
					"onestop_id":   "sched-3",
				},
				{
					// No time fields at all: kept, time unknown.
					"route": map[string]string{"name": "201"},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	got, err := client.StopArrivals(context.Background(), "s-abc123-majestic")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, arrivals.SourcePredicted, got[0].Source)
	require.NotNil(t, got[0].Departs)
	assert.Equal(t, time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC), got[0].Departs.UTC())
	assert.Equal(t, "335E", got[0].RouteLabel)
	assert.Equal(t, "Kadugodi", got[0].Headsign)

	assert.Equal(t, arrivals.SourceScheduled, got[1].Source)
	require.NotNil(t, got[1].Departs)
	assert.Equal(t, 10, got[1].Departs.Hour())
	assert.Equal(t, 30, got[1].Departs.Minute())
	assert.Equal(t, "r-abc-500d", got[1].RouteLabel)
	assert.Equal(t, "Silk Board", got[1].Headsign)

	assert.Equal(t, arrivals.SourceArrivalFallback, got[2].Source)
	assert.Equal(t, "sched-3", got[2].RouteLabel)

	assert.Nil(t, got[3].Departs)
	assert.Equal(t, "201", got[3].RouteLabel)
}

func TestClient_StopArrivals_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"stop_schedules": []interface{}{}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	got, err := client.StopArrivals(context.Background(), "s-any")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_APIKeyForwarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"stops": []interface{}{}})
	}))
	defer server.Close()

	client := transitland.NewClient(transitland.ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "secret",
		HTTPClient: upstream.NewClient(upstream.DefaultConfig("transitland-test")),
		Logger:     zerolog.Nop(),
	})

	_, err := client.NearbyStops(context.Background(), 1, 2, 100, 5)
	require.NoError(t, err)
}
