package transitland_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitravind07/transitcast/internal/planner"
	"github.com/mitravind07/transitcast/internal/planner/transitland"
	"github.com/mitravind07/transitcast/internal/upstream"
)

func newBackend(routingURL string) *transitland.Client {
	return transitland.NewClient(transitland.ClientConfig{
		RoutingURL: routingURL,
		HTTPClient: upstream.NewClient(upstream.DefaultConfig("tl-routing-test")),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "transitland-routing", newBackend("http://example.invalid").Name())
}

func TestClient_Plan_DurationSecondsAndLegCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12.97,77.59", r.URL.Query().Get("origin"))
		assert.Equal(t, "13.00,77.60", r.URL.Query().Get("destination"))
		assert.Equal(t, "TRANSIT,WALK", r.URL.Query().Get("mode"))

		w.Header().Set("Content-Type", "application/json")
		// Legs arrive as opaque values in some deployments; only the
		// count is contractual.
		_, _ = w.Write([]byte(`{"itineraries":[{"duration":1800,"legs":[1,2]}]}`))
	}))
	defer server.Close()

	got, err := newBackend(server.URL).Plan(context.Background(), "12.97,77.59", "13.00,77.60")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, 1800.0, got[0].DurationSeconds)
	assert.Len(t, got[0].Legs, 2)
	assert.Nil(t, got[0].Geometry)
}

func TestClient_Plan_MinutesNormalizedToSeconds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"itineraries":[{"duration_minutes":25,"legs":[{"mode":"BUS"},{"mode":"WALK"}]}]}`))
	}))
	defer server.Close()

	got, err := newBackend(server.URL).Plan(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, 1500.0, got[0].DurationSeconds)
	assert.Equal(t, 25, got[0].DurationMinutes())
	require.Len(t, got[0].Legs, 2)
	assert.Equal(t, "BUS", got[0].Legs[0].Mode)
	assert.Equal(t, "WALK", got[0].Legs[1].Mode)
}

func TestClient_Plan_GeometryDecoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"itineraries":[{
			"duration": 600,
			"legs": [{"mode":"WALK"}],
			"geometry": {"coordinates": [[77.59, 12.97], [77.60, 12.98], [77.61]]}
		}]}`))
	}))
	defer server.Close()

	got, err := newBackend(server.URL).Plan(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// GeoJSON [lon, lat] flipped to (lat, lon); the short pair is dropped.
	require.Len(t, got[0].Geometry, 2)
	assert.InDelta(t, 12.97, got[0].Geometry[0].Lat, 0.0001)
	assert.InDelta(t, 77.59, got[0].Geometry[0].Lon, 0.0001)
}

func TestClient_Plan_MissingItineraryList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := newBackend(server.URL).Plan(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrNoItineraries)
}

func TestClient_Plan_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newBackend(server.URL).Plan(context.Background(), "a", "b")
	require.Error(t, err)

	var perr *planner.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "transitland-routing", perr.Backend)
	assert.Contains(t, perr.Message, "status 400")
}

func TestClient_Plan_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"itineraries": "not-a-list"`))
	}))
	defer server.Close()

	_, err := newBackend(server.URL).Plan(context.Background(), "a", "b")
	require.Error(t, err)

	var perr *planner.Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "decoding")
}
