package vehicles_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitravind07/transitcast/internal/upstream"
	"github.com/mitravind07/transitcast/internal/vehicles"
)

type fakeFeed struct {
	positions []vehicles.VehiclePosition
	err       error
}

func (f *fakeFeed) Positions(_ context.Context) ([]vehicles.VehiclePosition, error) {
	return f.positions, f.err
}

func TestService_Poll_ReturnsPositions(t *testing.T) {
	feed := &fakeFeed{positions: []vehicles.VehiclePosition{
		{ID: "v-1", Lat: 12.97, Lon: 77.59, RouteLabel: "42"},
	}}
	svc := vehicles.NewService(vehicles.ServiceConfig{Feed: feed, Logger: zerolog.Nop()})

	got := svc.Poll(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "v-1", got[0].ID)
	assert.True(t, svc.Configured())
}

func TestService_Poll_UnconfiguredIsEmpty(t *testing.T) {
	svc := vehicles.NewService(vehicles.ServiceConfig{Logger: zerolog.Nop()})

	got := svc.Poll(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.False(t, svc.Configured())
}

func TestService_Poll_FeedFailureIsEmpty(t *testing.T) {
	feed := &fakeFeed{err: errors.New("feed down")}
	svc := vehicles.NewService(vehicles.ServiceConfig{Feed: feed, Logger: zerolog.Nop()})

	got := svc.Poll(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func newFeedClient(feedURL string) *vehicles.Client {
	return vehicles.NewClient(vehicles.ClientConfig{
		FeedURL:    feedURL,
		HTTPClient: upstream.NewClient(upstream.DefaultConfig("vehicles-test")),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Positions_Envelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vehicles":[
			{"id":"v-1","lat":12.9,"lon":77.5,"route_label":"12C"},
			{"id":"v-2","lat":12.8,"lon":77.4,"routeLabel":"42A"},
			{"id":"v-3","lat":12.7,"lon":77.3}
		]}`))
	}))
	defer server.Close()

	got, err := newFeedClient(server.URL).Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "12C", got[0].RouteLabel)
	assert.Equal(t, "42A", got[1].RouteLabel)
	assert.Empty(t, got[2].RouteLabel)
	assert.Equal(t, 12.8, got[1].Lat)
}

func TestClient_Positions_BareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"v-1","lat":1.0,"lon":2.0,"route":"Blue Line"}]`))
	}))
	defer server.Close()

	got, err := newFeedClient(server.URL).Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Blue Line", got[0].RouteLabel)
}

func TestClient_Positions_DropsEntriesWithoutCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vehicles":[
			{"id":"good","lat":1.0,"lon":2.0},
			{"id":"no-lon","lat":1.0},
			{"id":"no-coords"}
		]}`))
	}))
	defer server.Close()

	got, err := newFeedClient(server.URL).Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
}

func TestNewPoller_FloorsInterval(t *testing.T) {
	p := vehicles.NewPoller(vehicles.PollerConfig{
		Service:  vehicles.NewService(vehicles.ServiceConfig{Logger: zerolog.Nop()}),
		Interval: 2 * time.Second,
		Logger:   zerolog.Nop(),
	})
	assert.Equal(t, vehicles.MinPollInterval, p.Interval())

	p = vehicles.NewPoller(vehicles.PollerConfig{
		Service:  vehicles.NewService(vehicles.ServiceConfig{Logger: zerolog.Nop()}),
		Interval: time.Minute,
		Logger:   zerolog.Nop(),
	})
	assert.Equal(t, time.Minute, p.Interval())
}

func TestPoller_Run_PublishesImmediately(t *testing.T) {
	feed := &fakeFeed{positions: []vehicles.VehiclePosition{{ID: "v-1", Lat: 1, Lon: 2}}}
	svc := vehicles.NewService(vehicles.ServiceConfig{Feed: feed, Logger: zerolog.Nop()})

	published := make(chan []vehicles.VehiclePosition, 1)
	p := vehicles.NewPoller(vehicles.PollerConfig{
		Service:  svc,
		Publish:  func(v []vehicles.VehiclePosition) { published <- v },
		Interval: time.Minute,
		Logger:   zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case got := <-published:
		require.Len(t, got, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not publish an initial snapshot")
	}

	cancel()
	<-done
}
