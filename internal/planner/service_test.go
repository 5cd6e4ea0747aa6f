package planner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitravind07/transitcast/internal/planner"
)

type stubBackend struct {
	name        string
	itineraries []planner.Itinerary
	err         error
	calls       int
}

func (b *stubBackend) Plan(context.Context, string, string) ([]planner.Itinerary, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.itineraries, nil
}

func (b *stubBackend) Name() string { return b.name }

func TestService_NotConfigured(t *testing.T) {
	svc := planner.NewService(planner.ServiceConfig{Logger: zerolog.Nop()})

	assert.False(t, svc.Configured())
	assert.Empty(t, svc.BackendName())

	_, err := svc.Plan(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrNotConfigured)
	assert.NotErrorIs(t, err, planner.ErrNoItineraries)
}

func TestService_UsesHighestPriorityBackend(t *testing.T) {
	primary := &stubBackend{
		name:        "transitland-routing",
		itineraries: []planner.Itinerary{{DurationSeconds: 1800}},
	}
	secondary := &stubBackend{name: "otp"}

	svc := planner.NewService(planner.ServiceConfig{
		Backends: []planner.Backend{primary, secondary},
		Logger:   zerolog.Nop(),
	})

	assert.Equal(t, "transitland-routing", svc.BackendName())

	got, err := svc.Plan(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, secondary.calls, "lower-priority backend must not be consulted")
}

func TestService_EmptyResultIsNoItineraries(t *testing.T) {
	backend := &stubBackend{name: "otp"}
	svc := planner.NewService(planner.ServiceConfig{
		Backends: []planner.Backend{backend},
		Logger:   zerolog.Nop(),
	})

	_, err := svc.Plan(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrNoItineraries)
	assert.NotErrorIs(t, err, planner.ErrNotConfigured)
}

func TestService_BackendFailureCarriesCause(t *testing.T) {
	backend := &stubBackend{
		name: "otp",
		err:  &planner.Error{Backend: "otp", Message: "plan request failed", Err: errors.New("timeout")},
	}
	svc := planner.NewService(planner.ServiceConfig{
		Backends: []planner.Backend{backend},
		Logger:   zerolog.Nop(),
	})

	_, err := svc.Plan(context.Background(), "a", "b")
	require.Error(t, err)

	var perr *planner.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "otp", perr.Backend)
	assert.Contains(t, perr.Error(), "timeout")
	assert.NotErrorIs(t, err, planner.ErrNotConfigured)
	assert.NotErrorIs(t, err, planner.ErrNoItineraries)
}

func TestItinerary_DurationMinutes(t *testing.T) {
	assert.Equal(t, 30, planner.Itinerary{DurationSeconds: 1800}.DurationMinutes())
	assert.Equal(t, 15, planner.Itinerary{DurationSeconds: 900}.DurationMinutes())
	assert.Equal(t, 1, planner.Itinerary{DurationSeconds: 45}.DurationMinutes())
}
