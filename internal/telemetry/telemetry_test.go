package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitravind07/transitcast/internal/telemetry"
)

func TestInit_NoEndpointIsNoop(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "transitcast-test",
		ServiceVersion: "0.0.0",
	})

	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	require.NotNil(t, provider.Instruments)
	assert.NotNil(t, provider.Instruments.StopFetches)
	assert.NotNil(t, provider.Instruments.StaleDiscards)

	// Instruments on the noop meter record without error.
	provider.Instruments.StopFetches.Add(ctx, 1)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_Empty(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}
