// Package telemetry provides OpenTelemetry initialization and the
// application's domain instruments.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds configuration for telemetry setup.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// OTLPEndpoint is the gRPC collector endpoint. Empty disables
	// export; the provider then runs with noop tracer and meter.
	OTLPEndpoint string
}

// Provider holds the initialized telemetry providers and instruments.
type Provider struct {
	Tracer      trace.Tracer
	Meter       metric.Meter
	Instruments *Instruments

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Instruments are the counters the application records against.
type Instruments struct {
	// StopFetches counts arrival fetches started for a selected stop.
	StopFetches metric.Int64Counter

	// StaleDiscards counts fetch results discarded because the
	// selection changed while the fetch was in flight.
	StaleDiscards metric.Int64Counter

	// SoftFailures counts provider failures that degraded to an empty
	// result instead of an error.
	SoftFailures metric.Int64Counter

	// PlanRequests counts route planning requests by outcome.
	PlanRequests metric.Int64Counter
}

// Init sets up OpenTelemetry. When no endpoint is configured it returns
// a working noop provider so call sites never branch on telemetry being
// on or off. The returned Provider must be shut down on exit.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.OTLPEndpoint == "" {
		p := &Provider{
			Tracer: otel.Tracer(cfg.ServiceName),
			Meter:  otel.Meter(cfg.ServiceName),
		}
		var err error
		p.Instruments, err = newInstruments(p.Meter)
		return p, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(15*time.Second),
		)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p := &Provider{
		Tracer: tp.Tracer(cfg.ServiceName),
		Meter:  mp.Meter(cfg.ServiceName),
		tp:     tp,
		mp:     mp,
	}
	p.Instruments, err = newInstruments(p.Meter)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	return p, nil
}

// Shutdown flushes and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			return err
		}
	}
	if p.mp != nil {
		return p.mp.Shutdown(ctx)
	}
	return nil
}

func newInstruments(meter metric.Meter) (*Instruments, error) {
	inst := &Instruments{}
	var err error

	if inst.StopFetches, err = meter.Int64Counter("transitcast.stop_fetches",
		metric.WithDescription("Arrival fetches started for a selected stop")); err != nil {
		return nil, err
	}
	if inst.StaleDiscards, err = meter.Int64Counter("transitcast.stale_discards",
		metric.WithDescription("Fetch results discarded after a selection change")); err != nil {
		return nil, err
	}
	if inst.SoftFailures, err = meter.Int64Counter("transitcast.soft_failures",
		metric.WithDescription("Provider failures degraded to empty results")); err != nil {
		return nil, err
	}
	if inst.PlanRequests, err = meter.Int64Counter("transitcast.plan_requests",
		metric.WithDescription("Route planning requests by outcome")); err != nil {
		return nil, err
	}

	return inst, nil
}
