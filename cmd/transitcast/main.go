// Package main provides the entrypoint for the transitcast terminal app.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mitravind07/transitcast/internal/config"
	"github.com/mitravind07/transitcast/internal/dashboard"
	"github.com/mitravind07/transitcast/internal/favorites"
	"github.com/mitravind07/transitcast/internal/geo"
	"github.com/mitravind07/transitcast/internal/location"
	"github.com/mitravind07/transitcast/internal/planner"
	"github.com/mitravind07/transitcast/internal/planner/otp"
	plannertl "github.com/mitravind07/transitcast/internal/planner/transitland"
	"github.com/mitravind07/transitcast/internal/stops"
	"github.com/mitravind07/transitcast/internal/telemetry"
	"github.com/mitravind07/transitcast/internal/tracker"
	"github.com/mitravind07/transitcast/internal/transitland"
	"github.com/mitravind07/transitcast/internal/upstream"
	"github.com/mitravind07/transitcast/internal/vehicles"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("version", Version).
		Logger()

	log.Info().Str("build_time", BuildTime).Msg("starting transitcast")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	registry := upstream.NewRegistry()

	newHTTPClient := func(provider string) *upstream.Client {
		ucfg := upstream.DefaultConfig(provider)
		ucfg.Registry = registry
		return upstream.NewClient(ucfg)
	}

	// Transit data provider: stop discovery and arrivals.
	tlClient := transitland.NewClient(transitland.ClientConfig{
		BaseURL:    cfg.TransitlandBaseURL,
		APIKey:     cfg.TransitlandAPIKey,
		HTTPClient: newHTTPClient(transitland.ProviderName),
		Logger:     log,
	})

	stopService := stops.NewService(stops.ServiceConfig{
		Provider: tlClient,
		Logger:   log,
	})

	// Favorites, persisted locally.
	favRepo, err := favorites.NewSQLiteRepository(ctx, cfg.FavoritesDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.FavoritesDBPath).Msg("failed to open favorites store")
	}
	defer favRepo.Close()

	favService, err := favorites.NewService(ctx, favorites.ServiceConfig{
		Repository: favRepo,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load favorites")
	}

	// Route planning backends, in priority order.
	var backends []planner.Backend
	if cfg.RoutingBaseURL != "" {
		backends = append(backends, plannertl.NewClient(plannertl.ClientConfig{
			RoutingURL: cfg.RoutingBaseURL,
			HTTPClient: newHTTPClient(plannertl.BackendName),
			Logger:     log,
		}))
	}
	if cfg.OTPBaseURL != "" {
		backends = append(backends, otp.NewClient(otp.ClientConfig{
			BaseURL:    cfg.OTPBaseURL,
			Router:     cfg.OTPRouter,
			HTTPClient: newHTTPClient(otp.BackendName),
			Logger:     log,
		}))
	}
	planService := planner.NewService(planner.ServiceConfig{
		Backends: backends,
		Logger:   log,
	})

	state := dashboard.NewState()
	state.SetFavorites(favService.All())

	out := newRenderer(os.Stdout, state, log)

	// Arrivals refresh controller for the selected stop.
	controller := tracker.New(tracker.Config{
		Fetcher: tlClient,
		Publish: func(u tracker.Update) {
			if u.NoData {
				tp.Instruments.SoftFailures.Add(ctx, 1,
					metric.WithAttributes(attribute.String("concern", "arrivals")))
			}
			state.SetArrivals(u)
			state.SetProviderHealth(registry.Snapshot())
			out.render()
		},
		OnStaleDiscard: func() {
			tp.Instruments.StaleDiscards.Add(ctx, 1)
		},
		Logger: log,
	})

	// Live vehicle positions, when a feed is configured.
	var vehicleFeed vehicles.Feed
	if cfg.VehicleFeedURL != "" {
		vehicleFeed = vehicles.NewClient(vehicles.ClientConfig{
			FeedURL:    cfg.VehicleFeedURL,
			HTTPClient: newHTTPClient(vehicles.ProviderName),
			Logger:     log,
		})
	}
	vehicleService := vehicles.NewService(vehicles.ServiceConfig{
		Feed:   vehicleFeed,
		Logger: log,
	})

	// Resolve a position: pinned first, then IP lookup, then a sensible
	// fallback so the app still starts offline.
	coord, note, advisory := resolveLocation(ctx, cfg, log, newHTTPClient)
	state.SetLocation(coord, note)
	state.SetAdvisory(advisory)

	found := stopService.FindNearby(ctx, coord.Lat, coord.Lon, cfg.SearchRadiusMeters, cfg.StopLimit)
	state.SetStops(found)
	state.SetProviderHealth(registry.Snapshot())

	if len(found) > 0 {
		tp.Instruments.StopFetches.Add(ctx, 1)
		controller.Select(ctx, found[0])
	} else {
		out.render()
	}

	go controller.Run(ctx, cfg.RefreshInterval)

	if vehicleService.Configured() {
		poller := vehicles.NewPoller(vehicles.PollerConfig{
			Service: vehicleService,
			Publish: func(list []vehicles.VehiclePosition) {
				state.SetVehicles(list)
			},
			Interval: cfg.VehiclePollInterval,
			Logger:   log,
		})
		go poller.Run(ctx)
	}

	loop := &commandLoop{
		cfg:        cfg,
		log:        log,
		state:      state,
		out:        out,
		stops:      stopService,
		controller: controller,
		favorites:  favService,
		planner:    planService,
		registry:   registry,
		telemetry:  tp,
		origin:     coord,
	}
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.run(ctx, os.Stdin)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-loopDone:
	}

	log.Info().Msg("shutting down")
	cancel()

	// Let in-flight arrival fetches finish; their results are discarded
	// once nothing renders them.
	controller.Wait()
	log.Info().Msg("stopped")
}

func resolveLocation(ctx context.Context, cfg *config.Config, log zerolog.Logger, newHTTPClient func(string) *upstream.Client) (geo.Coordinate, string, string) {
	var locators []location.Locator
	if cfg.HasStaticLocation() {
		locators = append(locators, location.NewStatic(geo.Coordinate{
			Lat: *cfg.StaticLat,
			Lon: *cfg.StaticLon,
		}))
	}
	if cfg.GeoIPLookupURL != "" {
		locators = append(locators, location.NewIPGeo(location.IPGeoConfig{
			LookupURL:  cfg.GeoIPLookupURL,
			HTTPClient: newHTTPClient(location.IPGeoProviderName),
			Logger:     log,
		}))
	}

	coord, err := location.NewChain(locators...).Locate(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("no location source produced a fix, using fallback")
		// Amsterdam Centraal. Arbitrary but real, so discovery returns
		// something interesting out of the box.
		return geo.Coordinate{Lat: 52.3791, Lon: 4.9003}, "fallback",
			"location unavailable, showing stops near the default point; trip planning still works"
	}

	note := "ip-based"
	if cfg.HasStaticLocation() && coord.Lat == *cfg.StaticLat && coord.Lon == *cfg.StaticLon {
		note = "pinned"
	}
	return coord, note, ""
}
