// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for transitcast.
type Config struct {
	// TransitlandBaseURL overrides the Transitland REST base URL.
	// Empty means use the public endpoint.
	TransitlandBaseURL string

	// TransitlandAPIKey is an optional Transitland API key.
	TransitlandAPIKey string

	// SearchRadiusMeters is the stop discovery radius.
	SearchRadiusMeters float64

	// StopLimit caps the number of stops requested per discovery call.
	StopLimit int

	// RefreshInterval is how often arrivals for the selected stop are
	// refreshed.
	RefreshInterval time.Duration

	// RoutingBaseURL configures the primary routing backend. Empty
	// means routing is not configured.
	RoutingBaseURL string

	// OTPBaseURL configures the OpenTripPlanner fallback backend.
	OTPBaseURL string

	// OTPRouter is the OTP router id. Empty means "default".
	OTPRouter string

	// VehicleFeedURL configures the live vehicle position feed. Empty
	// disables vehicle polling.
	VehicleFeedURL string

	// VehiclePollInterval is how often the vehicle feed is polled.
	VehiclePollInterval time.Duration

	// FavoritesDBPath is the SQLite file backing persisted favorites.
	FavoritesDBPath string

	// StaticLat and StaticLon pin the rider's position when set.
	StaticLat *float64
	StaticLon *float64

	// GeoIPLookupURL configures IP-based location as a fallback. Empty
	// disables it.
	GeoIPLookupURL string

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string

	// OTLPEndpoint enables OTLP telemetry export when set.
	OTLPEndpoint string

	// ServiceName is the reported telemetry service name.
	ServiceName string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TransitlandBaseURL: os.Getenv("TRANSITLAND_BASE_URL"),
		TransitlandAPIKey:  os.Getenv("TRANSITLAND_API_KEY"),
		RoutingBaseURL:     os.Getenv("ROUTING_BASE_URL"),
		OTPBaseURL:         os.Getenv("OTP_BASE_URL"),
		OTPRouter:          os.Getenv("OTP_ROUTER"),
		VehicleFeedURL:     os.Getenv("VEHICLE_FEED_URL"),
		FavoritesDBPath:    getenvDefault("FAVORITES_DB_PATH", "transitcast.db"),
		GeoIPLookupURL:     os.Getenv("GEOIP_LOOKUP_URL"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		OTLPEndpoint:       os.Getenv("OTLP_ENDPOINT"),
		ServiceName:        getenvDefault("SERVICE_NAME", "transitcast"),
	}

	radius, err := floatEnv("SEARCH_RADIUS_METERS", 800)
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, fmt.Errorf("SEARCH_RADIUS_METERS must be positive, got %v", radius)
	}
	cfg.SearchRadiusMeters = radius

	limit, err := intEnv("STOP_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("STOP_LIMIT must not be negative, got %d", limit)
	}
	cfg.StopLimit = limit

	refreshSec, err := intEnv("REFRESH_INTERVAL_SEC", 45)
	if err != nil {
		return nil, err
	}
	if refreshSec <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL_SEC must be positive, got %d", refreshSec)
	}
	cfg.RefreshInterval = time.Duration(refreshSec) * time.Second

	pollSec, err := intEnv("VEHICLE_POLL_INTERVAL_SEC", 30)
	if err != nil {
		return nil, err
	}
	cfg.VehiclePollInterval = time.Duration(pollSec) * time.Second

	cfg.StaticLat, err = optionalFloatEnv("STATIC_LAT")
	if err != nil {
		return nil, err
	}
	cfg.StaticLon, err = optionalFloatEnv("STATIC_LON")
	if err != nil {
		return nil, err
	}
	if (cfg.StaticLat == nil) != (cfg.StaticLon == nil) {
		return nil, fmt.Errorf("STATIC_LAT and STATIC_LON must be set together")
	}

	return cfg, nil
}

// HasStaticLocation reports whether a pinned position is configured.
func (c *Config) HasStaticLocation() bool {
	return c.StaticLat != nil && c.StaticLon != nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

func floatEnv(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return f, nil
}

func optionalFloatEnv(k string) (*float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", k, v)
	}
	return &f, nil
}
