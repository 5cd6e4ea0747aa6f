package vehicles

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// MinPollInterval is the floor applied to configured poll intervals so a
// misconfigured interval cannot hammer the feed.
const MinPollInterval = 15 * time.Second

// ServiceConfig holds configuration for the vehicle service.
type ServiceConfig struct {
	// Feed supplies vehicle positions. Nil means no feed is configured;
	// the service then always reports no vehicles.
	Feed Feed

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service reads the vehicle feed with soft-fail semantics: an
// unconfigured or failing feed yields an empty slice, never an error.
// Live positions are an enhancement layer, not required data.
type Service struct {
	feed   Feed
	logger zerolog.Logger
}

// NewService creates a new vehicle service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		feed:   cfg.Feed,
		logger: cfg.Logger,
	}
}

// Configured reports whether a feed is wired up.
func (s *Service) Configured() bool {
	return s.feed != nil
}

// Poll returns the current vehicle positions. Failures degrade to an
// empty slice with a warning; today's snapshot being unavailable is not
// an application error.
func (s *Service) Poll(ctx context.Context) []VehiclePosition {
	if s.feed == nil {
		return []VehiclePosition{}
	}

	positions, err := s.feed.Positions(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("vehicle feed unavailable")
		return []VehiclePosition{}
	}

	return positions
}

// Poller periodically polls the vehicle service and publishes each
// snapshot.
type Poller struct {
	service  *Service
	publish  func([]VehiclePosition)
	interval time.Duration
	logger   zerolog.Logger
}

// PollerConfig holds configuration for a Poller.
type PollerConfig struct {
	// Service is the vehicle service to poll.
	Service *Service

	// Publish receives each polled snapshot.
	Publish func([]VehiclePosition)

	// Interval between polls. Values below MinPollInterval are raised
	// to the floor.
	Interval time.Duration

	// Logger for poller operations.
	Logger zerolog.Logger
}

// NewPoller creates a poller with the interval floor applied.
func NewPoller(cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval < MinPollInterval {
		interval = MinPollInterval
	}

	return &Poller{
		service:  cfg.Service,
		publish:  cfg.Publish,
		interval: interval,
		logger:   cfg.Logger,
	}
}

// Interval returns the effective poll interval after flooring.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls immediately, then on every tick until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Msg("vehicle poller stopping")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	positions := p.service.Poll(ctx)
	if p.publish != nil {
		p.publish(positions)
	}
}
