// Package tracker owns the active-stop selection and keeps its arrivals
// current through manual and timer-driven refreshes.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitravind07/transitcast/internal/arrivals"
	"github.com/mitravind07/transitcast/internal/stops"
)

// Update is the canonical arrivals payload published to the rendering
// surface. NoData marks a fetch failure for the active stop; the surface
// renders an explicit empty state instead of an error.
type Update struct {
	StopID    string
	StopName  string
	Arrivals  []arrivals.Arrival
	NoData    bool
	FetchedAt time.Time
}

// Config holds configuration for the refresh controller.
type Config struct {
	// Fetcher retrieves arrivals for a stop id.
	Fetcher arrivals.Fetcher

	// Publish receives updates that passed the staleness check. It must
	// not call back into the controller.
	Publish func(Update)

	// OnStaleDiscard, when set, is called once per discarded fetch
	// result. Used for metrics.
	OnStaleDiscard func()

	// FetchTimeout bounds each arrivals fetch. Default: 10 seconds.
	FetchTimeout time.Duration

	// Logger for controller operations.
	Logger zerolog.Logger
}

// Controller tracks at most one selected stop and refreshes its arrivals.
//
// Fetches are fire-and-forget: neither cancelled nor serialized. A manual
// refresh racing the auto-refresh timer, or a quick re-selection, can
// complete out of order; the apply step compares the fetch's target stop id
// against the currently selected id and discards stale results instead of
// rendering them.
type Controller struct {
	fetcher        arrivals.Fetcher
	publish        func(Update)
	onStaleDiscard func()
	fetchTimeout   time.Duration
	logger         zerolog.Logger

	mu       sync.Mutex
	selected *stops.Stop

	inflight sync.WaitGroup
}

// New creates a refresh controller. Nothing is selected initially.
func New(cfg Config) *Controller {
	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Controller{
		fetcher:        cfg.Fetcher,
		publish:        cfg.Publish,
		onStaleDiscard: cfg.OnStaleDiscard,
		fetchTimeout:   timeout,
		logger:         cfg.Logger,
	}
}

// Select makes stop the active stop and starts an arrivals fetch for it.
func (c *Controller) Select(ctx context.Context, stop stops.Stop) {
	c.mu.Lock()
	s := stop
	c.selected = &s
	c.mu.Unlock()

	c.startFetch(ctx, stop)
}

// RefreshIfSelected re-fetches arrivals for the currently selected stop.
// No-op when nothing is selected.
func (c *Controller) RefreshIfSelected(ctx context.Context) {
	c.mu.Lock()
	sel := c.selected
	c.mu.Unlock()

	if sel == nil {
		return
	}
	c.startFetch(ctx, *sel)
}

// Selected returns a copy of the active stop, or nil.
func (c *Controller) Selected() *stops.Stop {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil
	}
	s := *c.selected
	return &s
}

// Run drives the auto-refresh timer until ctx is cancelled. It may fire
// while a manual refresh is in flight; the staleness check resolves any
// resulting out-of-order completion.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RefreshIfSelected(ctx)
		}
	}
}

// Wait blocks until all in-flight fetches have completed. Used on shutdown
// and by tests.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) startFetch(ctx context.Context, target stops.Stop) {
	fetchID := uuid.NewString()

	c.logger.Debug().
		Str("fetch_id", fetchID).
		Str("stop_id", target.ID).
		Msg("starting arrivals fetch")

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		fetched, err := c.fetcher.StopArrivals(fetchCtx, target.ID)
		c.apply(fetchID, target, fetched, err)
	}()
}

// apply publishes a completed fetch unless the target stop is no longer
// selected. Check and publish happen under the lock so a re-selection
// cannot slip in between them.
func (c *Controller) apply(fetchID string, target stops.Stop, fetched []arrivals.Arrival, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil || c.selected.ID != target.ID {
		c.logger.Debug().
			Str("fetch_id", fetchID).
			Str("stop_id", target.ID).
			Msg("discarding stale arrivals result")
		if c.onStaleDiscard != nil {
			c.onStaleDiscard()
		}
		return
	}

	update := Update{
		StopID:    target.ID,
		StopName:  target.Name,
		FetchedAt: time.Now(),
	}

	if err != nil {
		c.logger.Warn().Err(err).
			Str("fetch_id", fetchID).
			Str("stop_id", target.ID).
			Msg("arrivals fetch failed")
		update.NoData = true
	} else {
		update.Arrivals = fetched
	}

	if c.publish != nil {
		c.publish(update)
	}
}
