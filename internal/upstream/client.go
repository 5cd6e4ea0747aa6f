// Package upstream provides the shared HTTP client used for all external
// transit-data providers, with retry and circuit-breaker protection.
package upstream

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned when the provider's circuit breaker is open.
	ErrCircuitOpen = errors.New("provider circuit breaker is open")
)

// Config holds configuration for a provider HTTP client.
type Config struct {
	// Provider names the upstream for breaker naming and health reporting.
	Provider string

	// Timeout is the per-request timeout. Default: 8 seconds.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Default: 2.
	MaxRetries uint64

	// RetryMinWait is the initial retry backoff. Default: 200ms.
	RetryMinWait time.Duration

	// RetryMaxWait caps the retry backoff. Default: 2 seconds.
	RetryMaxWait time.Duration

	// BreakerCooldown is how long an open breaker stays open before probing.
	// Default: 45 seconds.
	BreakerCooldown time.Duration

	// ReadyToTrip overrides the default trip condition (5+ requests with a
	// failure rate of at least 50%).
	ReadyToTrip func(counts gobreaker.Counts) bool

	// Registry receives health updates for this provider (optional).
	Registry *Registry
}

// DefaultConfig returns defaults suitable for the public transit APIs the
// engine talks to.
func DefaultConfig(provider string) Config {
	return Config{
		Provider:        provider,
		Timeout:         8 * time.Second,
		MaxRetries:      2,
		RetryMinWait:    200 * time.Millisecond,
		RetryMaxWait:    2 * time.Second,
		BreakerCooldown: 45 * time.Second,
	}
}

// Client is an HTTP client with exponential-backoff retry and a circuit
// breaker per provider. Transient failures (network errors, 5xx) are
// retried; an open breaker fails fast with ErrCircuitOpen.
type Client struct {
	provider string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	registry *Registry
	cfg      Config
}

// NewClient creates a provider client from cfg, filling zero fields with
// defaults.
func NewClient(cfg Config) *Client {
	def := DefaultConfig(cfg.Provider)
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryMinWait == 0 {
		cfg.RetryMinWait = def.RetryMinWait
	}
	if cfg.RetryMaxWait == 0 {
		cfg.RetryMaxWait = def.RetryMaxWait
	}
	if cfg.BreakerCooldown == 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}

	trip := cfg.ReadyToTrip
	if trip == nil {
		trip = func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.5
		}
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Provider,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: trip,
	})

	c := &Client{
		provider: cfg.Provider,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  breaker,
		registry: cfg.Registry,
		cfg:      cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.register(cfg.Provider, c)
	}

	return c
}

// Provider returns the upstream name this client serves.
func (c *Client) Provider() string {
	return c.provider
}

// Do executes the request, retrying transient failures with exponential
// backoff. The caller owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryMinWait
	bo.MaxInterval = c.cfg.RetryMaxWait
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var lastResp *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			// Clone per attempt so a consumed body never poisons a retry.
			r, doErr := c.http.Do(req.Clone(ctx))
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 {
				// 5xx count against the breaker and are retried.
				return r, &serverError{status: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				drainAndClose(lastResp)
				lastResp = resp
			}
			return err
		}

		drainAndClose(lastResp)
		lastResp = resp
		return nil
	}

	err := backoff.Retry(attempt, policy)
	if err != nil {
		if lastResp != nil {
			// Retries exhausted on a 5xx: hand the final response back so
			// callers see the real status code.
			c.markFailure(err)
			return lastResp, nil
		}
		c.markFailure(err)
		return nil, err
	}

	c.markSuccess()
	return lastResp, nil
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) markSuccess() {
	if c.registry != nil {
		c.registry.recordSuccess(c.provider)
	}
}

func (c *Client) markFailure(err error) {
	if c.registry != nil {
		c.registry.recordFailure(c.provider, err)
	}
}

// serverError marks a 5xx response as a retryable failure.
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return "server error: " + http.StatusText(e.status)
}

func drainAndClose(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}
