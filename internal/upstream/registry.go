package upstream

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health is a point-in-time view of one provider's condition, rendered on
// the dashboard status line.
type Health struct {
	Provider      string
	BreakerState  gobreaker.State
	LastSuccessAt time.Time
	LastFailureAt time.Time
	LastError     string
}

// Healthy reports whether the provider's breaker is closed.
func (h Health) Healthy() bool {
	return h.BreakerState == gobreaker.StateClosed
}

// Registry tracks the health of every registered provider client.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*trackedClient
}

type trackedClient struct {
	client        *Client
	lastSuccessAt time.Time
	lastFailureAt time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*trackedClient)}
}

func (r *Registry) register(provider string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[provider] = &trackedClient{client: c}
}

func (r *Registry) recordSuccess(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.clients[provider]; ok {
		t.lastSuccessAt = time.Now()
	}
}

func (r *Registry) recordFailure(provider string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.clients[provider]; ok {
		t.lastFailureAt = time.Now()
		if err != nil {
			t.lastError = err.Error()
		}
	}
}

// Snapshot returns the health of all registered providers, sorted by name.
func (r *Registry) Snapshot() []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.clients))
	for name, t := range r.clients {
		out = append(out, Health{
			Provider:      name,
			BreakerState:  t.client.BreakerState(),
			LastSuccessAt: t.lastSuccessAt,
			LastFailureAt: t.lastFailureAt,
			LastError:     t.lastError,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
