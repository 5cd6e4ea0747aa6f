package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mitravind07/transitcast/internal/config"
	"github.com/mitravind07/transitcast/internal/dashboard"
	"github.com/mitravind07/transitcast/internal/favorites"
	"github.com/mitravind07/transitcast/internal/geo"
	"github.com/mitravind07/transitcast/internal/planner"
	"github.com/mitravind07/transitcast/internal/planner/otp"
	"github.com/mitravind07/transitcast/internal/stops"
	"github.com/mitravind07/transitcast/internal/telemetry"
	"github.com/mitravind07/transitcast/internal/tracker"
	"github.com/mitravind07/transitcast/internal/upstream"
)

// renderer serializes dashboard writes so background updates and command
// responses do not interleave on the terminal.
type renderer struct {
	mu    sync.Mutex
	w     io.Writer
	state *dashboard.State
	log   zerolog.Logger
}

func newRenderer(w io.Writer, state *dashboard.State, log zerolog.Logger) *renderer {
	return &renderer{w: w, state: state, log: log}
}

func (r *renderer) render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.state.Render(r.w); err != nil {
		r.log.Error().Err(err).Msg("failed to render dashboard")
	}
}

func (r *renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// commandLoop reads rider commands from the terminal.
type commandLoop struct {
	cfg        *config.Config
	log        zerolog.Logger
	state      *dashboard.State
	out        *renderer
	stops      *stops.Service
	controller *tracker.Controller
	favorites  *favorites.Service
	planner    *planner.Service
	registry   *upstream.Registry
	telemetry  *telemetry.Provider
	origin     geo.Coordinate
}

const helpText = `Commands:
  stops            rediscover nearby stops
  select N         track arrivals for stop N
  fav N            toggle stop N as a favorite
  favs             list favorites
  refresh          refresh arrivals for the tracked stop
  plan FROM TO     plan a trip (lat,lon pairs, or addresses where the backend allows)
  health           show provider health
  help             this text
  quit             exit
`

func (l *commandLoop) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	l.out.printf("%s", helpText)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return
		case "help":
			l.out.printf("%s", helpText)
		case "stops":
			l.rediscover(ctx)
		case "select":
			l.selectStop(ctx, fields[1:])
		case "fav":
			l.toggleFavorite(ctx, fields[1:])
		case "favs":
			l.listFavorites()
		case "refresh":
			l.refresh(ctx)
		case "plan":
			l.plan(ctx, fields[1:])
		case "health":
			l.showHealth()
		default:
			l.out.printf("Unknown command %q. Type help for commands.\n", fields[0])
		}
	}
}

func (l *commandLoop) rediscover(ctx context.Context) {
	found := l.stops.FindNearby(ctx, l.origin.Lat, l.origin.Lon, l.cfg.SearchRadiusMeters, l.cfg.StopLimit)
	l.state.SetStops(found)
	l.state.SetProviderHealth(l.registry.Snapshot())
	l.out.render()
}

func (l *commandLoop) selectStop(ctx context.Context, args []string) {
	stop, ok := l.stopArg(args)
	if !ok {
		return
	}
	l.telemetry.Instruments.StopFetches.Add(ctx, 1)
	l.controller.Select(ctx, stop)
	l.out.printf("Tracking %s.\n", stop.Name)
}

func (l *commandLoop) toggleFavorite(ctx context.Context, args []string) {
	stop, ok := l.stopArg(args)
	if !ok {
		return
	}

	added, err := l.favorites.Toggle(ctx, stop.ID)
	if err != nil {
		l.out.printf("Could not update favorites: %v\n", err)
		return
	}
	l.state.SetFavorites(l.favorites.All())

	if added {
		l.out.printf("Added %s to favorites.\n", stop.Name)
	} else {
		l.out.printf("Removed %s from favorites.\n", stop.Name)
	}
	l.out.render()
}

func (l *commandLoop) listFavorites() {
	ids := l.favorites.All()
	if len(ids) == 0 {
		l.out.printf("No favorites yet.\n")
		return
	}
	for i, id := range ids {
		l.out.printf("  %d. %s\n", i+1, id)
	}
}

func (l *commandLoop) refresh(ctx context.Context) {
	if l.controller.Selected() == nil {
		l.out.printf("No stop is being tracked. Use select N first.\n")
		return
	}
	l.telemetry.Instruments.StopFetches.Add(ctx, 1)
	l.controller.RefreshIfSelected(ctx)
}

func (l *commandLoop) plan(ctx context.Context, args []string) {
	if len(args) != 2 {
		l.out.printf("Usage: plan FROM TO\n")
		return
	}
	if err := checkPlanEndpoints(l.planner.BackendName(), args); err != nil {
		l.out.printf("Bad endpoint: %v\n", err)
		return
	}

	itineraries, err := l.planner.Plan(ctx, args[0], args[1])
	l.telemetry.Instruments.PlanRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", planOutcomeLabel(err))))

	l.state.SetPlanResult(l.planner.BackendName(), itineraries, err)
	l.state.SetProviderHealth(l.registry.Snapshot())
	l.out.render()
}

// checkPlanEndpoints validates trip endpoints for the active backend.
// OTP's fromPlace/toPlace only take coordinate pairs; the Transitland
// endpoint also accepts free-form addresses, so those pass through
// unvalidated.
func checkPlanEndpoints(backend string, endpoints []string) error {
	if backend != otp.BackendName {
		return nil
	}
	for _, e := range endpoints {
		if _, err := geo.ParseLatLon(e); err != nil {
			return err
		}
	}
	return nil
}

func planOutcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, planner.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, planner.ErrNoItineraries):
		return "no_itineraries"
	default:
		return "error"
	}
}

func (l *commandLoop) showHealth() {
	l.state.SetProviderHealth(l.registry.Snapshot())
	l.out.render()
}

func (l *commandLoop) stopArg(args []string) (stops.Stop, bool) {
	if len(args) != 1 {
		l.out.printf("Expected a stop number.\n")
		return stops.Stop{}, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		l.out.printf("Expected a stop number, got %q.\n", args[0])
		return stops.Stop{}, false
	}
	stop, ok := l.state.StopAt(n)
	if !ok {
		l.out.printf("No stop with number %d.\n", n)
		return stops.Stop{}, false
	}
	return stop, true
}
