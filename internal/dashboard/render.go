package dashboard

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/mitravind07/transitcast/internal/arrivals"
	"github.com/mitravind07/transitcast/internal/planner"
)

// Render writes the full dashboard as plain text.
func (s *State) Render(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	b.WriteString("== transitcast ==\n")

	s.renderLocation(&b)
	if s.advisory != "" {
		fmt.Fprintf(&b, "Note: %s\n", s.advisory)
	}
	s.renderStops(&b)
	s.renderArrivals(&b)
	s.renderPlan(&b)
	s.renderVehicles(&b)
	s.renderHealth(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

func (s *State) renderLocation(b *strings.Builder) {
	if s.location == nil {
		b.WriteString("Location: unknown\n")
		return
	}
	fmt.Fprintf(b, "Location: %.4f, %.4f", s.location.Lat, s.location.Lon)
	if s.locationNote != "" {
		fmt.Fprintf(b, " (%s)", s.locationNote)
	}
	b.WriteString("\n")
}

func (s *State) renderStops(b *strings.Builder) {
	b.WriteString("\nNearby stops:\n")
	if len(s.stops) == 0 {
		b.WriteString("  No stops found nearby.\n")
		return
	}
	for i, stop := range s.stops {
		marker := " "
		if s.favorites[stop.ID] {
			marker = "*"
		}
		fmt.Fprintf(b, "  %2d. %s %s", i+1, marker, stop.Name)
		if stop.DistanceMeters != nil {
			fmt.Fprintf(b, " (%.0f m)", *stop.DistanceMeters)
		}
		b.WriteString("\n")
	}
}

func (s *State) renderArrivals(b *strings.Builder) {
	if s.arrivals == nil {
		return
	}
	fmt.Fprintf(b, "\nArrivals at %s:\n", s.arrivals.StopName)

	if s.arrivals.NoData {
		b.WriteString("  Arrivals are currently unavailable for this stop.\n")
		return
	}
	if len(s.arrivals.Arrivals) == 0 {
		b.WriteString("  No upcoming arrivals.\n")
		return
	}
	for _, a := range s.arrivals.Arrivals {
		fmt.Fprintf(b, "  %-12s %-24s %s%s\n",
			a.RouteLabel, a.Headsign, formatDeparture(a.Departs), sourceTag(a.Source))
	}
}

func formatDeparture(t *time.Time) string {
	if t == nil {
		return "TBD"
	}
	return t.Format("15:04")
}

func sourceTag(src arrivals.Source) string {
	switch src {
	case arrivals.SourcePredicted:
		return " (live)"
	case arrivals.SourceArrivalFallback:
		return " (arrival time)"
	default:
		return ""
	}
}

func (s *State) renderPlan(b *strings.Builder) {
	if s.planOutcome == planNone {
		return
	}
	b.WriteString("\nRoute plan:\n")

	switch s.planOutcome {
	case planNotConfigured:
		b.WriteString("  Route planning is not configured. Set a routing backend URL to enable it.\n")
	case planNoItineraries:
		b.WriteString("  No itineraries found for this trip. Try different endpoints or a later time.\n")
	case planFailed:
		fmt.Fprintf(b, "  Route planning failed (%s): %v\n", s.planBackend, s.planErr)
	case planOK:
		for i, it := range s.itineraries {
			fmt.Fprintf(b, "  %d. %d min, %d legs", i+1, it.DurationMinutes(), len(it.Legs))
			if modes := legModes(it.Legs); modes != "" {
				fmt.Fprintf(b, " [%s]", modes)
			}
			b.WriteString("\n")
		}
	}
}

func legModes(legs []planner.Leg) string {
	parts := make([]string, 0, len(legs))
	for _, l := range legs {
		if l.Mode != "" {
			parts = append(parts, l.Mode)
		}
	}
	return strings.Join(parts, " > ")
}

func (s *State) renderVehicles(b *strings.Builder) {
	if s.vehicles == nil {
		return
	}
	fmt.Fprintf(b, "\nLive vehicles: %d tracked\n", len(s.vehicles))
}

func (s *State) renderHealth(b *strings.Builder) {
	if len(s.providerHealth) == 0 {
		return
	}
	b.WriteString("\nProviders:\n")
	for _, h := range s.providerHealth {
		status := "ok"
		if h.BreakerState != gobreaker.StateClosed {
			status = "degraded (" + h.BreakerState.String() + ")"
		}
		fmt.Fprintf(b, "  %-20s %s\n", h.Provider, status)
	}
}
