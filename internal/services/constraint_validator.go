package services

import (
	"context"
	"fmt"
	"log"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
	"slices"
)

// Limits are the time ceilings a route is checked against, in seconds.
type Limits struct {
	MaxLegSeconds   int
	MaxTotalSeconds int
}

// ValidateRoute recomputes leg, total and max-leg times for r and returns an
// annotated copy with one warning per violated ceiling. Violations never
// reject the route. ok is false when the route has no stops and must be
// dropped by the caller.
func ValidateRoute(
	ctx context.Context,
	r domain.Route,
	times ports.TimeLookup,
	limits Limits,
) (_ domain.Route, ok bool, err error) {
	if len(r.Stops) == 0 {
		return domain.Route{}, false, nil
	}

	out := domain.Route{
		CarType:     r.CarType,
		Stops:       slices.Clone(r.Stops),
		Destination: r.Destination,
		LegSeconds:  make([]int, 0, len(r.Stops)),
		Warnings:    slices.Clone(r.Warnings),
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}

	for i, from := range out.Stops {
		to := out.Destination
		if i+1 < len(out.Stops) {
			to = out.Stops[i+1].Location
		}

		secs, err := times.Duration(ctx, from.Location, to)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Route{}, false, fmt.Errorf("validate route: %w", ctx.Err())
			}
			// Keep the sequenced value; the leg was resolved once already.
			if i >= len(r.LegSeconds) {
				return domain.Route{}, false, fmt.Errorf("validate route: leg %d from %s: %w", i, from.ID, err)
			}
			log.Printf("validate: leg %d from %s: %v, using sequenced time", i, from.ID, err)
			secs = r.LegSeconds[i]
		}

		out.LegSeconds = append(out.LegSeconds, secs)
		out.TotalTimeSeconds += secs
		out.MaxLegTimeSeconds = max(out.MaxLegTimeSeconds, secs)
	}

	if out.MaxLegTimeSeconds > limits.MaxLegSeconds {
		out.Warnings = appendWarning(out.Warnings, domain.WarnLegTimeExceeded)
	}
	if out.TotalTimeSeconds > limits.MaxTotalSeconds {
		out.Warnings = appendWarning(out.Warnings, domain.WarnTotalTimeExceeded)
	}

	return out, true, nil
}

func appendWarning(warnings []string, w string) []string {
	if slices.Contains(warnings, w) {
		return warnings
	}
	return append(warnings, w)
}
