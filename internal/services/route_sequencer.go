package services

import (
	"context"
	"fmt"
	"log"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

// SequenceRoute orders the members of a skeleton into a route ending at dest
// using a greedy nearest-neighbor algorithm.
//
// The first stop is the member farthest from the destination, so the longest
// approach is driven while the route time budget is still untouched. Each
// following stop is the unvisited member with the shortest leg from the
// current one. The algorithm does not attempt global optimization; it
// prioritizes determinism and simplicity, breaking every tie by lowest ID.
//
// Members that cannot be routed (no travel time to the destination, or no
// defined leg from the route built so far) are returned as unreachable.
func SequenceRoute(
	ctx context.Context,
	sk domain.RouteSkeleton,
	dest domain.Coordinates,
	times ports.TimeLookup,
) (domain.Route, []domain.Pickup, error) {
	route := domain.Route{
		CarType:     sk.CarType,
		Stops:       []domain.Pickup{},
		Destination: dest,
		LegSeconds:  []int{},
		Warnings:    []string{},
	}
	unreachable := make([]domain.Pickup, 0)

	toDest := make(map[string]int, len(sk.Members))
	remaining := make([]domain.Pickup, 0, len(sk.Members))
	for _, p := range sortPickups(sk.Members) {
		secs, err := times.Duration(ctx, p.Location, dest)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Route{}, nil, fmt.Errorf("sequence route: %w", ctx.Err())
			}
			log.Printf("sequence: pickup=%s no travel time to destination: %v", p.ID, err)
			unreachable = append(unreachable, p)
			continue
		}
		toDest[p.ID] = secs
		remaining = append(remaining, p)
	}

	if len(remaining) == 0 {
		return route, unreachable, nil
	}

	// Start from the pickup farthest from the destination.
	start := 0
	for i, p := range remaining {
		if toDest[p.ID] > toDest[remaining[start].ID] {
			start = i
		}
	}

	current := remaining[start]
	route.Stops = append(route.Stops, current)
	remaining = append(remaining[:start], remaining[start+1:]...)

	for len(remaining) > 0 {
		best := -1
		bestSecs := 0

		// Select next stop by minimum travel duration (greedy step).
		for i, cand := range remaining {
			secs, err := times.Duration(ctx, current.Location, cand.Location)
			if err != nil {
				if ctx.Err() != nil {
					return domain.Route{}, nil, fmt.Errorf("sequence route: %w", ctx.Err())
				}
				continue
			}
			// Strict comparison keeps the lowest ID on ties; remaining is sorted by ID.
			if best < 0 || secs < bestSecs {
				best, bestSecs = i, secs
			}
		}

		if best < 0 {
			for _, p := range remaining {
				log.Printf("sequence: pickup=%s unreachable from stop %s", p.ID, current.ID)
			}
			unreachable = append(unreachable, remaining...)
			break
		}

		route.LegSeconds = append(route.LegSeconds, bestSecs)
		current = remaining[best]
		route.Stops = append(route.Stops, current)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	// The destination is always the terminal stop.
	route.LegSeconds = append(route.LegSeconds, toDest[current.ID])

	for _, l := range route.LegSeconds {
		route.TotalTimeSeconds += l
		route.MaxLegTimeSeconds = max(route.MaxLegTimeSeconds, l)
	}

	return route, unreachable, nil
}
