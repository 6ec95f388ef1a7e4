package services

import (
	"context"
	"fmt"
	"log"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
	"slices"
)

// SplitClusters replaces every cluster larger than maxSeats by seat-bounded
// sub-clusters; smaller clusters pass through unchanged.
func SplitClusters(
	ctx context.Context,
	clusters []domain.Cluster,
	times ports.TimeLookup,
	maxSeats int,
) ([]domain.Cluster, error) {
	if maxSeats <= 0 {
		return nil, fmt.Errorf("split clusters: max seats must be positive, got %d", maxSeats)
	}

	out := make([]domain.Cluster, 0, len(clusters))
	for _, c := range clusters {
		if c.Size() <= maxSeats {
			out = append(out, c)
			continue
		}
		parts, err := splitCluster(ctx, c, times, maxSeats)
		if err != nil {
			return nil, fmt.Errorf("split clusters: %w", err)
		}
		log.Printf("split: cluster=%s size=%d max_seats=%d parts=%d", c.MinID(), c.Size(), maxSeats, len(parts))
		out = append(out, parts...)
	}
	return out, nil
}

// splitCluster cuts a nearest-chain ordering of the members into consecutive
// chunks of size, so each chunk stays spatially coherent. Removing members
// cannot raise a pairwise maximum, so chunks keep the parent's time ceiling.
func splitCluster(ctx context.Context, c domain.Cluster, times ports.TimeLookup, size int) ([]domain.Cluster, error) {
	chain, err := nearestChain(ctx, c.Members, times)
	if err != nil {
		return nil, err
	}

	parts := make([]domain.Cluster, 0, (len(chain)+size-1)/size)
	for start := 0; start < len(chain); start += size {
		end := min(start+size, len(chain))
		parts = append(parts, domain.NewCluster(chain[start:end]))
	}
	return parts, nil
}

// nearestChain starts at the lowest ID and keeps appending the closest
// unvisited member. Undefined times rank after every defined one; ties go to
// the lowest ID.
func nearestChain(ctx context.Context, members []domain.Pickup, times ports.TimeLookup) ([]domain.Pickup, error) {
	remaining := sortPickups(members)
	if len(remaining) == 0 {
		return nil, nil
	}

	chain := make([]domain.Pickup, 0, len(remaining))
	current := remaining[0]
	chain = append(chain, current)
	remaining = remaining[1:]

	for len(remaining) > 0 {
		best := 0
		bestSecs, bestOK := 0, false
		for i, cand := range remaining {
			secs, ok, err := pairTime(ctx, times, current, cand)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if !bestOK || secs < bestSecs {
				best, bestSecs, bestOK = i, secs, true
			}
		}

		current = remaining[best]
		chain = append(chain, current)
		remaining = slices.Delete(remaining, best, best+1)
	}
	return chain, nil
}
