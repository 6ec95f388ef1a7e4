package ports

import (
	"context"
	"pickup-route-service/internal/domain"
)

// Contract for retrieving travel duration between two coordinates.
// Implementations must be safe for concurrent use.
type TimeLookup interface {
	// Return the driving duration in seconds from origin to destination.
	Duration(ctx context.Context, origin, destination domain.Coordinates) (int, error)
}

// Optional extension of TimeLookup that supports batched lookups.
type TimeMatrixLookup interface {
	TimeLookup
	// Return durations from one origin to many destinations, keyed by the
	// destination's index in the input slice. Missing indexes are failures.
	Durations(ctx context.Context, origin domain.Coordinates, destinations []domain.Coordinates) (map[int]int, error)
}
