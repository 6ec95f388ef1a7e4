package ports

import "context"

// Persistent origin->destination duration cache shared across runs.
// Keys are domain.Coordinates.Key values.
type DurationCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]int, error)
	PutMany(ctx context.Context, origin string, results map[string]int) error
}
