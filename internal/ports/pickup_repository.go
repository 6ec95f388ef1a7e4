package ports

import (
	"context"
	"pickup-route-service/internal/domain"
)

// Port: a boundary for retrieving Pickup entities from a data source.
type PickupRepository interface {
	// Retrieve all stored pickups, ordered by ID.
	ListPickups(ctx context.Context) ([]domain.Pickup, error)
}
