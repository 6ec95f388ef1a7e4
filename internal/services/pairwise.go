package services

import (
	"context"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

// pairTime is the symmetric travel time between two pickups: the larger of
// both directed lookups. ok is false when either direction failed. err is
// only set when ctx was cancelled.
func pairTime(ctx context.Context, times ports.TimeLookup, a, b domain.Pickup) (secs int, ok bool, err error) {
	ab, errAB := times.Duration(ctx, a.Location, b.Location)
	if errAB != nil && ctx.Err() != nil {
		return 0, false, ctx.Err()
	}
	ba, errBA := times.Duration(ctx, b.Location, a.Location)
	if errBA != nil && ctx.Err() != nil {
		return 0, false, ctx.Err()
	}
	if errAB != nil || errBA != nil {
		return 0, false, nil
	}
	return max(ab, ba), true, nil
}

func sortPickups(pickups []domain.Pickup) []domain.Pickup {
	return domain.NewCluster(pickups).Members
}
