package services

import (
	"context"
	"errors"
	"fmt"
	"pickup-route-service/internal/adapters/distance"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
)

var testDest = domain.Coordinates{Lat: 32.0853, Lng: 34.7818}

const destName = "DEST"

// pickupsN returns pickups p01..pNN spaced along a meridian.
func pickupsN(n int) []domain.Pickup {
	out := make([]domain.Pickup, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Pickup{
			ID:       fmt.Sprintf("p%02d", i),
			Location: domain.Coordinates{Lat: 32.0600 + float64(i)*0.0005, Lng: 34.7777},
		})
	}
	return out
}

// lookupByID resolves coordinates back to pickup IDs (or "DEST") and asks fn.
func lookupByID(pickups []domain.Pickup, fn func(from, to string) (int, bool)) distance.FuncProvider {
	names := map[string]string{testDest.Key(): destName}
	for _, p := range pickups {
		names[p.Location.Key()] = p.ID
	}
	return func(ctx context.Context, o, d domain.Coordinates) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		secs, ok := fn(names[o.Key()], names[d.Key()])
		if !ok {
			return 0, errors.New("no route found")
		}
		return secs, nil
	}
}

func uniform(pickupSecs, destSecs int) func(from, to string) (int, bool) {
	return func(from, to string) (int, bool) {
		if to == destName {
			return destSecs, true
		}
		return pickupSecs, true
	}
}

func testConfig(maxBetween, maxTotal int, cars ...config.CarTypeConfig) *config.OptimizerConfig {
	return &config.OptimizerConfig{
		Constraints: config.Constraints{
			MaxTimeBetweenStops: maxBetween,
			MaxTotalRouteTime:   maxTotal,
		},
		CarTypes:            cars,
		DestinationLocation: []float64{testDest.Lat, testDest.Lng},
	}
}

func minivan(seats int) config.CarTypeConfig {
	return config.CarTypeConfig{Type: "Minivan", Seats: seats}
}
