package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
	"slices"
)

// AssignVehicles maps every cluster to one car type.
//
// Clusters are handled largest first (ties by smallest member ID) and each one
// takes the smallest car type whose seats cover it. A cluster no car type can
// hold is split to the largest capacity and its parts assigned in its place.
func AssignVehicles(
	ctx context.Context,
	clusters []domain.Cluster,
	carTypes []domain.CarType,
	times ports.TimeLookup,
) ([]domain.RouteSkeleton, error) {
	if len(carTypes) == 0 {
		return nil, errors.New("assign vehicles: car type list must not be empty")
	}
	cars := domain.SortCarTypes(carTypes)
	maxSeats := cars[0].Seats

	ordered := slices.Clone(clusters)
	slices.SortStableFunc(ordered, largestFirst)

	skeletons := make([]domain.RouteSkeleton, 0, len(ordered))
	for _, c := range ordered {
		if c.Size() == 0 {
			continue
		}

		car, ok := smallestFit(cars, c.Size())
		if ok {
			skeletons = append(skeletons, domain.RouteSkeleton{
				CarType: car,
				Members: slices.Clone(c.Members),
			})
			continue
		}

		overflow := &domain.CapacityOverflow{Size: c.Size(), MaxSeats: maxSeats}
		log.Printf("assign: cluster=%s: %v, splitting", c.MinID(), overflow)

		parts, err := splitCluster(ctx, c, times, maxSeats)
		if err != nil {
			return nil, fmt.Errorf("assign vehicles: split cluster %s: %w", c.MinID(), err)
		}
		sub, err := AssignVehicles(ctx, parts, cars, times)
		if err != nil {
			return nil, err
		}
		skeletons = append(skeletons, sub...)
	}

	// Split parts join in place of their parent; restore the largest-first order.
	slices.SortStableFunc(skeletons, func(a, b domain.RouteSkeleton) int {
		return largestFirst(domain.Cluster{Members: a.Members}, domain.Cluster{Members: b.Members})
	})

	log.Printf("assign: clusters=%d vehicles=%d", len(clusters), len(skeletons))
	return skeletons, nil
}

// largestFirst orders clusters by size descending, then by smallest member ID.
func largestFirst(a, b domain.Cluster) int {
	if c := cmp.Compare(b.Size(), a.Size()); c != 0 {
		return c
	}
	return cmp.Compare(a.MinID(), b.MinID())
}

// smallestFit expects cars sorted by seats descending, then name.
func smallestFit(cars []domain.CarType, size int) (domain.CarType, bool) {
	best := -1
	for i, ct := range cars {
		if ct.Seats < size {
			continue
		}
		if best < 0 || ct.Seats < cars[best].Seats {
			best = i
		}
	}
	if best < 0 {
		return domain.CarType{}, false
	}
	return cars[best], true
}
