package services

import (
	"context"
	"fmt"
	"log"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/timematrix"
	"slices"
	"time"
)

// Optimizer runs the full pipeline once per call to Run:
// cluster, split, assign vehicles, sequence and validate.
type Optimizer struct {
	lookup      ports.TimeLookup
	destination domain.Coordinates
	carTypes    []domain.CarType
	limits      Limits
	matrixOpts  timematrix.Options
}

// Input is the validated pickup set plus rows rejected upstream.
type Input struct {
	Pickups []domain.Pickup
	Skipped []domain.SkippedPickup
}

// NewOptimizer validates cfg and fails with a *domain.ConfigError before any
// stage can run.
func NewOptimizer(cfg *config.OptimizerConfig, lookup ports.TimeLookup, opts timematrix.Options) (*Optimizer, error) {
	if cfg == nil {
		return nil, &domain.ConfigError{Field: "document", Reason: "missing"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lookup == nil {
		return nil, fmt.Errorf("new optimizer: time lookup must be non-nil")
	}

	return &Optimizer{
		lookup:      lookup,
		destination: cfg.Destination(),
		carTypes:    domain.SortCarTypes(cfg.Cars()),
		limits: Limits{
			MaxLegSeconds:   cfg.Constraints.MaxTimeBetweenStops,
			MaxTotalSeconds: cfg.Constraints.MaxTotalRouteTime,
		},
		matrixOpts: opts,
	}, nil
}

// Run optimizes one pickup set against a fresh time matrix. Only context
// cancellation makes it fail; in that case no partial result is returned.
func (o *Optimizer) Run(ctx context.Context, in Input) (_ *domain.OptimizationResult, err error) {
	ctx, runID := obs.WithRunID(ctx)
	defer obs.Time(ctx, "optimizer.Run")(&err)
	start := time.Now()

	skipped := slices.Clone(in.Skipped)
	pickups := make([]domain.Pickup, 0, len(in.Pickups))
	seen := make(map[string]struct{}, len(in.Pickups))
	for _, p := range in.Pickups {
		// Invalid rows never claim an id, so a later valid row with it is kept.
		if p.ID == "" || !p.Location.Valid() {
			log.Printf("optimizer: run_id=%s pickup=%q invalid id or coordinates, skipping", runID, p.ID)
			skipped = append(skipped, domain.SkippedPickup{ID: p.ID, Location: p.Location, Reason: domain.SkipInvalidInput})
			continue
		}

		if _, dup := seen[p.ID]; dup {
			log.Printf("optimizer: run_id=%s pickup=%s duplicate id, skipping", runID, p.ID)
			skipped = append(skipped, domain.SkippedPickup{ID: p.ID, Location: p.Location, Reason: domain.SkipDuplicateID})
			continue
		}
		seen[p.ID] = struct{}{}
		pickups = append(pickups, p)
	}

	result := &domain.OptimizationResult{RunID: runID, Routes: []domain.Route{}}
	if len(pickups) == 0 {
		log.Printf("optimizer: run_id=%s no pickups to optimize", runID)
		return finish(result, skipped, len(in.Pickups)+len(in.Skipped), start), nil
	}

	matrix := timematrix.New(o.lookup, o.matrixOpts)

	// Every directed pickup pair is needed by the builder, every pickup to
	// destination leg by the sequencer.
	pairs := make([]timematrix.Pair, 0, len(pickups)*len(pickups))
	for _, a := range pickups {
		for _, b := range pickups {
			if a.ID != b.ID {
				pairs = append(pairs, timematrix.Pair{From: a.Location, To: b.Location})
			}
		}
		pairs = append(pairs, timematrix.Pair{From: a.Location, To: o.destination})
	}
	if err := matrix.Prefetch(ctx, pairs); err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	set, err := BuildClusters(ctx, pickups, matrix, o.limits.MaxLegSeconds)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	for _, p := range set.Isolated {
		log.Printf("optimizer: run_id=%s pickup=%s has no travel time to any other pickup", runID, p.ID)
	}

	clusters, err := SplitClusters(ctx, set.Clusters, matrix, o.carTypes[0].Seats)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	skeletons, err := AssignVehicles(ctx, clusters, o.carTypes, matrix)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	for _, sk := range skeletons {
		seq, unreachable, err := SequenceRoute(ctx, sk, o.destination, matrix)
		if err != nil {
			return nil, fmt.Errorf("optimizer: %w", err)
		}
		for _, p := range unreachable {
			skipped = append(skipped, domain.SkippedPickup{
				ID:       p.ID,
				Location: p.Location,
				Reason:   domain.SkipLookupFailed,
				Detail:   "no usable travel time to the destination or the rest of its route",
			})
		}

		route, ok, err := ValidateRoute(ctx, seq, matrix, o.limits)
		if err != nil {
			return nil, fmt.Errorf("optimizer: %w", err)
		}
		if !ok {
			log.Printf("optimizer: run_id=%s dropped empty %s route", runID, sk.CarType.Name)
			continue
		}
		for _, w := range route.Warnings {
			log.Printf("optimizer: run_id=%s vehicle=%s stops=%v warning=%s total=%ds max_leg=%ds",
				runID, route.CarType.Name, route.StopIDs(), w, route.TotalTimeSeconds, route.MaxLegTimeSeconds)
		}
		result.Routes = append(result.Routes, route)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	log.Printf("optimizer: run_id=%s lookups=%d", runID, matrix.Len())
	return finish(result, skipped, len(in.Pickups)+len(in.Skipped), start), nil
}

func finish(result *domain.OptimizationResult, skipped []domain.SkippedPickup, total int, start time.Time) *domain.OptimizationResult {
	if skipped == nil {
		skipped = []domain.SkippedPickup{}
	}
	result.Skipped = skipped

	s := domain.Summary{
		PickupsTotal:   total,
		PickupsSkipped: len(skipped),
		VehiclesUsed:   len(result.Routes),
	}
	for _, r := range result.Routes {
		s.PickupsRouted += r.Passengers()
		s.TotalTimeSeconds += r.TotalTimeSeconds
		if len(r.Warnings) > 0 {
			s.RoutesWithWarns++
		}
		for _, w := range r.Warnings {
			obs.RouteWarnings.WithLabelValues(w).Inc()
		}
	}
	result.Summary = s

	obs.RoutesBuilt.Add(float64(len(result.Routes)))
	for _, sp := range skipped {
		obs.SkippedPickups.WithLabelValues(sp.Reason).Inc()
	}
	obs.RunDuration.Observe(time.Since(start).Seconds())

	log.Printf("optimizer: run_id=%s pickups=%d routed=%d skipped=%d vehicles=%d total_time=%ds",
		result.RunID, s.PickupsTotal, s.PickupsRouted, s.PickupsSkipped, s.VehiclesUsed, s.TotalTimeSeconds)
	return result
}
