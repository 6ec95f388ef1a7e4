package domain

// Aggregate counters reported next to the routes.
type Summary struct {
	PickupsTotal     int
	PickupsRouted    int
	PickupsSkipped   int
	VehiclesUsed     int
	TotalTimeSeconds int
	RoutesWithWarns  int
}

// OptimizationResult is the outcome of one optimizer run.
type OptimizationResult struct {
	RunID   string
	Routes  []Route
	Skipped []SkippedPickup
	Summary Summary
}
