package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// LookupRequests counts calls to the external travel time provider.
	LookupRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lookup_requests_total", Help: "Travel time provider requests by provider and outcome."},
		[]string{"provider", "outcome"},
	)
	// LookupDuration records provider round-trip latency in seconds.
	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "lookup_duration_seconds", Help: "Travel time provider latency in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"provider"},
	)
	// MatrixLookups counts in-run time matrix accesses by result (hit, miss, shared, failed).
	MatrixLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "timematrix_lookups_total", Help: "Time matrix accesses by result."},
		[]string{"result"},
	)
	RoutesBuilt = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optimizer_routes_total", Help: "Routes produced by the optimizer."},
	)
	RouteWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizer_route_warnings_total", Help: "Constraint warnings attached to routes."},
		[]string{"warning"},
	)
	SkippedPickups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizer_skipped_pickups_total", Help: "Pickups excluded from routing by reason."},
		[]string{"reason"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimizer_run_duration_seconds", Help: "End-to-end optimizer run duration.", Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120}},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call repeatedly.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(LookupRequests)
		Registry.MustRegister(LookupDuration)
		Registry.MustRegister(MatrixLookups)
		Registry.MustRegister(RoutesBuilt)
		Registry.MustRegister(RouteWarnings)
		Registry.MustRegister(SkippedPickups)
		Registry.MustRegister(RunDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
