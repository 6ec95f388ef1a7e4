package api

import (
	"net/http"

	"pickup-route-service/internal/api/handlers"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/timematrix"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Repo   ports.PickupRepository
	Lookup ports.TimeLookup
	Config *config.OptimizerConfig
	Matrix timematrix.Options
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	obs.RegisterDefault()

	mux := http.NewServeMux()

	optimizeHandler := &handlers.OptimizeHandler{
		Repo:   d.Repo,
		Lookup: d.Lookup,
		Config: d.Config,
		Matrix: d.Matrix,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/optimize", optimizeHandler.Optimize)
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	return loggingMiddleware(mux)
}
