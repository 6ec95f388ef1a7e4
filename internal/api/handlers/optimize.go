package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/services"
	"pickup-route-service/internal/timematrix"
)

type OptimizeHandler struct {
	Repo   ports.PickupRepository
	Lookup ports.TimeLookup
	// Config is used when the request carries no config of its own.
	Config *config.OptimizerConfig
	Matrix timematrix.Options
}

// Optimize runs one optimization over the request's pickups, or the stored
// ones when the request has none.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	cfg := req.Config
	if cfg == nil {
		cfg = h.Config
	}
	if cfg == nil {
		writeError(w, r, http.StatusBadRequest, "config is required")
		return
	}

	opt, err := services.NewOptimizer(cfg, h.Lookup, h.Matrix)
	if err != nil {
		var ce *domain.ConfigError
		if errors.As(err, &ce) {
			writeError(w, r, http.StatusBadRequest, ce.Error())
			return
		}
		log.Printf("req_id=%s new optimizer failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	var in services.Input
	if req.Pickups != nil {
		in.Pickups = make([]domain.Pickup, 0, len(req.Pickups))
		for _, p := range req.Pickups {
			in.Pickups = append(in.Pickups, domain.Pickup{
				ID:       p.ID,
				Location: domain.Coordinates{Lat: p.Lat, Lng: p.Lng},
			})
		}
	} else {
		if h.Repo == nil {
			writeError(w, r, http.StatusBadRequest, "pickups are required")
			return
		}
		in.Pickups, err = h.Repo.ListPickups(r.Context())
		if err != nil {
			log.Printf("req_id=%s list pickups failed: %v", obs.RequestID(r.Context()), err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	res, err := opt.Run(r.Context(), in)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, r, http.StatusServiceUnavailable, "optimization cancelled")
			return
		}
		log.Printf("req_id=%s optimize failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toResponse(res))
}

func toResponse(res *domain.OptimizationResult) dto.OptimizeResponse {
	out := dto.OptimizeResponse{
		RunID:   res.RunID,
		Routes:  make([]dto.RouteResponse, 0, len(res.Routes)),
		Skipped: make([]dto.SkippedResponse, 0, len(res.Skipped)),
		Summary: dto.SummaryResponse{
			PickupsTotal:           res.Summary.PickupsTotal,
			PickupsRouted:          res.Summary.PickupsRouted,
			PickupsSkipped:         res.Summary.PickupsSkipped,
			VehiclesUsed:           res.Summary.VehiclesUsed,
			TotalTravelTimeSeconds: res.Summary.TotalTimeSeconds,
			RoutesWithWarnings:     res.Summary.RoutesWithWarns,
		},
	}

	for _, rt := range res.Routes {
		stops := make([]dto.StopResponse, 0, len(rt.Stops))
		for _, s := range rt.Stops {
			stops = append(stops, dto.StopResponse{ID: s.ID, Lat: s.Location.Lat, Lng: s.Location.Lng})
		}
		warnings := rt.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		out.Routes = append(out.Routes, dto.RouteResponse{
			VehicleType:            rt.CarType.Name,
			Seats:                  rt.CarType.Seats,
			Stops:                  stops,
			Destination:            dto.PointResponse{Lat: rt.Destination.Lat, Lng: rt.Destination.Lng},
			LegSeconds:             rt.LegSeconds,
			TotalTravelTimeSeconds: rt.TotalTimeSeconds,
			MaxLegTimeSeconds:      rt.MaxLegTimeSeconds,
			Warnings:               warnings,
		})
	}

	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, dto.SkippedResponse{ID: s.ID, Reason: s.Reason, Detail: s.Detail})
	}
	return out
}
