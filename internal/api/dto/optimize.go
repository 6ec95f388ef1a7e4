package dto

import "pickup-route-service/internal/config"

type PickupRequest struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OptimizeRequest overrides the stored pickups and the server's optimizer
// configuration when the respective field is present.
type OptimizeRequest struct {
	Pickups []PickupRequest         `json:"pickups"`
	Config  *config.OptimizerConfig `json:"config"`
}

type StopResponse struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RouteResponse struct {
	VehicleType            string         `json:"vehicle_type"`
	Seats                  int            `json:"seats"`
	Stops                  []StopResponse `json:"stops"`
	Destination            PointResponse  `json:"destination"`
	LegSeconds             []int          `json:"leg_seconds"`
	TotalTravelTimeSeconds int            `json:"total_travel_time_seconds"`
	MaxLegTimeSeconds      int            `json:"max_leg_time_seconds"`
	Warnings               []string       `json:"warnings"`
}

type SkippedResponse struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type SummaryResponse struct {
	PickupsTotal           int `json:"pickups_total"`
	PickupsRouted          int `json:"pickups_routed"`
	PickupsSkipped         int `json:"pickups_skipped"`
	VehiclesUsed           int `json:"vehicles_used"`
	TotalTravelTimeSeconds int `json:"total_travel_time_seconds"`
	RoutesWithWarnings     int `json:"routes_with_warnings"`
}

type OptimizeResponse struct {
	RunID   string            `json:"run_id"`
	Routes  []RouteResponse   `json:"routes"`
	Skipped []SkippedResponse `json:"skipped"`
	Summary SummaryResponse   `json:"summary"`
}
