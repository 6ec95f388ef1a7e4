package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pickup-route-service/internal/adapters/distance"
	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
)

type stubRepo struct {
	pickups []domain.Pickup
	err     error
}

func (s stubRepo) ListPickups(ctx context.Context) ([]domain.Pickup, error) {
	return s.pickups, s.err
}

// flatLookup returns 60s between any two points.
var flatLookup = distance.FuncProvider(func(ctx context.Context, o, d domain.Coordinates) (int, error) {
	return 60, nil
})

func serverConfig() *config.OptimizerConfig {
	return &config.OptimizerConfig{
		Constraints:         config.Constraints{MaxTimeBetweenStops: 600, MaxTotalRouteTime: 3600},
		CarTypes:            []config.CarTypeConfig{{Type: "Minivan", Seats: 3}},
		DestinationLocation: []float64{32.0853, 34.7818},
	}
}

func doOptimize(t *testing.T, h *OptimizeHandler, body string) (*httptest.ResponseRecorder, dto.OptimizeResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)

	var res dto.OptimizeResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, res
}

func TestOptimizeUsesRequestPickups(t *testing.T) {
	h := &OptimizeHandler{Lookup: flatLookup, Config: serverConfig()}

	body := `{"pickups":[
		{"id":"a","lat":32.0600,"lng":34.7700},
		{"id":"b","lat":32.0610,"lng":34.7710},
		{"id":"c","lat":32.0620,"lng":34.7720},
		{"id":"d","lat":32.0630,"lng":34.7730}
	]}`
	rec, res := doOptimize(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	routed := 0
	for _, r := range res.Routes {
		if len(r.Stops) > 3 {
			t.Fatalf("route over capacity: %+v", r)
		}
		routed += len(r.Stops)
	}
	if routed != 4 || res.Summary.PickupsRouted != 4 {
		t.Fatalf("routed = %d, summary = %+v", routed, res.Summary)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}
}

func TestOptimizeFallsBackToRepository(t *testing.T) {
	repo := stubRepo{pickups: []domain.Pickup{
		{ID: "x", Location: domain.Coordinates{Lat: 32.06, Lng: 34.77}},
	}}
	h := &OptimizeHandler{Repo: repo, Lookup: flatLookup, Config: serverConfig()}

	rec, res := doOptimize(t, h, `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(res.Routes) != 1 || res.Routes[0].Stops[0].ID != "x" {
		t.Fatalf("unexpected routes: %+v", res.Routes)
	}
}

func TestOptimizeRejectsBadRequests(t *testing.T) {
	h := &OptimizeHandler{Repo: stubRepo{}, Lookup: flatLookup, Config: serverConfig()}

	cases := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", `{"trucks":3}`, "invalid json body"},
		{"two objects", `{} {}`, "only one JSON object"},
		{"bad config", `{"config":{"constraints":{"max_time_between_stops_many2one":0,"max_total_route_time":10},"car_types":[{"type":"Van","seats":4}],"destination_location":[1,2]}}`, "max_time_between_stops_many2one"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := doOptimize(t, h, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Fatalf("body %q does not mention %q", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestOptimizeWithoutConfig(t *testing.T) {
	h := &OptimizeHandler{Repo: stubRepo{}, Lookup: flatLookup}
	rec, _ := doOptimize(t, h, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOptimizeRepositoryError(t *testing.T) {
	h := &OptimizeHandler{Repo: stubRepo{err: errors.New("disk gone")}, Lookup: flatLookup, Config: serverConfig()}
	rec, _ := doOptimize(t, h, `{}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestOptimizeMethodNotAllowed(t *testing.T) {
	h := &OptimizeHandler{}
	req := httptest.NewRequest(http.MethodGet, "/optimize", nil)
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("status = %d allow = %q", rec.Code, rec.Header().Get("Allow"))
	}
}
