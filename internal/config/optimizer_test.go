package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pickup-route-service/internal/domain"
)

const validDoc = `
constraints:
  max_time_between_stops_many2one: 600
  max_total_route_time: 3600
car_types:
  - type: Minivan
    seats: 7
  - type: Sedan
    seats: 4
destination_location: [32.0853, 34.7818]
google_api_key: from-file
`

func TestDecodeValid(t *testing.T) {
	cfg, err := Decode(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Constraints.MaxTimeBetweenStops != 600 || cfg.Constraints.MaxTotalRouteTime != 3600 {
		t.Fatalf("constraints = %+v", cfg.Constraints)
	}
	if d := cfg.Destination(); d.Lat != 32.0853 || d.Lng != 34.7818 {
		t.Fatalf("destination = %+v", d)
	}
	if cars := cfg.Cars(); len(cars) != 2 || cars[0].Name != "Minivan" || cars[1].Seats != 4 {
		t.Fatalf("cars = %+v", cars)
	}
	if cfg.GoogleAPIKey != "from-file" {
		t.Fatalf("google key = %q", cfg.GoogleAPIKey)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		field string
	}{
		{"empty", "", "document"},
		{"zero leg ceiling", strings.Replace(validDoc, "many2one: 600", "many2one: 0", 1), "constraints.max_time_between_stops_many2one"},
		{"negative total", strings.Replace(validDoc, "route_time: 3600", "route_time: -5", 1), "constraints.max_total_route_time"},
		{"no cars", strings.Replace(strings.Replace(validDoc, "  - type: Minivan\n    seats: 7\n", "", 1), "  - type: Sedan\n    seats: 4\n", "", 1), "car_types"},
		{"zero seats", strings.Replace(validDoc, "seats: 4", "seats: 0", 1), "car_types[1].seats"},
		{"duplicate name", strings.Replace(validDoc, "type: Sedan", "type: Minivan", 1), "car_types[1].type"},
		{"short destination", strings.Replace(validDoc, "[32.0853, 34.7818]", "[32.0853]", 1), "destination_location"},
		{"bad destination", strings.Replace(validDoc, "[32.0853, 34.7818]", "[132.0, 34.7818]", 1), "destination_location"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc))
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *domain.ConfigError", err)
			}
			if ce.Field != tc.field {
				t.Fatalf("field = %q, want %q", ce.Field, tc.field)
			}
		})
	}
}

func TestDecodeUnknownField(t *testing.T) {
	if _, err := Decode(strings.NewReader(validDoc + "trucks: 3\n")); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validDoc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("PRS_STR", "  value ")
	t.Setenv("PRS_INT", "12")
	t.Setenv("PRS_BADINT", "twelve")
	t.Setenv("PRS_FLOAT", "2.5")
	t.Setenv("PRS_DUR", "1500ms")
	t.Setenv("PRS_SECS", "7")

	if Get("PRS_STR", "x") != "value" || Get("PRS_UNSET", "x") != "x" {
		t.Fatalf("Get wrong")
	}
	if GetInt("PRS_INT", 1) != 12 || GetInt("PRS_BADINT", 1) != 1 {
		t.Fatalf("GetInt wrong")
	}
	if GetFloat("PRS_FLOAT", 0) != 2.5 {
		t.Fatalf("GetFloat wrong")
	}
	if GetDuration("PRS_DUR", 0) != 1500*time.Millisecond || GetDuration("PRS_SECS", 0) != 7*time.Second {
		t.Fatalf("GetDuration wrong")
	}
}
