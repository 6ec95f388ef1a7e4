package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pickup-route-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// Constraints holds the time ceilings, in seconds.
type Constraints struct {
	MaxTimeBetweenStops int `yaml:"max_time_between_stops_many2one" json:"max_time_between_stops_many2one"`
	MaxTotalRouteTime   int `yaml:"max_total_route_time" json:"max_total_route_time"`
}

type CarTypeConfig struct {
	Type  string `yaml:"type" json:"type"`
	Seats int    `yaml:"seats" json:"seats"`
}

// OptimizerConfig mirrors the YAML configuration document.
type OptimizerConfig struct {
	Constraints         Constraints     `yaml:"constraints" json:"constraints"`
	CarTypes            []CarTypeConfig `yaml:"car_types" json:"car_types"`
	DestinationLocation []float64       `yaml:"destination_location" json:"destination_location"`
	GoogleAPIKey        string          `yaml:"google_api_key,omitempty" json:"-"`
}

// Load reads and validates the configuration document at path.
func Load(path string) (*OptimizerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a YAML document and validates it.
func Decode(r io.Reader) (*OptimizerConfig, error) {
	var cfg OptimizerConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.ConfigError{Field: "document", Reason: "empty"}
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first fatal configuration problem as a *domain.ConfigError.
func (c *OptimizerConfig) Validate() error {
	if c.Constraints.MaxTimeBetweenStops <= 0 {
		return &domain.ConfigError{Field: "constraints.max_time_between_stops_many2one", Reason: "must be a positive number of seconds"}
	}
	if c.Constraints.MaxTotalRouteTime <= 0 {
		return &domain.ConfigError{Field: "constraints.max_total_route_time", Reason: "must be a positive number of seconds"}
	}

	if len(c.CarTypes) == 0 {
		return &domain.ConfigError{Field: "car_types", Reason: "at least one car type is required"}
	}
	seen := make(map[string]struct{}, len(c.CarTypes))
	for i, ct := range c.CarTypes {
		name := strings.TrimSpace(ct.Type)
		if name == "" {
			return &domain.ConfigError{Field: fmt.Sprintf("car_types[%d].type", i), Reason: "must not be empty"}
		}
		if ct.Seats <= 0 {
			return &domain.ConfigError{Field: fmt.Sprintf("car_types[%d].seats", i), Reason: "must be positive"}
		}
		if _, ok := seen[name]; ok {
			return &domain.ConfigError{Field: fmt.Sprintf("car_types[%d].type", i), Reason: fmt.Sprintf("duplicate car type %q", name)}
		}
		seen[name] = struct{}{}
	}

	if len(c.DestinationLocation) != 2 {
		return &domain.ConfigError{Field: "destination_location", Reason: "must be [lat, lng]"}
	}
	if !c.Destination().Valid() {
		return &domain.ConfigError{Field: "destination_location", Reason: "coordinates out of range"}
	}

	return nil
}

// Destination assumes Validate succeeded.
func (c *OptimizerConfig) Destination() domain.Coordinates {
	return domain.Coordinates{Lat: c.DestinationLocation[0], Lng: c.DestinationLocation[1]}
}

func (c *OptimizerConfig) Cars() []domain.CarType {
	out := make([]domain.CarType, 0, len(c.CarTypes))
	for _, ct := range c.CarTypes {
		out = append(out, domain.CarType{Name: strings.TrimSpace(ct.Type), Seats: ct.Seats})
	}
	return out
}
