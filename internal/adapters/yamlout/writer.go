// Package yamlout renders optimization results as YAML documents.
package yamlout

import (
	"errors"
	"fmt"
	"io"
	"os"

	"pickup-route-service/internal/domain"

	"gopkg.in/yaml.v3"
)

type Point struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type Stop struct {
	ID  string  `yaml:"id"`
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type Route struct {
	VehicleType     string   `yaml:"vehicle_type"`
	Seats           int      `yaml:"seats"`
	Passengers      int      `yaml:"passengers"`
	Stops           []Stop   `yaml:"stops"`
	Destination     Point    `yaml:"destination"`
	LegTimes        []int    `yaml:"leg_times"`
	TotalTravelTime int      `yaml:"total_travel_time"`
	MaxLegTime      int      `yaml:"max_leg_time"`
	Warnings        []string `yaml:"warnings,omitempty"`
}

type Skipped struct {
	ID     string `yaml:"id"`
	Reason string `yaml:"reason"`
	Detail string `yaml:"detail,omitempty"`
}

type Summary struct {
	PickupsTotal    int `yaml:"pickups_total"`
	PickupsRouted   int `yaml:"pickups_routed"`
	PickupsSkipped  int `yaml:"pickups_skipped"`
	VehiclesUsed    int `yaml:"vehicles_used"`
	TotalTravelTime int `yaml:"total_travel_time"`
	RoutesWithWarns int `yaml:"routes_with_warnings"`
}

// Document is the YAML shape of one optimization result.
type Document struct {
	RunID   string    `yaml:"run_id"`
	Routes  []Route   `yaml:"routes"`
	Skipped []Skipped `yaml:"skipped"`
	Summary Summary   `yaml:"summary"`
}

func FromResult(res *domain.OptimizationResult) Document {
	doc := Document{
		RunID:   res.RunID,
		Routes:  make([]Route, 0, len(res.Routes)),
		Skipped: make([]Skipped, 0, len(res.Skipped)),
		Summary: Summary{
			PickupsTotal:    res.Summary.PickupsTotal,
			PickupsRouted:   res.Summary.PickupsRouted,
			PickupsSkipped:  res.Summary.PickupsSkipped,
			VehiclesUsed:    res.Summary.VehiclesUsed,
			TotalTravelTime: res.Summary.TotalTimeSeconds,
			RoutesWithWarns: res.Summary.RoutesWithWarns,
		},
	}

	for _, r := range res.Routes {
		stops := make([]Stop, 0, len(r.Stops))
		for _, s := range r.Stops {
			stops = append(stops, Stop{ID: s.ID, Lat: s.Location.Lat, Lng: s.Location.Lng})
		}
		doc.Routes = append(doc.Routes, Route{
			VehicleType:     r.CarType.Name,
			Seats:           r.CarType.Seats,
			Passengers:      r.Passengers(),
			Stops:           stops,
			Destination:     Point{Lat: r.Destination.Lat, Lng: r.Destination.Lng},
			LegTimes:        r.LegSeconds,
			TotalTravelTime: r.TotalTimeSeconds,
			MaxLegTime:      r.MaxLegTimeSeconds,
			Warnings:        r.Warnings,
		})
	}

	for _, s := range res.Skipped {
		doc.Skipped = append(doc.Skipped, Skipped{ID: s.ID, Reason: s.Reason, Detail: s.Detail})
	}
	return doc
}

func Write(w io.Writer, res *domain.OptimizationResult) error {
	if res == nil {
		return errors.New("write result: result is nil")
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromResult(res)); err != nil {
		return fmt.Errorf("write result: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write result: flush yaml: %w", err)
	}
	return nil
}

// WriteFile writes res to path, replacing any existing file.
func WriteFile(path string, res *domain.OptimizationResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output %q: %w", path, cerr)
		}
	}()

	return Write(f, res)
}
