// Package csvinput reads pickup requests from CSV documents with the header
// id,pickup_lat,pickup_lng (any column order, extra columns ignored).
package csvinput

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"pickup-route-service/internal/domain"
)

const (
	ColumnID  = "id"
	ColumnLat = "pickup_lat"
	ColumnLng = "pickup_lng"
)

var ErrEmptyInput = errors.New("csv input is empty")

// Read parses pickups from r. Rows with an empty id or unusable coordinates
// are returned as skipped with reason invalid_input; a missing header column
// fails the whole read.
func Read(r io.Reader) ([]domain.Pickup, []domain.SkippedPickup, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyInput
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := cols[h]; !ok {
			cols[h] = i
		}
	}
	for _, name := range []string{ColumnID, ColumnLat, ColumnLng} {
		if _, ok := cols[name]; !ok {
			return nil, nil, &domain.InputError{Row: 1, Reason: fmt.Sprintf("missing column %q", name)}
		}
	}

	pickups := make([]domain.Pickup, 0, 64)
	skipped := make([]domain.SkippedPickup, 0)

	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		if blank(rec) {
			continue
		}

		p, reason := parseRow(rec, cols)
		if reason != "" {
			log.Printf("csvinput: row=%d id=%q skipped: %s", row, p.ID, reason)
			skipped = append(skipped, domain.SkippedPickup{
				ID:       p.ID,
				Location: p.Location,
				Reason:   domain.SkipInvalidInput,
				Detail:   fmt.Sprintf("row %d: %s", row, reason),
			})
			continue
		}
		pickups = append(pickups, p)
	}

	return pickups, skipped, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string) ([]domain.Pickup, []domain.SkippedPickup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pickups %q: %w", path, err)
	}
	defer f.Close()

	pickups, skipped, err := Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("pickups %q: %w", path, err)
	}
	return pickups, skipped, nil
}

func field(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(rec []string, cols map[string]int) (domain.Pickup, string) {
	p := domain.Pickup{ID: field(rec, cols[ColumnID])}
	if p.ID == "" {
		return p, "empty id"
	}

	lat, err := strconv.ParseFloat(field(rec, cols[ColumnLat]), 64)
	if err != nil {
		return p, fmt.Sprintf("bad %s", ColumnLat)
	}
	lng, err := strconv.ParseFloat(field(rec, cols[ColumnLng]), 64)
	if err != nil {
		return p, fmt.Sprintf("bad %s", ColumnLng)
	}

	loc := domain.Coordinates{Lat: lat, Lng: lng}
	if !loc.Valid() {
		return p, "coordinates out of range"
	}
	p.Location = loc
	return p, ""
}
