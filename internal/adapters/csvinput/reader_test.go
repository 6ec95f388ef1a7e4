package csvinput

import (
	"errors"
	"strings"
	"testing"

	"pickup-route-service/internal/domain"
)

func TestReadParsesAndSkipsBadRows(t *testing.T) {
	in := strings.Join([]string{
		"pickup_lng,id,pickup_lat,note",
		"34.7777,p1,32.0664,front door",
		"34.78,p2,32.07,",
		",p3,32.07,",
		"34.78,,32.07,",
		"34.78,p5,95,",
		"",
		"34.79,p6,not-a-number,",
	}, "\n")

	pickups, skipped, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pickups) != 2 {
		t.Fatalf("pickups = %d, want 2", len(pickups))
	}
	want := domain.Pickup{ID: "p1", Location: domain.Coordinates{Lat: 32.0664, Lng: 34.7777}}
	if pickups[0] != want {
		t.Fatalf("pickups[0] = %+v, want %+v", pickups[0], want)
	}

	ids := make([]string, 0, len(skipped))
	for _, s := range skipped {
		if s.Reason != domain.SkipInvalidInput {
			t.Fatalf("skip reason = %q, want %q", s.Reason, domain.SkipInvalidInput)
		}
		ids = append(ids, s.ID)
	}
	if got := strings.Join(ids, ","); got != "p3,,p5,p6" {
		t.Fatalf("skipped ids = %q, want %q", got, "p3,,p5,p6")
	}
}

func TestReadMissingColumn(t *testing.T) {
	_, _, err := Read(strings.NewReader("id,pickup_lat\np1,32.0\n"))
	var ie *domain.InputError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *domain.InputError", err)
	}
	if !strings.Contains(ie.Reason, ColumnLng) {
		t.Fatalf("reason = %q, want it to name %s", ie.Reason, ColumnLng)
	}
}

func TestReadEmpty(t *testing.T) {
	if _, _, err := Read(strings.NewReader("")); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestReadHeaderOnly(t *testing.T) {
	pickups, skipped, err := Read(strings.NewReader("id,pickup_lat,pickup_lng\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pickups) != 0 || len(skipped) != 0 {
		t.Fatalf("got %d pickups and %d skipped, want none", len(pickups), len(skipped))
	}
}
