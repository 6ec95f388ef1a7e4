package distance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pickup-route-service/internal/domain"
)

func TestGoogleDurationsPrefersTraffic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "g-key" || q.Get("departure_time") != "now" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if got := len(strings.Split(q.Get("destinations"), "|")); got != 2 {
			t.Errorf("destinations = %d, want 2", got)
		}
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"rows": [{"elements": [
				{"status": "OK", "duration": {"value": 300}, "duration_in_traffic": {"value": 420}},
				{"status": "ZERO_RESULTS"}
			]}]
		}`))
	}))
	defer srv.Close()

	p, err := NewGoogleProvider("g-key", GoogleOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	got, err := p.Durations(context.Background(), depot, []domain.Coordinates{stopA, stopB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 420 {
		t.Fatalf("stopA = %d, want 420", got[0])
	}
	if _, ok := got[1]; ok {
		t.Fatalf("ZERO_RESULTS element must be absent")
	}
}

func TestGoogleRequestDeniedIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "invalid key"}`))
	}))
	defer srv.Close()

	p, _ := NewGoogleProvider("g-key", GoogleOptions{BaseURL: srv.URL})
	_, err := p.Duration(context.Background(), depot, stopA)
	if err == nil || !strings.Contains(err.Error(), "REQUEST_DENIED") {
		t.Fatalf("err = %v, want REQUEST_DENIED", err)
	}
}

func TestNewGoogleProviderRequiresKey(t *testing.T) {
	if _, err := NewGoogleProvider("", GoogleOptions{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestGoogleDurationsKeepsSuccessfulChunks(t *testing.T) {
	failing := latLng(domain.Coordinates{Lat: 31.025, Lng: 35})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dests := strings.Split(r.URL.Query().Get("destinations"), "|")
		if len(dests) > googleMaxDestinations {
			t.Errorf("request carried %d destinations", len(dests))
		}
		if dests[0] == failing {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		elements := make([]string, 0, len(dests))
		for range dests {
			elements = append(elements, `{"status":"OK","duration":{"value":90}}`)
		}
		fmt.Fprintf(w, `{"status":"OK","rows":[{"elements":[%s]}]}`, strings.Join(elements, ","))
	}))
	defer srv.Close()

	p, _ := NewGoogleProvider("g-key", GoogleOptions{BaseURL: srv.URL})

	dests := make([]domain.Coordinates, 0, 60)
	for i := 0; i < 60; i++ {
		dests = append(dests, domain.Coordinates{Lat: 31 + float64(i)*0.001, Lng: 35})
	}

	got, err := p.Durations(context.Background(), depot, dests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range dests {
		_, ok := got[i]
		inFailedChunk := i >= 25 && i < 50
		if ok == inFailedChunk {
			t.Fatalf("index %d present=%v, want %v", i, ok, !inFailedChunk)
		}
	}
	if got[0] != 90 || got[59] != 90 {
		t.Fatalf("got %v", got)
	}
}
