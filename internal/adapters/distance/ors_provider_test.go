package distance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pickup-route-service/internal/domain"
)

var (
	depot = domain.Coordinates{Lat: 32.0664, Lng: 34.7777}
	stopA = domain.Coordinates{Lat: 32.0700, Lng: 34.7800}
	stopB = domain.Coordinates{Lat: 32.0853, Lng: 34.7818}
)

type memCache struct {
	mu   sync.Mutex
	rows map[string]map[string]int
	puts int
}

func newMemCache() *memCache {
	return &memCache{rows: make(map[string]map[string]int)}
}

func (m *memCache) GetMany(ctx context.Context, origin string, destinations []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, d := range destinations {
		if secs, ok := m.rows[origin][d]; ok {
			out[d] = secs
		}
	}
	return out, nil
}

func (m *memCache) PutMany(ctx context.Context, origin string, results map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.rows[origin] == nil {
		m.rows[origin] = make(map[string]int)
	}
	for k, v := range results {
		m.rows[origin][k] = v
	}
	return nil
}

// orsServer answers matrix requests with 60s per destination index, or null
// for locations listed in unroutable.
func orsServer(t *testing.T, hits *atomic.Int32, unroutable ...domain.Coordinates) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v2/matrix/driving-car" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req matrixRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Sources) != 1 || req.Sources[0] != 0 {
			t.Errorf("sources = %v, want [0]", req.Sources)
		}

		row := make([]*float64, 0, len(req.Destinations))
		for _, idx := range req.Destinations {
			loc := req.Locations[idx]
			var cell *float64
			blocked := false
			for _, u := range unroutable {
				if loc[0] == u.Lng && loc[1] == u.Lat {
					blocked = true
				}
			}
			if !blocked {
				v := float64(idx)*60 + 0.4
				cell = &v
			}
			row = append(row, cell)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"durations": [][]*float64{row}})
	}))
}

func TestORSDurationsRoundsAndSkipsNull(t *testing.T) {
	var hits atomic.Int32
	srv := orsServer(t, &hits, stopB)
	defer srv.Close()

	p, err := NewORSProvider("test-key", ORSOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	got, err := p.Durations(context.Background(), depot, []domain.Coordinates{stopA, stopB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 60 {
		t.Fatalf("stopA = %d, want 60", got[0])
	}
	if _, ok := got[1]; ok {
		t.Fatalf("unroutable destination must be absent, got %v", got)
	}

	if _, err := p.Duration(context.Background(), depot, stopB); err == nil {
		t.Fatalf("expected error for unroutable pair")
	}
}

func TestORSUsesDurationCache(t *testing.T) {
	var hits atomic.Int32
	srv := orsServer(t, &hits)
	defer srv.Close()

	cache := newMemCache()
	p, _ := NewORSProvider("test-key", ORSOptions{BaseURL: srv.URL, Cache: cache})

	for i := 0; i < 2; i++ {
		secs, err := p.Duration(context.Background(), depot, stopA)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if secs != 60 {
			t.Fatalf("secs = %d, want 60", secs)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("api calls = %d, want 1", hits.Load())
	}
	if cache.puts != 1 {
		t.Fatalf("cache writes = %d, want 1", cache.puts)
	}
}

func TestORSRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"durations":[[120]]}`))
	}))
	defer srv.Close()

	p, _ := NewORSProvider("test-key", ORSOptions{BaseURL: srv.URL})
	p.client.backoff = time.Millisecond

	secs, err := p.Duration(context.Background(), depot, stopA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secs != 120 || calls.Load() != 2 {
		t.Fatalf("secs=%d calls=%d, want 120 and 2", secs, calls.Load())
	}
}

func TestORSDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	p, _ := NewORSProvider("test-key", ORSOptions{BaseURL: srv.URL})
	p.client.backoff = time.Millisecond

	if _, err := p.Duration(context.Background(), depot, stopA); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestNewORSProviderRequiresKey(t *testing.T) {
	if _, err := NewORSProvider("", ORSOptions{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
