package bootstrap

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"pickup-route-service/internal/adapters/distance"

	"github.com/alicebob/miniredis/v2"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("TIME_PROVIDER", "Google")
	t.Setenv("LOOKUP_WORKERS", "3")
	t.Setenv("LOOKUP_TIMEOUT", "250ms")
	t.Setenv("CACHE_BACKEND", "")

	s := SettingsFromEnv()
	if s.Provider != "google" || s.CacheBackend != "none" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.Matrix.Workers != 3 || s.Matrix.Timeout.Milliseconds() != 250 {
		t.Fatalf("unexpected matrix options: %+v", s.Matrix)
	}
}

func TestNewLookupMissingKeys(t *testing.T) {
	ctx := context.Background()

	if _, err := NewLookup(ctx, Settings{Provider: "ors"}, ""); err == nil {
		t.Fatalf("expected error for missing ORS key")
	}
	_, err := NewLookup(ctx, Settings{Provider: "google"}, "")
	if err == nil || !strings.Contains(err.Error(), "Google API key missing") {
		t.Fatalf("err = %v, want missing google key", err)
	}
}

func TestNewLookupGoogleFallsBackToDocumentKey(t *testing.T) {
	l, err := NewLookup(context.Background(), Settings{Provider: "google"}, "from-config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := l.TimeLookup.(*distance.GoogleProvider); !ok {
		t.Fatalf("lookup is %T, want *distance.GoogleProvider", l.TimeLookup)
	}
}

func TestNewLookupWithCaches(t *testing.T) {
	mr := miniredis.RunT(t)

	cases := []Settings{
		{Provider: "ors", ORSKey: "k", CacheBackend: "none"},
		{Provider: "ors", ORSKey: "k", CacheBackend: "sqlite", DBPath: filepath.Join(t.TempDir(), "cache.db")},
		{Provider: "ors", ORSKey: "k", CacheBackend: "redis", RedisURL: "redis://" + mr.Addr() + "/0"},
	}
	for _, s := range cases {
		t.Run(s.CacheBackend, func(t *testing.T) {
			l, err := NewLookup(context.Background(), s, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := l.TimeLookup.(*distance.ORSProvider); !ok {
				t.Fatalf("lookup is %T, want *distance.ORSProvider", l.TimeLookup)
			}
			if err := l.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
	}
}

func TestNewLookupRejectsUnknown(t *testing.T) {
	ctx := context.Background()
	if _, err := NewLookup(ctx, Settings{Provider: "osrm"}, ""); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if _, err := NewLookup(ctx, Settings{Provider: "ors", ORSKey: "k", CacheBackend: "memcached"}, ""); err == nil {
		t.Fatalf("expected error for unknown cache backend")
	}
	if _, err := NewLookup(ctx, Settings{Provider: "ors", ORSKey: "k", CacheBackend: "postgres"}, ""); err == nil {
		t.Fatalf("expected error for postgres without DATABASE_URL")
	}
}
