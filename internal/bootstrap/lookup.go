// Package bootstrap builds the travel time collaborator and its persistent
// cache from process environment, shared by the CLI and the HTTP server.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"pickup-route-service/internal/adapters/cache"
	"pickup-route-service/internal/adapters/distance"
	"pickup-route-service/internal/adapters/repositories"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/platform/db"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/timematrix"
)

// Settings is the environment-derived part of the process configuration.
type Settings struct {
	Provider     string
	ORSKey       string
	GoogleKey    string
	RateLimit    float64
	CacheBackend string
	DBPath       string
	DatabaseURL  string
	RedisURL     string
	Matrix       timematrix.Options
}

func SettingsFromEnv() Settings {
	return Settings{
		Provider:     strings.ToLower(config.Get("TIME_PROVIDER", "ors")),
		ORSKey:       config.Get("ORS_API_KEY", ""),
		GoogleKey:    config.Get("GOOGLE_API_KEY", ""),
		RateLimit:    config.GetFloat("LOOKUP_RATE", 0),
		CacheBackend: strings.ToLower(config.Get("CACHE_BACKEND", "none")),
		DBPath:       config.Get("DB_PATH", "data/app.db"),
		DatabaseURL:  config.Get("DATABASE_URL", ""),
		RedisURL:     config.Get("REDIS_URL", "redis://localhost:6379/0"),
		Matrix: timematrix.Options{
			Workers:   config.GetInt("LOOKUP_WORKERS", timematrix.DefaultWorkers),
			Timeout:   config.GetDuration("LOOKUP_TIMEOUT", timematrix.DefaultTimeout),
			BatchSize: config.GetInt("LOOKUP_BATCH", timematrix.DefaultBatchSize),
		},
	}
}

// Lookup holds the constructed collaborator and whatever must be closed
// when the process is done with it. Hand TimeLookup itself to the optimizer:
// the wrapper hides the provider's batched Durations method.
type Lookup struct {
	ports.TimeLookup
	closers []func() error
}

func (l *Lookup) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		errs = append(errs, l.closers[i]())
	}
	return errors.Join(errs...)
}

// NewLookup builds the configured provider. fallbackKey (the optimizer
// document's google_api_key) is used when GOOGLE_API_KEY is unset.
func NewLookup(ctx context.Context, s Settings, fallbackKey string) (*Lookup, error) {
	l := &Lookup{}

	switch s.Provider {
	case "ors":
		durations, err := l.openCache(ctx, s)
		if err != nil {
			_ = l.Close()
			return nil, err
		}
		p, err := distance.NewORSProvider(s.ORSKey, distance.ORSOptions{
			RequestsPerSecond: s.RateLimit,
			Cache:             durations,
		})
		if err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("ORS_API_KEY is required: %w", err)
		}
		l.TimeLookup = p

	case "google":
		key := s.GoogleKey
		if key == "" {
			key = fallbackKey
		}
		p, err := distance.NewGoogleProvider(key, distance.GoogleOptions{RequestsPerSecond: s.RateLimit})
		if err != nil {
			return nil, err
		}
		if s.CacheBackend != "none" && s.CacheBackend != "" {
			log.Printf("bootstrap: CACHE_BACKEND=%s ignored for google provider", s.CacheBackend)
		}
		l.TimeLookup = p

	default:
		return nil, fmt.Errorf("unknown TIME_PROVIDER %q (want ors or google)", s.Provider)
	}

	return l, nil
}

func (l *Lookup) openCache(ctx context.Context, s Settings) (ports.DurationCache, error) {
	switch s.CacheBackend {
	case "", "none":
		return nil, nil

	case "sqlite":
		conn, err := db.OpenSQLite(s.DBPath)
		if err != nil {
			return nil, err
		}
		l.closers = append(l.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn); err != nil {
			return nil, err
		}
		return cache.NewSqliteDurationCache(conn), nil

	case "postgres":
		if s.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
		conn, err := db.Open(s.DatabaseURL)
		if err != nil {
			return nil, err
		}
		l.closers = append(l.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn); err != nil {
			return nil, err
		}
		return cache.NewSQLDurationCache(conn), nil

	case "redis":
		rc, err := cache.NewRedisDurationCache(s.RedisURL, cache.DefaultRedisTTL)
		if err != nil {
			return nil, err
		}
		l.closers = append(l.closers, rc.Close)
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis duration cache: ping: %w", err)
		}
		return rc, nil

	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q (want none, sqlite, postgres or redis)", s.CacheBackend)
	}
}

// OpenPickupStore opens the SQLite pickup store used by the server and dbtool.
func OpenPickupStore(ctx context.Context, dbPath string) (*sql.DB, *repositories.SqlPickupRepository, error) {
	conn, err := db.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, repositories.NewSqlitePickupRepository(conn), nil
}
