package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pickup-route-service/internal/api"
	"pickup-route-service/internal/bootstrap"
	"pickup-route-service/internal/config"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, ORS/Google, caches) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings := bootstrap.SettingsFromEnv()
	configPath := config.Get("CONFIG_PATH", "config.yaml")
	seedPath := config.Get("SEED_PATH", "")
	port := config.Get("PORT", "8080")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	conn, repo, err := bootstrap.OpenPickupStore(ctx, settings.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Seed demo pickups on startup for local runs.
	if seedPath != "" {
		n, err := repo.SeedFromCSV(ctx, seedPath)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("seeded pickups=%d from=%s", n, seedPath)
	}

	lookup, err := bootstrap.NewLookup(ctx, settings, cfg.GoogleAPIKey)
	if err != nil {
		log.Fatal(err)
	}
	defer lookup.Close()

	router := api.NewRouter(api.Deps{
		Repo:   repo,
		Lookup: lookup.TimeLookup,
		Config: cfg,
		Matrix: settings.Matrix,
	})

	// Timeouts are tuned for cold-cache optimization (external API latency).
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s provider=%s cache=%s", port, settings.Provider, settings.CacheBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
