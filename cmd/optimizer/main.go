// Command optimizer plans pickup routes for one request file:
//
//	optimizer <requests.csv> <config.yaml> <output.yaml>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pickup-route-service/internal/adapters/csvinput"
	"pickup-route-service/internal/adapters/yamlout"
	"pickup-route-service/internal/bootstrap"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: %s <requests.csv> <config.yaml> <output.yaml>\n", os.Args[0])
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2], os.Args[3]); err != nil {
		log.Printf("optimizer: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, requestsPath, configPath, outputPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pickups, skipped, err := csvinput.ReadFile(requestsPath)
	if err != nil {
		return err
	}

	settings := bootstrap.SettingsFromEnv()
	lookup, err := bootstrap.NewLookup(ctx, settings, cfg.GoogleAPIKey)
	if err != nil {
		return err
	}
	defer lookup.Close()

	opt, err := services.NewOptimizer(cfg, lookup.TimeLookup, settings.Matrix)
	if err != nil {
		return err
	}

	res, err := opt.Run(ctx, services.Input{Pickups: pickups, Skipped: skipped})
	if err != nil {
		return err
	}

	if err := yamlout.WriteFile(outputPath, res); err != nil {
		return err
	}

	log.Printf(
		"optimizer: run_id=%s routes=%d routed=%d skipped=%d output=%s",
		res.RunID, len(res.Routes), res.Summary.PickupsRouted, res.Summary.PickupsSkipped, outputPath,
	)
	return nil
}
