package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"pickup-route-service/internal/adapters/repositories"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/platform/db"

	"github.com/joho/godotenv"
)

// dbtool creates the schema on Postgres (DATABASE_URL) or SQLite (DB_PATH)
// and optionally seeds pickups from SEED_PATH.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx := context.Background()

	var (
		conn *sql.DB
		repo *repositories.SqlPickupRepository
		err  error
	)
	if databaseURL := config.Get("DATABASE_URL", ""); databaseURL != "" {
		conn, err = db.Open(databaseURL)
		if err == nil {
			repo = repositories.NewPostgresPickupRepository(conn)
		}
	} else {
		dbPath := config.Get("DB_PATH", "data/app.db")
		conn, err = db.OpenSQLite(dbPath)
		if err == nil {
			repo = repositories.NewSqlitePickupRepository(conn)
		}
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "")
	if err := initAndSeed(ctx, conn, repo, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, repo *repositories.SqlPickupRepository, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Println("Schema ready.")

	if seedPath == "" {
		return nil
	}

	log.Println("Seeding pickups...")
	n, err := repo.SeedFromCSV(ctx, seedPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Printf("Seeding complete. pickups=%d", n)

	return nil
}
