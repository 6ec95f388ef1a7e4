package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"pickup-route-service/internal/adapters/csvinput"
	"pickup-route-service/internal/domain"
)

// SqlPickupRepository implements ports.PickupRepository over the pickups
// table on either SQLite or Postgres.
type SqlPickupRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSqlitePickupRepository(db *sql.DB) *SqlPickupRepository {
	return &SqlPickupRepository{DB: db, Dialect: SQLite}
}

func NewPostgresPickupRepository(db *sql.DB) *SqlPickupRepository {
	return &SqlPickupRepository{DB: db, Dialect: Postgres}
}

// Return all stored pickups ordered by id.
func (s *SqlPickupRepository) ListPickups(ctx context.Context) ([]domain.Pickup, error) {
	if s.DB == nil {
		return nil, errors.New("pickup repository: DB is nil")
	}

	query := `
	SELECT
		id,
		lat,
		lng
	FROM pickups
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pickups: query pickups table: %w", err)
	}
	defer rows.Close()

	pickups := make([]domain.Pickup, 0, 64)
	for rows.Next() {
		var p domain.Pickup
		if err := rows.Scan(&p.ID, &p.Location.Lat, &p.Location.Lng); err != nil {
			return nil, fmt.Errorf("list pickups: scan row: %w", err)
		}
		pickups = append(pickups, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pickups: row iteration: %w", err)
	}

	return pickups, nil
}

// SavePickups upserts pickups by id.
func (s *SqlPickupRepository) SavePickups(ctx context.Context, pickups []domain.Pickup) error {
	if s.DB == nil {
		return errors.New("pickup repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save pickups: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
	INSERT INTO pickups (id, lat, lng)
	VALUES (%s, %s, %s)
	ON CONFLICT (id) DO UPDATE
	SET lat = excluded.lat,
		lng = excluded.lng;
	`, s.Dialect.bind(1), s.Dialect.bind(2), s.Dialect.bind(3))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("save pickups: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pickups {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Location.Lat, p.Location.Lng); err != nil {
			return fmt.Errorf("save pickups: insert id=%q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save pickups: commit tx: %w", err)
	}

	return nil
}

// SeedFromCSV loads pickups from a CSV file into the pickups table. Invalid
// rows are logged and left out. It returns the number of stored pickups.
func (s *SqlPickupRepository) SeedFromCSV(ctx context.Context, csvPath string) (int, error) {
	pickups, skipped, err := csvinput.ReadFile(csvPath)
	if err != nil {
		return 0, fmt.Errorf("seed pickups: %w", err)
	}
	for _, sk := range skipped {
		log.Printf("seed pickups: skipping id=%q: %s", sk.ID, sk.Detail)
	}

	if err := s.SavePickups(ctx, pickups); err != nil {
		return 0, fmt.Errorf("seed pickups: %w", err)
	}
	return len(pickups), nil
}
