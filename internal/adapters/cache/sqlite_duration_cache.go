package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pickup-route-service/internal/platform/obs"
)

// SqliteDurationCache is the SQLite flavour of SQLDurationCache.
// Keys are expected to be canonical coordinate strings.
type SqliteDurationCache struct {
	DB *sql.DB
}

func NewSqliteDurationCache(db *sql.DB) *SqliteDurationCache {
	return &SqliteDurationCache{DB: db}
}

// Fetch cached durations for one origin and multiple destinations.
func (s *SqliteDurationCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]int, err error) {
	defer obs.Time(ctx, "duration.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("duration cache: db is nil")
	}
	if origin == "" {
		return nil, errors.New("get duration cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]int{}, nil
	}

	ph := make([]string, 0, len(uniq))
	args := make([]any, 0, 1+len(uniq))
	args = append(args, origin)
	for _, d := range uniq {
		ph = append(ph, "?")
		args = append(args, d)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
		destination,
		duration_seconds
	FROM duration_cache
	WHERE origin = ?
		AND destination IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get duration cache: query duration_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int, len(uniq))
	for rows.Next() {
		var dest string
		var seconds int
		if err := rows.Scan(&dest, &seconds); err != nil {
			return nil, fmt.Errorf("get duration cache: scan rows: %w", err)
		}
		out[dest] = seconds
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get duration cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many durations for a single origin.
func (s *SqliteDurationCache) PutMany(ctx context.Context, origin string, results map[string]int) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}
	if origin == "" {
		return errors.New("insert duration cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert duration cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO duration_cache (
		origin,
		destination,
		duration_seconds
	)
	VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert duration cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for dest, secs := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("insert duration cache: empty destination key")
		}
		if _, err := stmt.ExecContext(ctx, origin, dest, secs); err != nil {
			return fmt.Errorf("insert duration cache dest=%q: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert duration cache commit: %w", err)
	}

	return nil
}
