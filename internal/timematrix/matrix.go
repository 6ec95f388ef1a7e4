// Package timematrix provides the per-run travel time cache that sits between
// the optimizer stages and the external time lookup.
//
// Every directed coordinate pair is looked up at most once per Matrix: the
// first stored result (duration or failure) wins, concurrent callers for the
// same pair share one in-flight request, and each request is bounded by a
// timeout so a stalled provider surfaces as a lookup failure.
package timematrix

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultWorkers = 8
	DefaultTimeout = 10 * time.Second
	// DefaultBatchSize matches the per-request destination limit of the
	// Google Distance Matrix API.
	DefaultBatchSize = 25
)

type Options struct {
	// Workers bounds concurrent provider calls during Prefetch.
	Workers int
	// Timeout applies to each individual provider call: one pair, or one
	// batch of at most BatchSize destinations.
	Timeout time.Duration
	// BatchSize bounds the destinations per batched provider call.
	BatchSize int
}

// Pair is a directed origin->destination coordinate pair.
type Pair struct {
	From domain.Coordinates
	To   domain.Coordinates
}

type entry struct {
	seconds int
	err     error
}

// Matrix is safe for concurrent use. Create one per optimizer run.
type Matrix struct {
	lookup  ports.TimeLookup
	opts    Options
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

func New(lookup ports.TimeLookup, opts Options) *Matrix {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Matrix{
		lookup:  lookup,
		opts:    opts,
		entries: make(map[string]entry),
	}
}

func pairKey(from, to domain.Coordinates) string {
	return from.Key() + "|" + to.Key()
}

// Len returns the number of pairs resolved so far (successes and failures).
func (m *Matrix) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Matrix) get(key string) (entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

// put stores e unless the key is already resolved and returns the stored entry.
func (m *Matrix) put(key string, e entry) entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.entries[key]; ok {
		return prev
	}
	m.entries[key] = e
	if e.err != nil {
		obs.MatrixLookups.WithLabelValues("failed").Inc()
	}
	return e
}

// Duration returns the travel time from -> to in seconds. A failed or timed
// out lookup returns an error matching domain.ErrLookupFailed and is
// remembered; cancellation of ctx is returned as is and not remembered.
func (m *Matrix) Duration(ctx context.Context, from, to domain.Coordinates) (int, error) {
	if from.Key() == to.Key() {
		return 0, nil
	}

	key := pairKey(from, to)
	if e, ok := m.get(key); ok {
		obs.MatrixLookups.WithLabelValues("hit").Inc()
		return e.seconds, e.err
	}

	v, err, shared := m.group.Do(key, func() (any, error) {
		if e, ok := m.get(key); ok {
			return e, nil
		}
		obs.MatrixLookups.WithLabelValues("miss").Inc()

		lctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()

		secs, err := m.lookup.Duration(lctx, from, to)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return m.put(key, resolve(from, to, secs, err)), nil
	})
	if err != nil {
		return 0, err
	}
	if shared {
		obs.MatrixLookups.WithLabelValues("shared").Inc()
	}

	e := v.(entry)
	return e.seconds, e.err
}

func resolve(from, to domain.Coordinates, secs int, err error) entry {
	if err != nil {
		return entry{err: &domain.LookupFailure{Origin: from, Destination: to, Err: err}}
	}
	if secs < 0 {
		return entry{err: &domain.LookupFailure{Origin: from, Destination: to, Err: fmt.Errorf("negative duration %d", secs)}}
	}
	return entry{seconds: secs}
}

// Prefetch resolves all pairs with at most Options.Workers concurrent provider
// calls. Batched providers get one call per origin and BatchSize destinations,
// each under its own timeout. Lookup failures are recorded, not returned; only
// cancellation of ctx aborts the prefetch.
func (m *Matrix) Prefetch(ctx context.Context, pairs []Pair) (err error) {
	defer obs.Time(ctx, "timematrix.Prefetch")(&err)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)

	if batch, ok := m.lookup.(ports.TimeMatrixLookup); ok {
	rows:
		for _, row := range groupByOrigin(pairs) {
			for chunk := range slices.Chunk(row.destinations, m.opts.BatchSize) {
				if gctx.Err() != nil {
					break rows
				}
				g.Go(func() error {
					return m.fetchRow(gctx, batch, row.origin, chunk)
				})
			}
		}
	} else {
		for _, p := range pairs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				_, err := m.Duration(gctx, p.From, p.To)
				if err != nil && !errors.Is(err, domain.ErrLookupFailed) {
					return err
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("prefetch travel times: %w", err)
	}
	return ctx.Err()
}

type originRow struct {
	origin       domain.Coordinates
	destinations []domain.Coordinates
}

// groupByOrigin keeps first-seen order of origins and destinations.
func groupByOrigin(pairs []Pair) []originRow {
	idx := make(map[string]int)
	seen := make(map[string]struct{})
	rows := make([]originRow, 0)
	for _, p := range pairs {
		if p.From.Key() == p.To.Key() {
			continue
		}
		k := pairKey(p.From, p.To)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		i, ok := idx[p.From.Key()]
		if !ok {
			i = len(rows)
			idx[p.From.Key()] = i
			rows = append(rows, originRow{origin: p.From})
		}
		rows[i].destinations = append(rows[i].destinations, p.To)
	}
	return rows
}

func (m *Matrix) fetchRow(
	ctx context.Context,
	batch ports.TimeMatrixLookup,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) error {
	misses := make([]domain.Coordinates, 0, len(destinations))
	for _, d := range destinations {
		if _, ok := m.get(pairKey(origin, d)); ok {
			obs.MatrixLookups.WithLabelValues("hit").Inc()
			continue
		}
		misses = append(misses, d)
	}
	if len(misses) == 0 {
		return nil
	}
	obs.MatrixLookups.WithLabelValues("miss").Add(float64(len(misses)))

	lctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	row, err := batch.Durations(lctx, origin, misses)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	for i, d := range misses {
		if err != nil {
			m.put(pairKey(origin, d), resolve(origin, d, 0, err))
			continue
		}
		secs, ok := row[i]
		if !ok {
			m.put(pairKey(origin, d), resolve(origin, d, 0, errors.New("missing from matrix response")))
			continue
		}
		m.put(pairKey(origin, d), resolve(origin, d, secs, nil))
	}
	return nil
}
