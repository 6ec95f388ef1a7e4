package distance

import (
	"context"
	"fmt"
	"pickup-route-service/internal/domain"
	"sync"
	"time"
)

type MockPair struct {
	From, To domain.Coordinates
	Seconds  int
}

// MockProvider serves durations from an in-memory table. Pairs not in the
// table fail. It counts calls per pair so tests can assert de-duplication.
type MockProvider struct {
	m     map[string]int
	Delay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func NewMockProvider(pairs []MockPair) *MockProvider {
	m := make(map[string]int, len(pairs))
	for _, p := range pairs {
		m[p.From.Key()+"|"+p.To.Key()] = p.Seconds
	}
	return &MockProvider{m: m, calls: make(map[string]int)}
}

func (p *MockProvider) Duration(ctx context.Context, origin, destination domain.Coordinates) (int, error) {
	key := origin.Key() + "|" + destination.Key()

	p.mu.Lock()
	p.calls[key]++
	p.mu.Unlock()

	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	secs, ok := p.m[key]
	if !ok {
		return 0, fmt.Errorf("missing pair %q -> %q", origin.Key(), destination.Key())
	}
	return secs, nil
}

// Calls returns how often the pair was requested.
func (p *MockProvider) Calls(origin, destination domain.Coordinates) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[origin.Key()+"|"+destination.Key()]
}

func (p *MockProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

// FuncProvider adapts a plain function to ports.TimeLookup.
type FuncProvider func(ctx context.Context, origin, destination domain.Coordinates) (int, error)

func (f FuncProvider) Duration(ctx context.Context, origin, destination domain.Coordinates) (int, error) {
	return f(ctx, origin, destination)
}
