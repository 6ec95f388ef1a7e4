package domain

import (
	"errors"
	"fmt"
)

// ErrLookupFailed is matched by every LookupFailure.
var ErrLookupFailed = errors.New("travel time lookup failed")

// ConfigError is the only fatal error class; it names the offending field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// InputError describes a malformed pickup row rejected before optimization.
type InputError struct {
	Row    int
	ID     string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input row %d (id=%q): %s", e.Row, e.ID, e.Reason)
}

// LookupFailure wraps a failed or timed out travel time lookup for a pair.
type LookupFailure struct {
	Origin      Coordinates
	Destination Coordinates
	Err         error
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("lookup %s -> %s: %v", e.Origin.Key(), e.Destination.Key(), e.Err)
}

func (e *LookupFailure) Unwrap() error { return e.Err }

func (e *LookupFailure) Is(target error) bool { return target == ErrLookupFailed }

// CapacityOverflow reports a cluster larger than any vehicle. It is resolved
// by splitting and only ever logged.
type CapacityOverflow struct {
	Size     int
	MaxSeats int
}

func (e *CapacityOverflow) Error() string {
	return fmt.Sprintf("cluster of %d exceeds largest vehicle capacity %d", e.Size, e.MaxSeats)
}
