package domain

import (
	"cmp"
	"slices"
)

// A vehicle class available in unlimited quantity.
type CarType struct {
	Name  string
	Seats int
}

// SortCarTypes returns a copy ordered by seats descending, then by name.
func SortCarTypes(types []CarType) []CarType {
	out := slices.Clone(types)
	slices.SortFunc(out, func(a, b CarType) int {
		if c := cmp.Compare(b.Seats, a.Seats); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// MaxSeats returns the largest capacity in types, or 0 when empty.
func MaxSeats(types []CarType) int {
	best := 0
	for _, t := range types {
		if t.Seats > best {
			best = t.Seats
		}
	}
	return best
}
