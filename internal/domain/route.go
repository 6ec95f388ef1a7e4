package domain

// Warnings attached to routes that breach a time ceiling.
const (
	WarnLegTimeExceeded   = "leg_time_exceeded"
	WarnTotalTimeExceeded = "total_time_exceeded"
)

// RouteSkeleton is a vehicle assignment before stops are ordered.
type RouteSkeleton struct {
	CarType CarType
	Members []Pickup
}

// Represents the planned route for a single vehicle.
// Stops are in visiting order; the destination is the implicit terminal stop,
// so LegSeconds has exactly len(Stops) entries when Stops is non-empty
// (the last entry is the leg into the destination).
// A Route is immutable planning data: validation returns an annotated copy.
type Route struct {
	CarType           CarType
	Stops             []Pickup
	Destination       Coordinates
	LegSeconds        []int
	TotalTimeSeconds  int
	MaxLegTimeSeconds int
	Warnings          []string
}

func (r Route) Passengers() int { return len(r.Stops) }

// StopIDs returns pickup identifiers in visiting order.
func (r Route) StopIDs() []string {
	ids := make([]string, 0, len(r.Stops))
	for _, s := range r.Stops {
		ids = append(ids, s.ID)
	}
	return ids
}
