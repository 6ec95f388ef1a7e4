package domain

// Represents a single passenger waiting at a pickup point.
// A Pickup is read once per run and never modified afterwards.
type Pickup struct {
	ID       string
	Location Coordinates
}

// Skip reasons attached to pickups that do not end up in any route.
const (
	SkipInvalidInput = "invalid_input"
	SkipDuplicateID  = "duplicate_id"
	SkipLookupFailed = "lookup_failed"
)

// SkippedPickup records a pickup excluded from routing and why.
// Location is the zero value when the input row could not be parsed.
type SkippedPickup struct {
	ID       string
	Location Coordinates
	Reason   string
	Detail   string
}
