package domain

import "slices"

// Cluster is a group of pickups served jointly by one vehicle.
// Members are kept sorted by ID so that clusters compare deterministically.
type Cluster struct {
	Members []Pickup
}

// NewCluster copies members and sorts them by ID.
func NewCluster(members []Pickup) Cluster {
	m := slices.Clone(members)
	slices.SortFunc(m, func(a, b Pickup) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return Cluster{Members: m}
}

func (c Cluster) Size() int { return len(c.Members) }

// MinID is the lexically smallest member ID ("" for an empty cluster).
func (c Cluster) MinID() string {
	if len(c.Members) == 0 {
		return ""
	}
	return c.Members[0].ID
}

func (c Cluster) IDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, p := range c.Members {
		ids = append(ids, p.ID)
	}
	return ids
}
