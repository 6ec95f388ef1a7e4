package services

import (
	"container/heap"
	"context"
	"fmt"
	"log"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
	"slices"
)

// ClusterSet is the Builder output. Isolated lists pickups whose travel time
// to every other pickup is undefined; they are always singleton clusters.
type ClusterSet struct {
	Clusters []domain.Cluster
	Isolated []domain.Pickup
}

const undefined = -1

// BuildClusters groups pickups by constrained complete-linkage agglomerative
// clustering. Every merge picks the pair of clusters whose union has the
// smallest maximum pairwise time, and only if that maximum stays within
// ceiling. Pairs with a failed lookup are never merged.
//
// The returned error is non-nil only when ctx is cancelled.
func BuildClusters(
	ctx context.Context,
	pickups []domain.Pickup,
	times ports.TimeLookup,
	ceiling int,
) (ClusterSet, error) {
	sorted := sortPickups(pickups)
	n := len(sorted)
	if n == 0 {
		return ClusterSet{Clusters: []domain.Cluster{}}, nil
	}

	// link[i][j] is the complete-linkage distance between cluster slots i and j.
	link := make([][]int, n)
	for i := range link {
		link[i] = make([]int, n)
	}
	failedPairs := make([]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			secs, ok, err := pairTime(ctx, times, sorted[i], sorted[j])
			if err != nil {
				return ClusterSet{}, fmt.Errorf("build clusters: %w", err)
			}
			if !ok {
				secs = undefined
				failedPairs[i]++
				failedPairs[j]++
			}
			link[i][j], link[j][i] = secs, secs
		}
	}

	isolated := make([]domain.Pickup, 0)
	for i, f := range failedPairs {
		if f == 0 {
			continue
		}
		log.Printf("cluster: pickup=%s undefined_pairs=%d merges involving these pairs are illegal", sorted[i].ID, f)
		if n > 1 && f == n-1 {
			isolated = append(isolated, sorted[i])
		}
	}

	// Slots start as singletons; a merge keeps the lower slot and retires the other.
	members := make([][]int, n)
	diameter := make([]int, n)
	version := make([]int, n)
	active := make([]bool, n)
	for i := range members {
		members[i] = []int{i}
		active[i] = true
	}

	pq := &mergeQueue{}
	push := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		l := link[a][b]
		if l == undefined {
			return
		}
		cost := max(l, diameter[a], diameter[b])
		if cost > ceiling {
			return
		}
		lo, hi := members[a][0], members[b][0]
		if lo > hi {
			lo, hi = hi, lo
		}
		heap.Push(pq, mergeCandidate{
			cost: cost, lo: lo, hi: hi,
			a: a, b: b, va: version[a], vb: version[b],
		})
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			push(i, j)
		}
	}

	for pq.Len() > 0 {
		c := heap.Pop(pq).(mergeCandidate)
		if !active[c.a] || !active[c.b] || version[c.a] != c.va || version[c.b] != c.vb {
			continue
		}

		a, b := c.a, c.b
		members[a] = append(members[a], members[b]...)
		slices.Sort(members[a])
		diameter[a] = c.cost
		version[a]++
		active[b] = false
		members[b] = nil

		// Lance-Williams update for complete linkage: d(a∪b, k) = max(d(a,k), d(b,k)).
		for k := 0; k < n; k++ {
			if !active[k] || k == a {
				continue
			}
			l := undefined
			if link[a][k] != undefined && link[b][k] != undefined {
				l = max(link[a][k], link[b][k])
			}
			link[a][k], link[k][a] = l, l
			push(a, k)
		}
	}

	clusters := make([]domain.Cluster, 0)
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		ps := make([]domain.Pickup, 0, len(members[i]))
		for _, idx := range members[i] {
			ps = append(ps, sorted[idx])
		}
		clusters = append(clusters, domain.NewCluster(ps))
	}
	slices.SortFunc(clusters, func(x, y domain.Cluster) int {
		switch {
		case x.MinID() < y.MinID():
			return -1
		case x.MinID() > y.MinID():
			return 1
		}
		return 0
	})

	log.Printf("cluster: pickups=%d clusters=%d isolated=%d ceiling=%ds", n, len(clusters), len(isolated), ceiling)
	return ClusterSet{Clusters: clusters, Isolated: isolated}, nil
}

// mergeCandidate is a legal merge of slots a and b valid while both slot
// versions are unchanged. lo and hi are the smallest member indexes of the two
// clusters; since pickups are sorted by ID they order ties lexically by ID.
type mergeCandidate struct {
	cost   int
	lo, hi int
	a, b   int
	va, vb int
}

type mergeQueue []mergeCandidate

func (q mergeQueue) Len() int { return len(q) }

func (q mergeQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if q[i].lo != q[j].lo {
		return q[i].lo < q[j].lo
	}
	return q[i].hi < q[j].hi
}

func (q mergeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *mergeQueue) Push(x any) { *q = append(*q, x.(mergeCandidate)) }

func (q *mergeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
