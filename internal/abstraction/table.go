package abstraction

import (
	"fmt"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/poker"
)

// Clustering is the k-means outcome for a point set.
type Clustering struct {
	Assign    []int
	Centroids [][]float64
}

// ClusterTable maps the canonical key of every clustered card subset to its
// cluster id. It is immutable once built and safe for concurrent readers.
type ClusterTable struct {
	Street game.Street
	Level  Level
	Points []Fingerprint
	Clustering

	index *poker.KeyIndex
	slots []int32
}

// NewClusterTable indexes points by key. assign must parallel points.
func NewClusterTable(street game.Street, level Level, points []Fingerprint, c Clustering) (*ClusterTable, error) {
	if len(points) != len(c.Assign) {
		return nil, fmt.Errorf("%d points but %d assignments", len(points), len(c.Assign))
	}
	keys := make([]uint64, len(points))
	for i, p := range points {
		keys[i] = p.Key
		if a := c.Assign[i]; a < 0 || a >= len(c.Centroids) {
			return nil, fmt.Errorf("point %d assigned to cluster %d of %d", i, a, len(c.Centroids))
		}
	}
	index, err := poker.NewKeyIndex(keys)
	if err != nil {
		return nil, fmt.Errorf("index %s %s keys: %w", level, street, err)
	}
	slots := make([]int32, index.Slots())
	for i, k := range keys {
		s, _ := index.Find(k)
		slots[s] = int32(i)
	}
	return &ClusterTable{Street: street, Level: level, Points: points, Clustering: c, index: index, slots: slots}, nil
}

// Lookup returns the cluster of a canonical key, or false on a miss.
func (t *ClusterTable) Lookup(key uint64) (int, bool) {
	s, ok := t.index.Find(key)
	if !ok {
		return 0, false
	}
	return t.Assign[t.slots[s]], true
}

// K returns the number of clusters.
func (t *ClusterTable) K() int { return len(t.Centroids) }

// Members returns the fingerprints assigned to cluster c.
func (t *ClusterTable) Members(c int) []Fingerprint {
	var out []Fingerprint
	for i, a := range t.Assign {
		if a == c {
			out = append(out, t.Points[i])
		}
	}
	return out
}

// Abstraction holds the private and public tables of every street.
type Abstraction struct {
	Private [game.NumStreets]*ClusterTable
	Public  [game.NumStreets]*ClusterTable
}

// Table returns the table of a level and street.
func (a *Abstraction) Table(level Level, street game.Street) *ClusterTable {
	if level == Public {
		return a.Public[street]
	}
	return a.Private[street]
}

// ClusterCounts returns the number of clusters per street for a level.
func (a *Abstraction) ClusterCounts(level Level) []int {
	out := make([]int, game.NumStreets)
	for s := range game.NumStreets {
		out[s] = a.Table(level, game.Street(s)).K()
	}
	return out
}
