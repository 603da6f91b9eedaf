package abstraction

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// KMeansResult is the outcome of a clustering run.
type KMeansResult struct {
	// Assign maps each point to its cluster.
	Assign    []int
	Centroids [][]float64
	// Inertia is the total point-to-centroid distance after each
	// iteration. It never increases.
	Inertia []float64
}

// Sizes returns the number of points in each cluster.
func (r KMeansResult) Sizes() []int {
	sizes := make([]int, len(r.Centroids))
	for _, c := range r.Assign {
		sizes[c]++
	}
	return sizes
}

// KMeans clusters points under L1 distance. Centroids start at distinct
// random points. Each iteration reassigns points to their nearest centroid
// (a tie keeps the current cluster), reseeds any empty cluster from a
// member of a larger one, and moves each centroid to its members' mean when
// that does not raise the cluster's cost. It stops after maxIter iterations
// or once no point changes cluster.
func KMeans(points [][]float64, k, maxIter int, rng *rand.Rand) (KMeansResult, error) {
	if k <= 0 {
		return KMeansResult{}, errors.New("k must be positive")
	}
	if len(points) < k {
		return KMeansResult{}, fmt.Errorf("cannot form %d clusters from %d points", k, len(points))
	}

	centroids := make([][]float64, k)
	for i, p := range rng.Perm(len(points))[:k] {
		centroids[i] = slices.Clone(points[p])
	}
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}
	res := KMeansResult{Assign: assign, Centroids: centroids}

	for iter := 0; iter < max(maxIter, 1); iter++ {
		changed := reassign(points, centroids, assign)
		changed += reseedEmpty(points, centroids, assign, rng)
		updateCentroids(points, centroids, assign)
		res.Inertia = append(res.Inertia, inertia(points, centroids, assign))
		if changed == 0 {
			break
		}
	}
	return res, nil
}

func reassign(points, centroids [][]float64, assign []int) int {
	changed := 0
	for i, p := range points {
		best, bestD := assign[i], -1.0
		if best >= 0 {
			bestD = Distance(p, centroids[best])
		}
		for c, centroid := range centroids {
			if d := Distance(p, centroid); bestD < 0 || d < bestD {
				best, bestD = c, d
			}
		}
		if best != assign[i] {
			assign[i] = best
			changed++
		}
	}
	return changed
}

// reseedEmpty moves a random point from a multi-member cluster into each
// empty cluster, placing the centroid on it.
func reseedEmpty(points, centroids [][]float64, assign []int, rng *rand.Rand) int {
	sizes := make([]int, len(centroids))
	for _, c := range assign {
		sizes[c]++
	}
	moved := 0
	for c := range centroids {
		if sizes[c] > 0 {
			continue
		}
		var donors []int
		for i, a := range assign {
			if sizes[a] > 1 {
				donors = append(donors, i)
			}
		}
		p := donors[rng.IntN(len(donors))]
		sizes[assign[p]]--
		assign[p] = c
		sizes[c]++
		centroids[c] = slices.Clone(points[p])
		moved++
	}
	return moved
}

func updateCentroids(points, centroids [][]float64, assign []int) {
	for c := range centroids {
		mean := make([]float64, len(centroids[c]))
		n := 0
		for i, a := range assign {
			if a == c {
				floats.Add(mean, points[i])
				n++
			}
		}
		if n == 0 {
			continue
		}
		floats.Scale(1/float64(n), mean)
		// The mean minimises squared, not absolute, distance.
		if clusterCost(points, mean, assign, c) <= clusterCost(points, centroids[c], assign, c) {
			centroids[c] = mean
		}
	}
}

func clusterCost(points [][]float64, centroid []float64, assign []int, c int) float64 {
	var cost float64
	for i, a := range assign {
		if a == c {
			cost += Distance(points[i], centroid)
		}
	}
	return cost
}

func inertia(points, centroids [][]float64, assign []int) float64 {
	var total float64
	for i, p := range points {
		total += Distance(p, centroids[assign[i]])
	}
	return total
}
