package abstraction

import (
	"gonum.org/v1/gonum/floats"

	"github.com/lox/holdem-cfr/poker"
)

// Level separates private (hole plus board) from public (board only)
// abstractions.
type Level uint8

const (
	Private Level = iota
	Public
)

func (l Level) String() string {
	if l == Public {
		return "public"
	}
	return "private"
}

// Fingerprint is an equity histogram together with the cards it was
// computed for. Key is the canonical hash of those cards.
type Fingerprint struct {
	Key   uint64
	Hole  []poker.Card
	Board []poker.Card
	Hist  []float64
}

// Distance is the L1 distance between two histograms. Bins are ordered by
// equity, so this approximates the earth mover's distance.
func Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Nearest returns the index of the centroid closest to hist, preferring the
// lowest index on ties.
func Nearest(centroids [][]float64, hist []float64) int {
	best, bestD := 0, -1.0
	for i, c := range centroids {
		if d := Distance(c, hist); bestD < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// privateKey and publicKey address the cluster tables.
func privateKey(hole, board []poker.Card) uint64 { return poker.HashDeal(hole, board) }
func publicKey(board []poker.Card) uint64        { return poker.HashCards(board) }
