package abstraction

import (
	rand "math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/lox/holdem-cfr/poker"
)

// EquityStats summarises a Monte Carlo equity estimate.
type EquityStats struct {
	Mean    float64
	StdErr  float64
	Samples int
}

// sampler draws opponent holdings and board completions from the cards not
// yet in use. It reuses its buffers and is not safe for concurrent use.
type sampler struct {
	ev      poker.Evaluator
	hole    []poker.Card
	board   []poker.Card
	avail   []poker.Card
	hero    [poker.MaxHashCards]poker.Card
	villain [poker.MaxHashCards]poker.Card
}

func newSampler(ev poker.Evaluator, hole, board []poker.Card) *sampler {
	used := poker.NewCardSet(hole...)
	for _, c := range board {
		used.Add(c)
	}
	return &sampler{
		ev:    ev,
		hole:  hole,
		board: board,
		avail: used.Complement().Cards(),
	}
}

// showdown returns the hero's result against opp on a board completed with
// random cards drawn from avail excluding opp: 1 win, 0.5 tie, 0 loss.
// The first `fixed` entries of avail are reserved and never drawn.
func (s *sampler) showdown(opp []poker.Card, fixed int, rng *rand.Rand) float64 {
	need := 5 - len(s.board)
	pool := s.avail[fixed:]
	for i := 0; i < need; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	n := copy(s.hero[:], s.hole)
	n += copy(s.hero[n:], s.board)
	copy(s.hero[n:], pool[:need])
	m := copy(s.villain[:], opp)
	m += copy(s.villain[m:], s.board)
	copy(s.villain[m:], pool[:need])

	total := len(s.hole) + len(s.board) + need
	hv := s.ev.Evaluate(s.hero[:total])
	vv := s.ev.Evaluate(s.villain[:total])
	switch {
	case hv > vv:
		return 1
	case hv == vv:
		return 0.5
	default:
		return 0
	}
}

// randomOpponent moves two random available cards to the front of avail
// and returns them.
func (s *sampler) randomOpponent(rng *rand.Rand) []poker.Card {
	for i := range 2 {
		j := i + rng.IntN(len(s.avail)-i)
		s.avail[i], s.avail[j] = s.avail[j], s.avail[i]
	}
	return s.avail[:2]
}

// EstimateEquity runs samples showdowns against a uniformly random opponent
// holding with a random board completion. Ties count half.
func EstimateEquity(ev poker.Evaluator, hole, board []poker.Card, samples int, rng *rand.Rand) EquityStats {
	if samples <= 0 || len(hole) != 2 || len(board) > 5 {
		return EquityStats{}
	}
	s := newSampler(ev, hole, board)
	results := make([]float64, samples)
	for i := range results {
		opp := s.randomOpponent(rng)
		var pair [2]poker.Card
		copy(pair[:], opp)
		results[i] = s.showdown(pair[:], 2, rng)
	}
	mean, std := stat.MeanStdDev(results, nil)
	if samples == 1 {
		std = 0
	}
	return EquityStats{Mean: mean, StdErr: stat.StdErr(std, float64(samples)), Samples: samples}
}

// Equity is the mean of EstimateEquity.
func Equity(ev poker.Evaluator, hole, board []poker.Card, samples int, rng *rand.Rand) float64 {
	return EstimateEquity(ev, hole, board, samples, rng).Mean
}

// DistributionOptions controls EquityDistribution.
type DistributionOptions struct {
	// Bins is the histogram resolution over [0, 1].
	Bins int
	// Opponents is how many opponent holdings to sample; 0 enumerates all.
	Opponents int
	// Samples is the number of board completions per opponent holding.
	Samples int
}

// EquityDistribution returns the normalised histogram of the hand's equity
// against each opponent holding. Equity 1 falls in the last bin.
func EquityDistribution(ev poker.Evaluator, hole, board []poker.Card, opts DistributionOptions, rng *rand.Rand) []float64 {
	hist := make([]float64, max(opts.Bins, 1))
	s := newSampler(ev, hole, board)
	samples := max(opts.Samples, 1)
	if len(board) == 5 {
		// Nothing left to deal: one showdown is exact.
		samples = 1
	}

	add := func(opp []poker.Card) {
		var pair [2]poker.Card
		copy(pair[:], opp)
		var won float64
		for range samples {
			won += s.showdown(pair[:], 2, rng)
		}
		hist[binOf(won/float64(samples), len(hist))]++
	}

	if opts.Opponents <= 0 {
		all := append([]poker.Card(nil), s.avail...)
		poker.Combinations(all, 2, func(opp []poker.Card) bool {
			// Keep the opponent's cards out of the completion pool.
			moveToFront(s.avail, opp)
			add(opp)
			return true
		})
	} else {
		for range opts.Opponents {
			add(s.randomOpponent(rng))
		}
	}
	normalise(hist)
	return hist
}

func moveToFront(cards []poker.Card, front []poker.Card) {
	for i, c := range front {
		for j := i; j < len(cards); j++ {
			if cards[j] == c {
				cards[i], cards[j] = cards[j], cards[i]
				break
			}
		}
	}
}

func binOf(equity float64, bins int) int {
	b := int(equity * float64(bins))
	return min(max(b, 0), bins-1)
}

func normalise(hist []float64) {
	if total := floats.Sum(hist); total > 0 {
		floats.Scale(1/total, hist)
	}
}
