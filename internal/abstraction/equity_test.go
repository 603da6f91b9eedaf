package abstraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/lox/holdem-cfr/internal/randutil"
	"github.com/lox/holdem-cfr/poker"
)

func TestEquityPreflop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hole string
		want float64
	}{
		{"AsAh", 0.85},
		{"KsKh", 0.82},
		{"7c2d", 0.35},
		{"AsKs", 0.67},
	}
	for _, tt := range tests {
		t.Run(tt.hole, func(t *testing.T) {
			t.Parallel()
			stats := EstimateEquity(poker.Direct{}, poker.MustParseCards(tt.hole), nil, 4000, randutil.New(1))
			assert.InDelta(t, tt.want, stats.Mean, 0.03)
			assert.Positive(t, stats.StdErr)
			assert.Less(t, stats.StdErr, 0.01)
			assert.Equal(t, 4000, stats.Samples)
		})
	}
}

func TestEquityLockedHands(t *testing.T) {
	t.Parallel()

	ev := poker.Direct{}
	royal := Equity(ev, poker.MustParseCards("AhKh"), poker.MustParseCards("QhJhTh2c3d"), 200, randutil.New(2))
	assert.Equal(t, 1.0, royal)

	// The board is a royal flush: everyone splits.
	board := Equity(ev, poker.MustParseCards("2c3d"), poker.MustParseCards("AsKsQsJsTs"), 200, randutil.New(2))
	assert.Equal(t, 0.5, board)
}

func TestEstimateEquityRejectsBadInput(t *testing.T) {
	t.Parallel()

	assert.Zero(t, EstimateEquity(poker.Direct{}, poker.MustParseCards("As"), nil, 10, randutil.New(1)))
	assert.Zero(t, EstimateEquity(poker.Direct{}, poker.MustParseCards("AsAh"), nil, 0, randutil.New(1)))
}

func TestEquityDistribution(t *testing.T) {
	t.Parallel()

	ev := poker.Direct{}
	opts := DistributionOptions{Bins: 10, Opponents: 50, Samples: 10}

	hist := EquityDistribution(ev, poker.MustParseCards("AsAh"), nil, opts, randutil.New(3))
	require.Len(t, hist, 10)
	assert.InDelta(t, 1.0, floats.Sum(hist), 1e-9)
	for _, v := range hist {
		assert.GreaterOrEqual(t, v, 0.0)
	}

	// A strong pair concentrates in the upper half, a weak hand lower.
	weak := EquityDistribution(ev, poker.MustParseCards("7c2d"), nil, opts, randutil.New(3))
	assert.Greater(t, floats.Sum(hist[5:]), floats.Sum(weak[5:]))
}

func TestEquityDistributionEnumeratesRiver(t *testing.T) {
	t.Parallel()

	opts := DistributionOptions{Bins: 5}
	hist := EquityDistribution(poker.Direct{}, poker.MustParseCards("AhKh"), poker.MustParseCards("QhJhTh2c3d"), opts, randutil.New(4))
	assert.Equal(t, []float64{0, 0, 0, 0, 1}, hist, "a lock lands in the last bin")

	a := EquityDistribution(poker.Direct{}, poker.MustParseCards("9s9d"), poker.MustParseCards("2c7d9hJc3s"), opts, randutil.New(5))
	b := EquityDistribution(poker.Direct{}, poker.MustParseCards("9s9d"), poker.MustParseCards("2c7d9hJc3s"), opts, randutil.New(6))
	assert.Equal(t, a, b, "enumeration on a complete board is exact")
}

func TestBinOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, binOf(0, 10))
	assert.Equal(t, 4, binOf(0.45, 10))
	assert.Equal(t, 9, binOf(0.99, 10))
	assert.Equal(t, 9, binOf(1, 10))
}

func TestRelabelAvoidsBoard(t *testing.T) {
	t.Parallel()

	board := poker.MustParseCards("AsKs2c")
	hole, ok := relabel(poker.MustParseCards("AsKs"), board)
	require.True(t, ok)
	assert.Equal(t, poker.HashCards(poker.MustParseCards("AsKs")), poker.HashCards(hole))
	taken := poker.NewCardSet(board...)
	for _, c := range hole {
		assert.False(t, taken.Contains(c))
	}

	_, ok = relabel(poker.MustParseCards("AsAh"), poker.MustParseCards("AcAdAh"))
	assert.False(t, ok)
}
