package solver

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"iter"
	rand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kuhnSpace is Kuhn poker: three cards (0 = jack, 1 = queen, 2 = king),
// one chip ante, one-chip bets, actions pass (0) and bet (1).
type kuhnSpace struct{}

var kuhnHistories = [][]string{
	{""},
	{"p", "b"},
	{"pp", "pb", "bp", "bb"},
	{"pbp", "pbb"},
}

func kuhnTerminal(h string) bool {
	switch h {
	case "pp", "bp", "bb", "pbp", "pbb":
		return true
	}
	return false
}

func (kuhnSpace) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, group := range kuhnHistories {
			for _, h := range group {
				if kuhnTerminal(h) {
					for c0 := range 3 {
						for c1 := range 3 {
							if c0 != c1 && !yield(Entry{Key: kuhnTerminalKey([2]int{c0, c1}, h), Terminal: true}) {
								return
							}
						}
					}
					continue
				}
				for c := range 3 {
					if !yield(Entry{Key: fmt.Sprintf("%d:%s", c, h), Actions: 2}) {
						return
					}
				}
			}
		}
	}
}

func (kuhnSpace) Deal(rng *rand.Rand) (State, error) {
	perm := rng.Perm(3)
	return &kuhnState{cards: [2]int{perm[0], perm[1]}}, nil
}

func kuhnTerminalKey(cards [2]int, h string) string {
	return fmt.Sprintf("T%d%d:%s", cards[0], cards[1], h)
}

type kuhnState struct {
	cards   [2]int
	history string
}

func (s *kuhnState) Key() string {
	if s.Terminal() {
		return kuhnTerminalKey(s.cards, s.history)
	}
	return fmt.Sprintf("%d:%s", s.cards[s.Actor()], s.history)
}

func (s *kuhnState) Actor() int      { return len(s.history) % 2 }
func (s *kuhnState) Terminal() bool  { return kuhnTerminal(s.history) }
func (s *kuhnState) NumActions() int { return 2 }

func (s *kuhnState) Utility() float64 {
	showdown := 1.0
	if s.cards[0] < s.cards[1] {
		showdown = -1
	}
	var first float64
	switch s.history {
	case "pp":
		first = showdown
	case "bp":
		first = 1
	case "pbp":
		first = -1
	default:
		first = 2 * showdown
	}
	if s.Actor() == 0 {
		return first
	}
	return -first
}

func (s *kuhnState) Child(i int) (State, error) {
	return &kuhnState{cards: s.cards, history: s.history + string("pb"[i])}, nil
}

func TestKuhnConvergesToEquilibrium(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("convergence run skipped in short mode")
	}

	cfg := DefaultConfig()
	cfg.Iterations = 100000
	cfg.Seed = 3
	trainer, err := NewTrainer(cfg, kuhnSpace{})
	require.NoError(t, err)
	require.NoError(t, trainer.Run(context.Background(), nil))

	bet := func(key string) float64 {
		node, ok := trainer.Nodes().Get(key)
		require.True(t, ok, key)
		return node.AverageStrategy()[1]
	}

	// The second player's equilibrium strategy is unique.
	assert.Greater(t, bet("2:b"), 0.9, "king calls a bet")
	assert.Less(t, bet("0:b"), 0.1, "jack folds to a bet")
	assert.InDelta(t, 1.0/3.0, bet("1:b"), 0.1, "queen calls a third of the time")
	assert.InDelta(t, 1.0/3.0, bet("0:p"), 0.1, "jack bluffs a third of the time after a check")
	assert.Greater(t, bet("2:p"), 0.9, "king bets after a check")

	// The first player mixes along a one-parameter family: a jack bluffs
	// with alpha <= 1/3 and a king bets with 3*alpha.
	alpha := bet("0:")
	assert.LessOrEqual(t, alpha, 1.0/3.0+0.1)
	assert.InDelta(t, 3*alpha, bet("2:"), 0.2)
	assert.Less(t, bet("1:"), 0.1, "queen checks")
}

func TestSweepStrategiesStayDistributions(t *testing.T) {
	t.Parallel()

	nodes, err := NewNodes(kuhnSpace{})
	require.NoError(t, err)
	assert.Equal(t, 4*3+5*6, nodes.Len(), "four decision histories per card, five terminal histories per deal")

	rng := rand.New(rand.NewPCG(1, 2))
	for range 300 {
		root, err := kuhnSpace{}.Deal(rng)
		require.NoError(t, err)
		stats, err := sweep(nodes, root)
		require.NoError(t, err)
		assert.Equal(t, 9, stats.Visited, "a deal reaches four decisions and five terminals")
		assert.Equal(t, 5, stats.Terminal)

		for _, n := range nodes.All() {
			assert.Equal(t, [2]float64{}, n.Reach, "reach resets after the backward pass")
			if n.Terminal {
				continue
			}
			sum := 0.0
			for _, p := range n.Strategy() {
				assert.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		}
	}
}

func TestSweepUtilities(t *testing.T) {
	t.Parallel()

	nodes, err := NewNodes(kuhnSpace{})
	require.NoError(t, err)
	root := &kuhnState{cards: [2]int{2, 0}}
	_, err = sweep(nodes, root)
	require.NoError(t, err)

	// Uniform play with a king against a jack: the king never loses.
	node, _ := nodes.Get("2:")
	assert.Positive(t, node.Util)

	// Facing a bet the king folds for -1 or calls for +2.
	facing, _ := nodes.Get("2:pb")
	assert.InDelta(t, 0.5, facing.Util, 1e-12)
	terminal, _ := nodes.Get(kuhnTerminalKey(root.cards, "pbp"))
	assert.Zero(t, terminal.Util, "terminal payoffs are read from the state")
}

// sharedTerminalSpace has one decision whose two actions end the hand in
// states sharing a key but paying differently.
type sharedTerminalSpace struct{}

func (sharedTerminalSpace) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if yield(Entry{Key: "root", Actions: 2}) {
			yield(Entry{Key: "end", Terminal: true})
		}
	}
}

func (sharedTerminalSpace) Deal(*rand.Rand) (State, error) { return sharedTerminalState{action: -1}, nil }

type sharedTerminalState struct{ action int }

func (s sharedTerminalState) Key() string {
	if s.Terminal() {
		return "end"
	}
	return "root"
}

func (s sharedTerminalState) Actor() int      { return 0 }
func (s sharedTerminalState) Terminal() bool  { return s.action >= 0 }
func (s sharedTerminalState) NumActions() int { return 2 }

func (s sharedTerminalState) Utility() float64 {
	return []float64{1, -3}[s.action]
}

func (s sharedTerminalState) Child(i int) (State, error) {
	return sharedTerminalState{action: i}, nil
}

func TestSweepScoresEachTerminalState(t *testing.T) {
	t.Parallel()

	nodes, err := NewNodes(sharedTerminalSpace{})
	require.NoError(t, err)
	root, err := sharedTerminalSpace{}.Deal(nil)
	require.NoError(t, err)

	stats, err := sweep(nodes, root)
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Visited: 3, Terminal: 2}, stats)

	node, _ := nodes.Get("root")
	assert.InDelta(t, -1.0, node.Util, 1e-12, "uniform over +1 and -3")
	assert.InDeltaSlice(t, []float64{2, -2}, node.RegretSum, 1e-12)
	assert.Equal(t, []float64{1, 0}, node.Strategy())
}

// partialSpace drops the entries of one history.
type partialSpace struct {
	kuhnSpace
	drop string
}

func (p partialSpace) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for e := range p.kuhnSpace.Entries() {
			if len(e.Key) >= len(p.drop) && e.Key[len(e.Key)-len(p.drop):] == p.drop {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func TestSweepReportsMissingInfosets(t *testing.T) {
	t.Parallel()

	nodes, err := NewNodes(partialSpace{drop: ":pbb"})
	require.NoError(t, err)
	_, err = sweep(nodes, &kuhnState{cards: [2]int{0, 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotEnumerated))
}

// reversedSpace lists the entries backwards.
type reversedSpace struct{ kuhnSpace }

func (r reversedSpace) Entries() iter.Seq[Entry] {
	var all []Entry
	for e := range r.kuhnSpace.Entries() {
		all = append(all, e)
	}
	return func(yield func(Entry) bool) {
		for i := len(all) - 1; i >= 0; i-- {
			if !yield(all[i]) {
				return
			}
		}
	}
}

func TestSweepRejectsOrderViolations(t *testing.T) {
	t.Parallel()

	nodes, err := NewNodes(reversedSpace{})
	require.NoError(t, err)
	_, err = sweep(nodes, &kuhnState{cards: [2]int{0, 1}})
	require.ErrorContains(t, err, "precedes it")
}

func TestIndexHeapPopsInOrder(t *testing.T) {
	t.Parallel()

	h := &indexHeap{}
	for _, v := range []int{5, 1, 9, 3, 7} {
		heap.Push(h, v)
	}
	var got []int
	for h.Len() > 0 {
		got = append(got, heap.Pop(h).(int))
	}
	assert.Equal(t, []int{1, 3, 5, 7, 9}, got)
}
