package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/poker"
)

func newTestGame(t *testing.T, rules game.Rules, opts ...game.Option) *game.Game {
	t.Helper()
	opts = append([]game.Option{game.WithCards(
		poker.MustParseCards("AsAh"),
		poker.MustParseCards("KsKh"),
		poker.MustParseCards("2c7d9hJc3s"),
	)}, opts...)
	g, err := game.New(rules, opts...)
	require.NoError(t, err)
	return g
}

func TestActionCodes(t *testing.T) {
	t.Parallel()

	ladder := NewActionLadder([]float64{0.5, 1, 2}, 2)
	var codes []string
	for _, a := range ladder.Actions() {
		codes = append(codes, a.Code())
	}
	assert.Equal(t, []string{"f", "c", "r50", "r100", "r200", "a"}, codes)
	assert.Equal(t, "r33", AbstractAction{Kind: AbstractRaise, Fraction: 0.333}.String())
}

func TestLadderMenuNarrowsAtDepth(t *testing.T) {
	t.Parallel()

	ladder := NewActionLadder([]float64{1}, 2)
	assert.Len(t, ladder.Menu(0), 4)
	assert.Len(t, ladder.Menu(1), 4)
	assert.Equal(t, ladder.LimitMenu(), ladder.Menu(2))
	assert.Equal(t, ladder.LimitMenu(), ladder.Menu(5))
	assert.Equal(t, []AbstractAction{{Kind: AbstractFold}, {Kind: AbstractCall}}, ladder.LimitMenu())
}

func TestToConcreteMapsOntoLegalActions(t *testing.T) {
	t.Parallel()

	ladder := NewActionLadder([]float64{0.5, 1, 2}, 1)
	g := newTestGame(t, game.DefaultRules())
	legal := g.LegalActions()

	tests := []struct {
		name   string
		action AbstractAction
		want   game.Action
	}{
		{"fold", AbstractAction{Kind: AbstractFold}, legal[0]},
		{"call", AbstractAction{Kind: AbstractCall}, legal[1]},
		{"half pot rounds up to the minimum raise", AbstractAction{Kind: AbstractRaise, Fraction: 0.5}, legal[2]},
		{"pot", AbstractAction{Kind: AbstractRaise, Fraction: 1}, legal[2]},
		{"all-in", AbstractAction{Kind: AbstractAllIn}, legal[len(legal)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ladder.ToConcrete(tt.action, legal))
		})
	}
	assert.Equal(t, 30, legal[2].Amount)
	assert.True(t, legal[len(legal)-1].IsAllIn())
}

func TestToConcreteFallsBackToCallFacingAllIn(t *testing.T) {
	t.Parallel()

	ladder := NewActionLadder([]float64{1}, 1)
	g := newTestGame(t, game.DefaultRules())
	legal := g.LegalActions()
	require.NoError(t, g.Play(ladder.ToConcrete(AbstractAction{Kind: AbstractAllIn}, legal)))

	legal = g.LegalActions()
	require.Len(t, legal, 2)
	assert.Equal(t, legal[1], ladder.ToConcrete(AbstractAction{Kind: AbstractRaise, Fraction: 1}, legal))
	assert.Equal(t, legal[1], ladder.ToConcrete(AbstractAction{Kind: AbstractAllIn}, legal))
}

func TestAbstractPicksNearestRung(t *testing.T) {
	t.Parallel()

	ladder := NewActionLadder([]float64{0.5, 1, 2}, 1)
	tests := []struct {
		name   string
		action game.Action
		want   string
	}{
		{"fold", game.Action{Kind: game.Fold, Pot: 30}, "f"},
		{"check", game.Action{Kind: game.Call, Pot: 40}, "c"},
		{"call", game.Action{Kind: game.Call, Amount: 10, Pot: 30}, "c"},
		{"all-in call", game.Action{Kind: game.Call, Amount: 3980, Pot: 4020, AllIn: true}, "c"},
		{"all-in raise", game.Action{Kind: game.Raise, Amount: 3990, Pot: 30, AllIn: true}, "a"},
		{"min raise", game.Action{Kind: game.Raise, Amount: 30, Pot: 30}, "r100"},
		{"small bet", game.Action{Kind: game.Raise, Amount: 20, Pot: 60}, "r50"},
		{"overbet", game.Action{Kind: game.Raise, Amount: 500, Pot: 100}, "r200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ladder.Label(tt.action))
		})
	}
}

func TestLadderLabelsGameHistory(t *testing.T) {
	t.Parallel()

	ladder := NewActionLadder([]float64{0.5, 1, 2}, 1)
	g := newTestGame(t, game.DefaultRules(), game.WithPolicy(ladder))

	require.NoError(t, g.Play(ladder.ToConcrete(AbstractAction{Kind: AbstractRaise, Fraction: 1}, g.LegalActions())))
	require.NoError(t, g.Play(ladder.ToConcrete(AbstractAction{Kind: AbstractRaise, Fraction: 0.5}, g.LegalActions())))
	assert.Equal(t, []string{"r100", "r50"}, g.Labels(), "a 40 chip raise into 60 is nearest the half pot rung")
}
