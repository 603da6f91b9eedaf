package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-cfr/internal/randutil"
	"github.com/lox/holdem-cfr/poker"
)

func fixedGame(t *testing.T, hole0, hole1, board string, opts ...Option) *Game {
	t.Helper()
	opts = append([]Option{WithCards(
		poker.MustParseCards(hole0),
		poker.MustParseCards(hole1),
		poker.MustParseCards(board),
	)}, opts...)
	g, err := New(DefaultRules(), opts...)
	require.NoError(t, err)
	return g
}

func TestNewPostsBlinds(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	assert.Equal(t, SmallBlindSeat, g.Turn())
	assert.Equal(t, Preflop, g.Street())
	assert.Equal(t, [2]int{3990, 3980}, g.Stacks())
	assert.Equal(t, 30, g.Pot())
	assert.Empty(t, g.Board())
	assert.False(t, g.Terminal())

	_, done := g.Utility()
	assert.False(t, done)
}

func TestNewRejectsBadDeals(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultRules())
	require.Error(t, err, "no card source")

	_, err = New(DefaultRules(), WithCards(
		poker.MustParseCards("AsAh"),
		poker.MustParseCards("AsKh"),
		poker.MustParseCards("2c7d9hJc3s"),
	))
	require.Error(t, err, "duplicate card")

	_, err = New(DefaultRules(), WithCards(
		poker.MustParseCards("AsAh"),
		poker.MustParseCards("KsKh"),
		poker.MustParseCards("2c7d9h"),
	))
	require.Error(t, err, "short board")

	_, err = New(Rules{SmallBlind: 20, BigBlind: 10, Stack: 100}, WithDeck(poker.NewDeck(randutil.New(1))))
	require.Error(t, err, "invalid rules")
}

func TestSmallBlindFoldsPreflop(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "7c2d", "AsAh", "2c7d9hJc3s")
	require.NoError(t, g.Play(g.LegalActions()[0]))

	require.True(t, g.Terminal())
	assert.Equal(t, SmallBlindSeat, g.Turn(), "folder keeps the turn")
	u, done := g.Utility()
	require.True(t, done)
	assert.Equal(t, [2]int{-10, 10}, u)
	assert.Nil(t, g.LegalActions())
	assert.ErrorIs(t, g.Play(Action{Kind: Call}), ErrHandComplete)
}

func TestLegalActionsLadder(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	legal := g.LegalActions()

	require.GreaterOrEqual(t, len(legal), 4)
	assert.Equal(t, Action{Kind: Fold, Pot: 30}, legal[0])
	assert.Equal(t, Action{Kind: Call, Amount: 10, Pot: 30}, legal[1])
	assert.Equal(t, Action{Kind: Raise, Amount: 30, Pot: 30}, legal[2])
	assert.Equal(t, Action{Kind: Raise, Amount: 50, Pot: 30}, legal[3])

	last := legal[len(legal)-1]
	assert.True(t, last.IsAllIn())
	assert.Equal(t, 3990, last.Amount)
	for i := 3; i < len(legal); i++ {
		assert.Equal(t, 20, legal[i].Amount-legal[i-1].Amount, "ladder steps by the big blind")
	}
}

func TestLegalActionsAllInBeyondLadder(t *testing.T) {
	t.Parallel()

	rules := Rules{SmallBlind: 10, BigBlind: 20, Stack: 105}
	g, err := New(rules, WithDeck(poker.NewDeck(randutil.New(3))))
	require.NoError(t, err)

	legal := g.LegalActions()
	// Stack 95 behind: raises of 30, 50, 70, 90 then all-in 95.
	amounts := make([]int, 0, len(legal))
	for _, a := range legal[2:] {
		amounts = append(amounts, a.Amount)
	}
	assert.Equal(t, []int{30, 50, 70, 90, 95}, amounts)
	assert.True(t, legal[len(legal)-1].IsAllIn())
	assert.False(t, legal[len(legal)-2].IsAllIn())
}

func TestMinimumRaiseFollowsLastIncrement(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	// SB raises to 60 total: an increment of 40 over the big blind.
	require.NoError(t, g.Play(Action{Kind: Raise, Amount: 50}))
	assert.Equal(t, BigBlindSeat, g.Turn())
	assert.False(t, g.Terminal())

	legal := g.LegalActions()
	require.GreaterOrEqual(t, len(legal), 3)
	assert.Equal(t, 40, legal[1].Amount, "call")
	assert.Equal(t, 80, legal[2].Amount, "re-raise to 100 total")
}

func TestPlayRejectsInvalidActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action Action
	}{
		{"zero kind", Action{Amount: 80}},
		{"unknown kind", Action{Kind: ActionKind(9), Amount: 80}},
		{"raise below minimum", Action{Kind: Raise, Amount: 60}},
		{"raise below call", Action{Kind: Raise, Amount: 10}},
		{"raise equal to call", Action{Kind: Raise, Amount: 40}},
		{"raise above stack", Action{Kind: Raise, Amount: 5000}},
		{"call short", Action{Kind: Call, Amount: 20}},
		{"call over", Action{Kind: Call, Amount: 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
			require.NoError(t, g.Play(Action{Kind: Raise, Amount: 50}))
			before := g.State()

			err := g.Play(tt.action)
			require.ErrorIs(t, err, ErrInvalidAction)
			assert.Equal(t, before, g.State(), "rejected actions leave the hand untouched")
			assert.False(t, g.Terminal())
		})
	}
}

func TestPlayAcceptsBoundaryRaises(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	require.NoError(t, g.Play(Action{Kind: Raise, Amount: 50}))

	minRaise := g.Clone()
	require.NoError(t, minRaise.Play(Action{Kind: Raise, Amount: 80}))
	assert.Equal(t, 40, minRaise.State().LastIncrement)

	shove := g.Clone()
	require.NoError(t, shove.Play(Action{Kind: Raise, Amount: 3980}))
	assert.True(t, shove.History()[1].IsAllIn())
}

func TestPlayAfterHandComplete(t *testing.T) {
	t.Parallel()

	folded := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	require.NoError(t, folded.Play(Action{Kind: Fold}))
	require.True(t, folded.Terminal())
	require.ErrorIs(t, folded.Play(Action{Kind: Call}), ErrHandComplete)
	require.ErrorIs(t, folded.Play(Action{Kind: Fold}), ErrHandComplete)
	assert.Len(t, folded.History(), 1)
	assert.Nil(t, folded.LegalActions())

	shown := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	require.NoError(t, shown.Play(Action{Kind: Raise, Amount: 3990}))
	require.NoError(t, shown.Play(Action{Kind: Call, Amount: 3980}))
	require.Equal(t, Showdown, shown.Street())
	require.ErrorIs(t, shown.Play(Action{Kind: Raise, Amount: 20}), ErrHandComplete)
}

func TestCheckedRoundAdvancesStreet(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	require.NoError(t, g.Play(g.LegalActions()[1])) // SB completes
	assert.Equal(t, Preflop, g.Street(), "big blind keeps the option")
	assert.Equal(t, BigBlindSeat, g.Turn())

	legal := g.LegalActions()
	require.True(t, legal[1].IsCheck())
	require.NoError(t, g.Play(legal[1]))

	assert.Equal(t, Flop, g.Street())
	assert.Equal(t, SmallBlindSeat, g.Turn())
	assert.Equal(t, poker.MustParseCards("2c7d9h"), g.Board())
	assert.Empty(t, g.Labels())
	assert.Equal(t, 40, g.Pot())

	// Postflop the first increment is the big blind again.
	assert.Equal(t, 20, g.LegalActions()[2].Amount)

	for _, want := range []Street{Turn, River, Showdown} {
		require.NoError(t, g.Play(g.LegalActions()[1]))
		require.NoError(t, g.Play(g.LegalActions()[1]))
		assert.Equal(t, want, g.Street())
	}
	u, done := g.Utility()
	require.True(t, done)
	assert.Equal(t, [2]int{20, -20}, u)
}

func TestAllInPreflopIsDeterministic(t *testing.T) {
	t.Parallel()

	play := func() ([2]int, poker.Outcome) {
		g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
		legal := g.LegalActions()
		require.NoError(t, g.Play(legal[len(legal)-1]))
		legal = g.LegalActions()
		require.Len(t, legal, 2, "facing an all-in only fold and call remain")
		require.True(t, legal[1].IsAllIn(), "calling an all-in commits the stack")
		require.NoError(t, g.Play(legal[1]))
		require.Equal(t, Showdown, g.Street())

		u, done := g.Utility()
		require.True(t, done)
		return u, poker.CompareHands(poker.Direct{}, poker.MustParseCards("2c7d9hJc3s"), g.Hole(0), g.Hole(1))
	}

	u1, o1 := play()
	u2, o2 := play()
	assert.Equal(t, [2]int{4000, -4000}, u1)
	assert.Equal(t, poker.WinA, o1)
	assert.Equal(t, u1, u2)
	assert.Equal(t, o1, o2)
}

func TestSeededDealIsReproducible(t *testing.T) {
	t.Parallel()

	deal := func() *Game {
		g, err := New(DefaultRules(), WithDeck(poker.NewDeck(randutil.New(77))))
		require.NoError(t, err)
		return g
	}
	a, b := deal(), deal()
	assert.Equal(t, a.Hole(0), b.Hole(0))
	assert.Equal(t, a.Hole(1), b.Hole(1))
	assert.Equal(t, a.FullBoard(), b.FullBoard())
}

func TestTieSplitsPot(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "2c3d", "2h3s", "AsKdQhJcTs")
	for !g.Terminal() {
		require.NoError(t, g.Play(g.LegalActions()[1]))
	}
	u, done := g.Utility()
	require.True(t, done)
	assert.Equal(t, [2]int{0, 0}, u)
}

func TestChipsConservedOverRandomPlay(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	for seed := range int64(300) {
		rng := randutil.New(seed)
		g, err := New(rules, WithDeck(poker.NewDeck(rng)))
		require.NoError(t, err)

		for !g.Terminal() {
			legal := g.LegalActions()
			require.NotEmpty(t, legal)
			// Folding rarely keeps most hands going to later streets.
			i := 1 + rng.IntN(len(legal)-1)
			if rng.IntN(20) == 0 {
				i = 0
			}
			require.NoError(t, g.Play(legal[i]))

			s := g.Stacks()
			require.Equal(t, 2*rules.Stack, s[0]+s[1]+g.Pot(), "seed %d", seed)
			require.GreaterOrEqual(t, s[0], 0)
			require.GreaterOrEqual(t, s[1], 0)
		}
		u, done := g.Utility()
		require.True(t, done)
		assert.Zero(t, u[0]+u[1], "seed %d", seed)
	}
}

func TestClonesAreIndependent(t *testing.T) {
	t.Parallel()

	g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s")
	require.NoError(t, g.Play(Action{Kind: Raise, Amount: 50}))

	c := g.Clone()
	require.NoError(t, c.Play(c.LegalActions()[0]))

	assert.True(t, c.Terminal())
	assert.False(t, g.Terminal())
	assert.Len(t, g.History(), 1)
	assert.Len(t, c.History(), 2)
	assert.Len(t, g.Labels(), 1)
	assert.Equal(t, BigBlindSeat, g.State().Seat)
}

func TestPolicyLabelsStreetHistory(t *testing.T) {
	t.Parallel()

	policy := ActionPolicyFunc(func(a Action) string { return a.String() })
	g := fixedGame(t, "AsAh", "KsKh", "2c7d9hJc3s", WithPolicy(policy))

	require.NoError(t, g.Play(Action{Kind: Raise, Amount: 50}))
	require.NoError(t, g.Play(Action{Kind: Call, Amount: 40}))
	assert.Equal(t, Flop, g.Street())
	assert.Empty(t, g.Labels())

	require.NoError(t, g.Play(Action{Kind: Call}))
	assert.Equal(t, []string{"check"}, g.Labels())

	st := g.State()
	assert.Equal(t, BigBlindSeat, st.Seat)
	assert.Equal(t, poker.MustParseCards("KsKh"), st.Hole[:])
	assert.Len(t, st.History, 3)
	assert.Len(t, st.StreetHistory, 1)
}

func TestActionHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action Action
		str    string
		check  bool
		prop   float64
	}{
		{Action{Kind: Fold, Pot: 30}, "fold", false, 0},
		{Action{Kind: Call, Pot: 40}, "check", true, 0},
		{Action{Kind: Call, Amount: 10, Pot: 30}, "call 10", false, 1.0 / 3},
		{Action{Kind: Raise, Amount: 60, Pot: 30}, "raise 60", false, 2},
		{Action{Kind: Raise, Amount: 3990, Pot: 30, AllIn: true}, "all-in 3990", false, 133},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.str, tt.action.String())
			assert.Equal(t, tt.check, tt.action.IsCheck())
			assert.InDelta(t, tt.prop, tt.action.Proportion(), 1e-9)
		})
	}
}

func TestParseStreet(t *testing.T) {
	t.Parallel()

	for s := Preflop; s <= Showdown; s++ {
		got, err := ParseStreet(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStreet("fourth")
	require.Error(t, err)
}
