package game

import (
	"fmt"
	"slices"

	"github.com/lox/holdem-cfr/poker"
)

// Game is the state of a single heads-up hand. It is not safe for
// concurrent use; Clone it to explore alternatives.
type Game struct {
	rules  Rules
	eval   poker.Evaluator
	policy ActionPolicy

	hole  [2][2]poker.Card
	board [5]poker.Card

	turn          int
	street        Street
	folded        bool
	stacks        [2]int
	pot           int
	raise         int // highest commitment this round
	raised        [2]int
	checked       [2]bool
	lastIncrement int

	history       []Action
	streetHistory []Action
	labels        []string
}

// New deals a hand and posts the blinds.
func New(rules Rules, opts ...Option) (*Game, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	cfg := &gameConfig{eval: poker.Direct{}, policy: kindPolicy}
	for _, opt := range opts {
		opt(cfg)
	}
	cards, err := cfg.dealtCards()
	if err != nil {
		return nil, fmt.Errorf("deal: %w", err)
	}

	g := &Game{
		rules:  rules,
		eval:   cfg.eval,
		policy: cfg.policy,
		turn:   SmallBlindSeat,
		stacks: [2]int{rules.Stack - rules.SmallBlind, rules.Stack - rules.BigBlind},
		pot:    rules.SmallBlind + rules.BigBlind,
		raise:  rules.BigBlind,
		raised: [2]int{rules.SmallBlind, rules.BigBlind},
		// The blind itself sets the preflop minimum raise.
		lastIncrement: rules.BigBlind,
	}
	copy(g.hole[0][:], cards[0:2])
	copy(g.hole[1][:], cards[2:4])
	copy(g.board[:], cards[4:9])
	return g, nil
}

// Play applies an action for the acting seat. Only Kind and Amount are
// read; Pot and AllIn are recomputed. A call must move exactly the amount
// to call and a raise must move more; the zero Kind is rejected.
func (g *Game) Play(a Action) error {
	if g.Terminal() {
		return ErrHandComplete
	}
	a, err := g.validate(a)
	if err != nil {
		return err
	}
	g.record(a)

	// The folder keeps the turn so Utility can identify them.
	if a.IsFold() {
		g.folded = true
		return nil
	}

	me, opp := g.turn, 1-g.turn
	g.pot += a.Amount
	g.stacks[me] -= a.Amount

	if a.Kind == Raise {
		g.checked[me] = true
		g.checked[opp] = false
		g.lastIncrement = a.Amount + g.raised[me] - g.raise
		g.raised[me] += a.Amount
		g.raise = g.raised[me]
		g.turn = opp
		return nil
	}

	g.raised[me] += a.Amount
	g.checked[me] = true
	if !g.checked[opp] {
		g.turn = opp
		return nil
	}
	g.endRound()
	return nil
}

func (g *Game) record(a Action) {
	g.history = append(g.history, a)
	g.streetHistory = append(g.streetHistory, a)
	g.labels = append(g.labels, g.policy.Label(a))
}

// endRound advances to the next street, or straight to showdown once both
// stacks are committed.
func (g *Game) endRound() {
	if g.stacks[0] == 0 && g.stacks[1] == 0 {
		g.street = Showdown
	} else {
		g.street++
	}
	g.turn = SmallBlindSeat
	g.raise = 0
	g.raised = [2]int{}
	g.checked = [2]bool{}
	g.lastIncrement = 0
	g.streetHistory = nil
	g.labels = nil
}

// Terminal reports whether the hand has ended by fold or showdown.
func (g *Game) Terminal() bool {
	return g.folded || g.street == Showdown
}

// Utility returns each seat's chip delta relative to the starting stack, or
// false while the hand is still in play. The deltas always sum to zero.
func (g *Game) Utility() ([2]int, bool) {
	if !g.Terminal() {
		return [2]int{}, false
	}
	var share [2]int
	switch {
	case g.folded:
		share[1-g.turn] = g.pot
	default:
		switch poker.CompareHands(g.eval, g.board[:], g.hole[0], g.hole[1]) {
		case poker.WinA:
			share[0] = g.pot
		case poker.WinB:
			share[1] = g.pot
		default:
			share[0] = g.pot / 2
			share[1] = g.pot - share[0]
		}
	}
	return [2]int{
		g.stacks[0] + share[0] - g.rules.Stack,
		g.stacks[1] + share[1] - g.rules.Stack,
	}, true
}

// Turn returns the acting seat. After a fold it is the folder.
func (g *Game) Turn() int { return g.turn }

// Street returns the current street.
func (g *Game) Street() Street { return g.street }

// Rules returns the rules the hand is played under.
func (g *Game) Rules() Rules { return g.rules }

// Pot returns the chips in the middle.
func (g *Game) Pot() int { return g.pot }

// Stacks returns the chips each seat has behind.
func (g *Game) Stacks() [2]int { return g.stacks }

// EffectiveStack is the smaller of the two stacks.
func (g *Game) EffectiveStack() int { return min(g.stacks[0], g.stacks[1]) }

// Hole returns the hole cards of seat.
func (g *Game) Hole(seat int) [2]poker.Card { return g.hole[seat] }

// Board returns the board cards visible on the current street.
func (g *Game) Board() []poker.Card {
	return slices.Clone(g.board[:g.street.BoardCards()])
}

// FullBoard returns all five board cards, including those not yet shown.
func (g *Game) FullBoard() [5]poker.Card { return g.board }

// Labels returns the policy labels of the current street's actions.
func (g *Game) Labels() []string { return slices.Clone(g.labels) }

// History returns every action of the hand.
func (g *Game) History() []Action { return slices.Clone(g.history) }

// Clone returns an independent deep copy. The evaluator and policy are
// shared.
func (g *Game) Clone() *Game {
	c := *g
	c.history = slices.Clone(g.history)
	c.streetHistory = slices.Clone(g.streetHistory)
	c.labels = slices.Clone(g.labels)
	return &c
}

// State is an immutable snapshot of the game from the acting seat's view.
type State struct {
	Seat          int
	Street        Street
	Stacks        [2]int
	Pot           int
	Raise         int
	Raised        [2]int
	Checked       [2]bool
	LastIncrement int
	Board         []poker.Card
	Hole          [2]poker.Card
	History       []Action
	StreetHistory []Action
	Labels        []string
	Terminal      bool
}

// State returns a snapshot for the acting seat.
func (g *Game) State() State {
	return State{
		Seat:          g.turn,
		Street:        g.street,
		Stacks:        g.stacks,
		Pot:           g.pot,
		Raise:         g.raise,
		Raised:        g.raised,
		Checked:       g.checked,
		LastIncrement: g.lastIncrement,
		Board:         g.Board(),
		Hole:          g.hole[g.turn],
		History:       slices.Clone(g.history),
		StreetHistory: slices.Clone(g.streetHistory),
		Labels:        slices.Clone(g.labels),
		Terminal:      g.Terminal(),
	}
}
