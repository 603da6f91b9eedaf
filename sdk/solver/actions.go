package solver

import (
	"fmt"
	"math"

	"github.com/lox/holdem-cfr/internal/game"
)

// AbstractKind classifies the members of the action ladder.
type AbstractKind uint8

const (
	AbstractFold AbstractKind = iota
	AbstractCall
	AbstractRaise
	AbstractAllIn
)

// AbstractAction is one rung of the action ladder. Fraction is the raise
// size relative to the pot and is only meaningful for AbstractRaise.
type AbstractAction struct {
	Kind     AbstractKind
	Fraction float64
}

// Code is the label recorded in infoset histories: "f", "c", "a", or "r"
// followed by the pot percentage, e.g. "r50".
func (a AbstractAction) Code() string {
	switch a.Kind {
	case AbstractFold:
		return "f"
	case AbstractCall:
		return "c"
	case AbstractAllIn:
		return "a"
	default:
		return fmt.Sprintf("r%d", int(math.Round(a.Fraction*100)))
	}
}

func (a AbstractAction) String() string { return a.Code() }

// ActionLadder is the small, fixed action abstraction the solver plays:
// fold, check/call, the configured pot-fraction raises and all-in. Once a
// street's history reaches Depth only fold and call remain.
//
// It also translates between abstract and concrete actions in both
// directions, and its Label method is the betting engine's ActionPolicy.
type ActionLadder struct {
	full  []AbstractAction
	limit []AbstractAction
	depth int
}

// NewActionLadder builds a ladder over the given raise fractions.
func NewActionLadder(fractions []float64, depth int) *ActionLadder {
	full := []AbstractAction{{Kind: AbstractFold}, {Kind: AbstractCall}}
	for _, f := range fractions {
		full = append(full, AbstractAction{Kind: AbstractRaise, Fraction: f})
	}
	full = append(full, AbstractAction{Kind: AbstractAllIn})
	return &ActionLadder{
		full:  full,
		limit: full[:2:2],
		depth: depth,
	}
}

// Actions returns the full ladder.
func (l *ActionLadder) Actions() []AbstractAction { return l.full }

// LimitMenu returns the fold and call rungs.
func (l *ActionLadder) LimitMenu() []AbstractAction { return l.limit }

// Depth returns the per-street history bound.
func (l *ActionLadder) Depth() int { return l.depth }

// Menu returns the abstract actions available after streetActions actions
// on the current street.
func (l *ActionLadder) Menu(streetActions int) []AbstractAction {
	if streetActions >= l.depth {
		return l.limit
	}
	return l.full
}

// ToConcrete maps an abstract action onto the legal actions of a game, as
// returned by game.LegalActions. Raises pick the legal raise whose pot
// proportion is closest to the fraction, preferring the smaller on ties,
// and fall back to the call when no raise is legal.
func (l *ActionLadder) ToConcrete(a AbstractAction, legal []game.Action) game.Action {
	switch a.Kind {
	case AbstractFold:
		return legal[0]
	case AbstractCall:
		return legal[1]
	case AbstractAllIn:
		return legal[len(legal)-1]
	}
	best, diff := legal[1], math.Inf(1)
	for _, c := range legal[2:] {
		if d := math.Abs(c.Proportion() - a.Fraction); d < diff {
			best, diff = c, d
		}
	}
	return best
}

// Abstract maps a concrete action onto its nearest rung.
func (l *ActionLadder) Abstract(a game.Action) AbstractAction {
	switch {
	case a.IsFold():
		return l.full[0]
	case a.Kind == game.Call:
		return l.full[1]
	case a.IsAllIn():
		return l.full[len(l.full)-1]
	}
	best, diff := l.full[1], math.Inf(1)
	for _, r := range l.full[2 : len(l.full)-1] {
		if d := math.Abs(a.Proportion() - r.Fraction); d < diff {
			best, diff = r, d
		}
	}
	return best
}

// Label implements game.ActionPolicy.
func (l *ActionLadder) Label(a game.Action) string {
	return l.Abstract(a).Code()
}

var _ game.ActionPolicy = (*ActionLadder)(nil)
