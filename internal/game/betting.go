package game

import (
	"errors"
	"fmt"
)

// Street represents the betting round
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

// NumStreets counts the betting streets, excluding showdown.
const NumStreets = 4

func (s Street) String() string {
	if s < Preflop || s > Showdown {
		return fmt.Sprintf("street(%d)", int(s))
	}
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[s]
}

// ParseStreet parses the names produced by Street.String.
func ParseStreet(s string) (Street, error) {
	for st := Preflop; st <= Showdown; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown street %q", s)
}

// BoardCards returns how many board cards are visible on the street.
func (s Street) BoardCards() int {
	switch s {
	case Preflop:
		return 0
	case Flop:
		return 3
	case Turn:
		return 4
	default:
		return 5
	}
}

// Seat indices. The small blind acts first on every street.
const (
	SmallBlindSeat = 0
	BigBlindSeat   = 1
)

var (
	// ErrHandComplete is returned when acting on a finished hand.
	ErrHandComplete = errors.New("hand is complete")
	// ErrInvalidAction is returned for amounts the rules do not allow.
	ErrInvalidAction = errors.New("invalid action")
)

// ActionKind classifies an action. The zero value is not a valid kind.
type ActionKind uint8

const (
	Fold ActionKind = iota + 1
	Call
	Raise
)

func (k ActionKind) String() string {
	switch k {
	case Fold:
		return "fold"
	case Call:
		return "call"
	case Raise:
		return "raise"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Action is a concrete betting decision. Amount counts the chips moved
// from the actor's stack by this action; Pot is the pot when the action was
// offered.
type Action struct {
	Kind   ActionKind
	Amount int
	Pot    int
	AllIn  bool
}

// IsFold reports whether the action folds.
func (a Action) IsFold() bool { return a.Kind == Fold }

// IsCheck reports whether the action is a call of nothing.
func (a Action) IsCheck() bool { return a.Kind == Call && a.Amount == 0 }

// IsAllIn reports whether the action commits the actor's whole stack.
func (a Action) IsAllIn() bool { return a.AllIn }

// Proportion returns Amount relative to the pot it was offered against.
func (a Action) Proportion() float64 {
	if a.Pot == 0 {
		return 0
	}
	return float64(a.Amount) / float64(a.Pot)
}

func (a Action) String() string {
	switch {
	case a.IsFold():
		return "fold"
	case a.IsCheck():
		return "check"
	case a.AllIn:
		return fmt.Sprintf("all-in %d", a.Amount)
	case a.Kind == Call:
		return fmt.Sprintf("call %d", a.Amount)
	default:
		return fmt.Sprintf("raise %d", a.Amount)
	}
}

// ActionPolicy labels concrete actions for the abstract bet history.
type ActionPolicy interface {
	Label(Action) string
}

// ActionPolicyFunc adapts a function to ActionPolicy.
type ActionPolicyFunc func(Action) string

// Label implements ActionPolicy.
func (f ActionPolicyFunc) Label(a Action) string { return f(a) }

// kindPolicy labels actions by kind only.
var kindPolicy = ActionPolicyFunc(func(a Action) string {
	switch {
	case a.IsFold():
		return "f"
	case a.AllIn:
		return "a"
	case a.Kind == Call:
		return "c"
	default:
		return "r"
	}
})

// offer builds the action moving amount chips for the acting seat.
func (g *Game) offer(amount int) Action {
	a := Action{Kind: Raise, Amount: amount, Pot: g.pot, AllIn: amount == g.stacks[g.turn]}
	if amount == g.toCall() {
		a.Kind = Call
	}
	return a
}

func (g *Game) toCall() int {
	return g.raise - g.raised[g.turn]
}

// minRaiseIncrement is the smallest legal raise above a call.
func (g *Game) minRaiseIncrement() int {
	if g.lastIncrement == 0 {
		return g.rules.BigBlind
	}
	return g.lastIncrement
}

// LegalActions returns, in order: fold, check or call, the raise ladder
// (starting one minimum raise above the call and stepping by the big blind
// while affordable), and an all-in when the ladder stops short of the
// stack. Facing an all-in only fold and call remain. It returns nil once
// the hand is over.
func (g *Game) LegalActions() []Action {
	if g.Terminal() {
		return nil
	}
	stack := g.stacks[g.turn]
	actions := []Action{{Kind: Fold, Pot: g.pot}, g.offer(g.toCall())}

	last := 0
	for inc := g.minRaiseIncrement(); ; inc += g.rules.BigBlind {
		amount := g.toCall() + inc
		if amount > stack {
			break
		}
		actions = append(actions, g.offer(amount))
		last = amount
	}
	if last < stack && stack > g.toCall() {
		actions = append(actions, g.offer(stack))
	}
	return actions
}

// validate checks the kind and amount against the rules and returns the
// normalised action.
func (g *Game) validate(a Action) (Action, error) {
	toCall, stack := g.toCall(), g.stacks[g.turn]
	switch a.Kind {
	case Fold:
		return Action{Kind: Fold, Pot: g.pot}, nil
	case Call:
		if a.Amount != toCall {
			return Action{}, fmt.Errorf("%w: call of %d does not match the %d to call", ErrInvalidAction, a.Amount, toCall)
		}
	case Raise:
		if a.Amount <= toCall {
			return Action{}, fmt.Errorf("%w: raise of %d does not exceed the %d to call", ErrInvalidAction, a.Amount, toCall)
		}
	default:
		return Action{}, fmt.Errorf("%w: unknown kind %s", ErrInvalidAction, a.Kind)
	}
	switch {
	case a.Amount < toCall:
		return Action{}, fmt.Errorf("%w: %d is less than the %d to call", ErrInvalidAction, a.Amount, toCall)
	case a.Amount > stack:
		return Action{}, fmt.Errorf("%w: %d exceeds stack of %d", ErrInvalidAction, a.Amount, stack)
	case a.Amount > toCall && a.Amount < toCall+g.minRaiseIncrement() && a.Amount != stack:
		return Action{}, fmt.Errorf("%w: raise of %d below minimum %d", ErrInvalidAction, a.Amount, toCall+g.minRaiseIncrement())
	}
	return g.offer(a.Amount), nil
}
