package solver

import (
	"fmt"
	"iter"
	rand "math/rand/v2"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/poker"
)

// HoldemSpace trains heads-up no-limit hold'em under the card abstraction
// of an Indexer and the action abstraction of an ActionLadder.
type HoldemSpace struct {
	rules   game.Rules
	ladder  *ActionLadder
	indexer *Indexer
	eval    poker.Evaluator
}

// NewHoldemSpace wires the betting engine to the abstractions.
func NewHoldemSpace(rules game.Rules, cfg Config, clusters Clusters, ev poker.Evaluator) (*HoldemSpace, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("solver config: %w", err)
	}
	if ev == nil {
		ev = poker.Direct{}
	}
	return &HoldemSpace{
		rules:   rules,
		ladder:  cfg.Ladder(),
		indexer: NewIndexer(clusters, rules, cfg.StackDivisor),
		eval:    ev,
	}, nil
}

// Rules returns the betting rules.
func (s *HoldemSpace) Rules() game.Rules { return s.rules }

// Ladder returns the action abstraction.
func (s *HoldemSpace) Ladder() *ActionLadder { return s.ladder }

// Indexer returns the infoset indexer.
func (s *HoldemSpace) Indexer() *Indexer { return s.indexer }

// NewGame starts a hand labelled by the space's ladder.
func (s *HoldemSpace) NewGame(opts ...game.Option) (*game.Game, error) {
	opts = append([]game.Option{game.WithEvaluator(s.eval), game.WithPolicy(s.ladder)}, opts...)
	return game.New(s.rules, opts...)
}

// Entries implements Space.
func (s *HoldemSpace) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for e := range s.indexer.Forward(s.ladder.Depth(), s.ladder) {
			entry := Entry{
				Key:      e.Key(),
				Actions:  len(s.ladder.Menu(len(e.History))),
				Terminal: e.Street == game.Showdown || endsInFold(e.History),
			}
			if !yield(entry) {
				return
			}
		}
	}
}

func endsInFold(history []string) bool {
	return len(history) > 0 && history[len(history)-1] == AbstractAction{Kind: AbstractFold}.Code()
}

// Deal implements Space.
func (s *HoldemSpace) Deal(rng *rand.Rand) (State, error) {
	g, err := s.NewGame(game.WithDeck(poker.NewDeck(rng)))
	if err != nil {
		return nil, err
	}
	return &holdemState{space: s, g: g}, nil
}

// Root wraps a game, e.g. one dealt with fixed cards, as a State.
func (s *HoldemSpace) Root(g *game.Game) State {
	return &holdemState{space: s, g: g}
}

type holdemState struct {
	space *HoldemSpace
	g     *game.Game
	key   string
}

func (h *holdemState) Key() string {
	if h.key == "" {
		h.key = h.space.indexer.FromGame(h.g).Key()
	}
	return h.key
}

func (h *holdemState) Actor() int     { return h.g.Turn() }
func (h *holdemState) Terminal() bool { return h.g.Terminal() }

func (h *holdemState) Utility() float64 {
	u, _ := h.g.Utility()
	return float64(u[h.g.Turn()])
}

func (h *holdemState) menu() []AbstractAction {
	return h.space.ladder.Menu(len(h.g.Labels()))
}

func (h *holdemState) NumActions() int { return len(h.menu()) }

func (h *holdemState) Child(i int) (State, error) {
	next := h.g.Clone()
	a := h.space.ladder.ToConcrete(h.menu()[i], next.LegalActions())
	if err := next.Play(a); err != nil {
		return nil, fmt.Errorf("play %s: %w", a, err)
	}
	return &holdemState{space: h.space, g: next}, nil
}
