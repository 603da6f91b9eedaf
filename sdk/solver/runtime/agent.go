// Package runtime plays hands by following a trained blueprint.
package runtime

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/sdk/solver"
)

// Agent samples actions from a blueprint. Infosets the blueprint has no
// strategy for are played uniformly over the legal actions. It is safe for
// concurrent use.
type Agent struct {
	blueprint *solver.Blueprint
	indexer   *solver.Indexer
	ladder    *solver.ActionLadder

	mu  sync.Mutex
	rng *rand.Rand

	hits  atomic.Int64
	plays atomic.Int64
}

// NewAgent indexes games the way the blueprint's training run did. The
// clusters must come from the same abstraction.
func NewAgent(bp *solver.Blueprint, clusters solver.Clusters, rng *rand.Rand) (*Agent, error) {
	if bp == nil {
		return nil, errors.New("nil blueprint")
	}
	if rng == nil {
		return nil, errors.New("nil rng")
	}
	rules := game.DefaultRules()
	if bp.Rules != nil {
		rules = *bp.Rules
	}
	return &Agent{
		blueprint: bp,
		indexer:   solver.NewIndexer(clusters, rules, bp.Config.StackDivisor),
		ladder:    bp.Config.Ladder(),
		rng:       rng,
	}, nil
}

// Load constructs an agent from a stored blueprint file.
func Load(path string, clusters solver.Clusters, rng *rand.Rand) (*Agent, error) {
	bp, err := solver.LoadBlueprint(path)
	if err != nil {
		return nil, err
	}
	return NewAgent(bp, clusters, rng)
}

// Blueprint returns the underlying blueprint (read-only).
func (a *Agent) Blueprint() *solver.Blueprint {
	if a == nil {
		return nil
	}
	return a.blueprint
}

// Ladder returns the blueprint's action abstraction.
func (a *Agent) Ladder() *solver.ActionLadder { return a.ladder }

// Entry returns the infoset of the acting seat. The street history is
// relabelled with the blueprint's ladder, so g may use any policy.
func (a *Agent) Entry(g *game.Game) solver.InfosetEntry {
	st := g.State()
	labels := make([]string, len(st.StreetHistory))
	for i, act := range st.StreetHistory {
		labels[i] = a.ladder.Label(act)
	}
	return a.indexer.Lookup(st.Street, st.Seat, st.Hole[:], st.Board, g.EffectiveStack(), labels)
}

// ActionWeights returns the stored distribution for key over actionCount
// actions. Missing keys are uniform, and short vectors are padded
// uniformly.
func (a *Agent) ActionWeights(key string, actionCount int) ([]float64, bool, error) {
	if a == nil || a.blueprint == nil {
		return nil, false, errors.New("nil agent")
	}
	if actionCount <= 0 {
		return nil, false, errors.New("action count must be positive")
	}

	uniform := 1.0 / float64(actionCount)
	out := make([]float64, actionCount)
	strat, ok := a.blueprint.Strategy(key)
	n := copy(out, strat)
	for i := n; i < actionCount; i++ {
		out[i] = uniform
	}
	return out, ok, nil
}

// Act chooses a legal action for the acting seat of g.
func (a *Agent) Act(g *game.Game) (game.Action, error) {
	if g.Terminal() {
		return game.Action{}, game.ErrHandComplete
	}
	legal := g.LegalActions()
	entry := a.Entry(g)
	menu := a.ladder.Menu(len(entry.History))

	weights, hit, err := a.ActionWeights(entry.Key(), len(menu))
	if err != nil {
		return game.Action{}, err
	}
	a.plays.Add(1)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !hit {
		return legal[a.rng.IntN(len(legal))], nil
	}
	a.hits.Add(1)
	i, err := draw(weights, a.rng)
	if err != nil {
		return game.Action{}, fmt.Errorf("infoset %s: %w", entry.Key(), err)
	}
	return a.ladder.ToConcrete(menu[i], legal), nil
}

// draw samples an index proportionally to weights.
func draw(weights []float64, rng *rand.Rand) (int, error) {
	total := 0.0
	for _, w := range weights {
		total += max(w, 0)
	}
	if total <= 0 {
		return 0, errors.New("strategy has no positive weight")
	}
	r := rng.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if r < w {
			return i, nil
		}
		r -= w
	}
	return last, nil
}

// Hits counts actions drawn from a stored strategy.
func (a *Agent) Hits() int64 { return a.hits.Load() }

// Plays counts every action chosen.
func (a *Agent) Plays() int64 { return a.plays.Load() }
