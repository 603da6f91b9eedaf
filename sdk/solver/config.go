package solver

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Config aggregates the action abstraction, infoset bucketing and training
// parameters of a solver run. Blueprints and checkpoints record it so that
// runtime consumers index infosets the same way training did.
type Config struct {
	// Iterations is the training budget.
	Iterations int   `hcl:"iterations,optional" json:"iterations"`
	Seed       int64 `hcl:"seed,optional" json:"seed"`

	// Depth bounds the abstract actions per street before only fold and
	// call remain.
	Depth int `hcl:"depth,optional" json:"depth"`

	// RaiseFractions lists the pot-fraction raises of the action ladder.
	// Values must be strictly increasing.
	RaiseFractions []float64 `hcl:"raise_fractions,optional" json:"raise_fractions"`

	// StackDivisor buckets the effective stack in infoset keys.
	StackDivisor int `hcl:"stack_divisor,optional" json:"stack_divisor"`

	// PruneThreshold drops near-uniform strategies from blueprints.
	PruneThreshold float64 `hcl:"prune_threshold,optional" json:"prune_threshold"`

	// PersistEvery and PersistInterval schedule blueprint and checkpoint
	// writes by iteration count and by wall time. Zero disables either.
	PersistEvery    int           `hcl:"persist_every,optional" json:"persist_every"`
	PersistInterval time.Duration `json:"persist_interval"`

	ProgressEvery int `hcl:"progress_every,optional" json:"progress_every"`

	Logger *log.Logger `json:"-"`
}

// DefaultConfig returns a configuration suitable for local experimentation.
func DefaultConfig() Config {
	return Config{
		Iterations:      10000,
		Seed:            1,
		Depth:           1,
		RaiseFractions:  []float64{0.5, 1, 2},
		StackDivisor:    2000,
		PruneThreshold:  0.001,
		PersistEvery:    1000,
		PersistInterval: 5 * time.Minute,
		ProgressEvery:   100,
	}
}

// Validate ensures the parameters are safe to use.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return errors.New("iterations must be > 0")
	}
	// A limit call at depth zero can be followed by a fold outside the
	// enumerated histories.
	if c.Depth < 1 {
		return errors.New("depth must be >= 1")
	}
	last := 0.0
	for i, f := range c.RaiseFractions {
		if f <= 0 {
			return fmt.Errorf("raise fraction[%d] must be > 0", i)
		}
		if f <= last {
			return fmt.Errorf("raise fraction[%d] must be strictly increasing", i)
		}
		last = f
	}
	if c.StackDivisor <= 0 {
		return errors.New("stack divisor must be > 0")
	}
	if c.PruneThreshold < 0 {
		return errors.New("prune threshold cannot be negative")
	}
	if c.PersistEvery < 0 {
		return errors.New("persist interval cannot be negative")
	}
	if c.PersistInterval < 0 {
		return errors.New("persist wall interval cannot be negative")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	return nil
}

// Ladder returns the action abstraction described by the config.
func (c Config) Ladder() *ActionLadder {
	return NewActionLadder(c.RaiseFractions, c.Depth)
}
