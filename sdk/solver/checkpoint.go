package solver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/lox/holdem-cfr/internal/fileutil"
)

const checkpointFileVersion = 1

type checkpointSnapshot struct {
	Version   int                     `json:"version"`
	RunID     string                  `json:"run_id"`
	Iteration int64                   `json:"iteration"`
	Config    Config                  `json:"config"`
	Stats     SweepStats              `json:"stats"`
	Nodes     map[string]nodeSnapshot `json:"nodes"`
}

type nodeSnapshot struct {
	RegretSum   []float64 `json:"regret_sum"`
	StrategySum []float64 `json:"strategy_sum"`
}

// SaveCheckpoint writes the trainer state to path. Nodes never reached are
// omitted.
func (t *Trainer) SaveCheckpoint(path string) error {
	snap := t.buildCheckpoint()
	return fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(snap)
	})
}

// Resume restores the state saved by SaveCheckpoint. The checkpoint must
// come from a run with the same abstraction and seed; the iteration budget
// may differ.
func (t *Trainer) Resume(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := decodeCheckpoint(f)
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", path, err)
	}
	if err := t.compatible(snap.Config); err != nil {
		return fmt.Errorf("checkpoint %s: %w", path, err)
	}
	for key, ns := range snap.Nodes {
		node, ok := t.nodes.Get(key)
		if !ok {
			return fmt.Errorf("checkpoint %s: %w: %s", path, ErrNotEnumerated, key)
		}
		if err := node.restore(ns); err != nil {
			return fmt.Errorf("checkpoint %s: %w", path, err)
		}
	}
	t.iteration.Store(snap.Iteration)
	t.runID = snap.RunID
	t.setStats(snap.Stats)
	t.logger.Info("resumed from checkpoint", "path", path, "iteration", snap.Iteration, "nodes", len(snap.Nodes))
	return nil
}

func (t *Trainer) compatible(c Config) error {
	switch {
	case c.Seed != t.cfg.Seed:
		return fmt.Errorf("seed %d differs from %d", c.Seed, t.cfg.Seed)
	case c.Depth != t.cfg.Depth:
		return fmt.Errorf("depth %d differs from %d", c.Depth, t.cfg.Depth)
	case c.StackDivisor != t.cfg.StackDivisor:
		return fmt.Errorf("stack divisor %d differs from %d", c.StackDivisor, t.cfg.StackDivisor)
	case !slices.Equal(c.RaiseFractions, t.cfg.RaiseFractions):
		return fmt.Errorf("raise fractions %v differ from %v", c.RaiseFractions, t.cfg.RaiseFractions)
	}
	return nil
}

func (t *Trainer) buildCheckpoint() *checkpointSnapshot {
	snap := &checkpointSnapshot{
		Version:   checkpointFileVersion,
		RunID:     t.runID,
		Iteration: t.iteration.Load(),
		Config:    t.cfg,
		Stats:     t.Stats(),
		Nodes:     make(map[string]nodeSnapshot),
	}
	for _, n := range t.nodes.All() {
		if n.Terminal {
			continue
		}
		ns := n.snapshot()
		if slices.ContainsFunc(ns.StrategySum, func(v float64) bool { return v != 0 }) ||
			slices.ContainsFunc(ns.RegretSum, func(v float64) bool { return v != 0 }) {
			snap.Nodes[n.Key] = ns
		}
	}
	return snap
}

func decodeCheckpoint(r io.Reader) (*checkpointSnapshot, error) {
	var snap checkpointSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}
	if snap.Version != checkpointFileVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", snap.Version)
	}
	if err := snap.Config.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint config invalid: %w", err)
	}
	return &snap, nil
}
