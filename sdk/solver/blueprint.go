package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/lox/holdem-cfr/internal/fileutil"
	"github.com/lox/holdem-cfr/internal/game"
)

const blueprintFileVersion = 1

// Blueprint captures the averaged strategies produced by a solver run so that
// runtime agents can sample actions without rerunning CFR. Near-uniform
// strategies are pruned; consumers treat a missing key as uniform.
type Blueprint struct {
	Version     int                  `json:"version"`
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Iterations  int                  `json:"iterations"`
	Config      Config               `json:"config"`
	Rules       *game.Rules          `json:"rules,omitempty"`
	Missed      int                  `json:"missed"`
	Strategies  map[string][]float64 `json:"strategies"`
}

// Strategy returns the stored average strategy for an infoset key.
func (b *Blueprint) Strategy(key string) ([]float64, bool) {
	if b == nil {
		return nil, false
	}
	strat, ok := b.Strategies[key]
	return strat, ok
}

// Len returns the number of stored strategies.
func (b *Blueprint) Len() int { return len(b.Strategies) }

// Save writes the blueprint to disk in JSON format.
func (b *Blueprint) Save(path string) error {
	if b == nil {
		return errors.New("nil blueprint")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	return fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	})
}

// LoadBlueprint reads a blueprint from disk and checks that its config is
// usable for indexing.
func LoadBlueprint(path string) (*Blueprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bp Blueprint
	if err := json.NewDecoder(f).Decode(&bp); err != nil {
		return nil, fmt.Errorf("decode blueprint %s: %w", path, err)
	}
	if bp.Version != blueprintFileVersion {
		return nil, fmt.Errorf("unsupported blueprint version %d", bp.Version)
	}
	if err := bp.Config.Validate(); err != nil {
		return nil, fmt.Errorf("blueprint config: %w", err)
	}
	return &bp, nil
}

// nearUniform reports whether every probability is within threshold of
// 1/n.
func nearUniform(strat []float64, threshold float64) bool {
	u := 1.0 / float64(len(strat))
	for _, p := range strat {
		if math.Abs(p-u) >= threshold {
			return false
		}
	}
	return true
}

// extract builds the pruned average-strategy table of the decision nodes
// and counts those left without an entry.
func extract(nodes *NodeTable, threshold float64) (map[string][]float64, int) {
	out := make(map[string][]float64)
	missed := 0
	for _, n := range nodes.All() {
		if n.Terminal || n.Actions() < 2 {
			continue
		}
		avg := n.AverageStrategy()
		if nearUniform(avg, threshold) {
			missed++
			continue
		}
		out[n.Key] = avg
	}
	return out, missed
}

// countMissed is the missed count of extract without building the
// strategy map.
func countMissed(nodes *NodeTable, threshold float64) int {
	missed := 0
	for _, n := range nodes.All() {
		if n.Terminal || n.Actions() < 2 {
			continue
		}
		if nearUniform(n.AverageStrategy(), threshold) {
			missed++
		}
	}
	return missed
}
