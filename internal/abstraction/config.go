package abstraction

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-cfr/internal/game"
)

// Config controls how the card abstraction is built.
type Config struct {
	// Bins is the equity histogram resolution.
	Bins int `hcl:"bins,optional"`
	// PrivateClusters and PublicClusters give k per street, preflop first.
	PrivateClusters []int `hcl:"private_clusters,optional"`
	PublicClusters  []int `hcl:"public_clusters,optional"`
	// BoardSamples bounds the sampled universes: postflop private deals
	// and turn/river boards.
	BoardSamples int `hcl:"board_samples,optional"`
	// Opponents sampled per private fingerprint; 0 enumerates all.
	Opponents int `hcl:"opponents,optional"`
	// Samples is the number of board completions per equity estimate.
	Samples int `hcl:"samples,optional"`
	// Representatives per preflop private cluster in public fingerprints,
	// each scored with EquitySamples showdowns.
	Representatives int   `hcl:"representatives,optional"`
	EquitySamples   int   `hcl:"equity_samples,optional"`
	MaxIter         int   `hcl:"max_iter,optional"`
	Workers         int   `hcl:"workers,optional"`
	Seed            int64 `hcl:"seed,optional"`
	// CacheSize bounds the classifier's memo of table misses.
	CacheSize int `hcl:"cache_size,optional"`

	Logger *log.Logger
}

// DefaultConfig returns a small abstraction that builds in seconds.
func DefaultConfig() Config {
	return Config{
		Bins:            10,
		PrivateClusters: []int{4, 3, 3, 3},
		PublicClusters:  []int{1, 2, 2, 2},
		BoardSamples:    400,
		Opponents:       40,
		Samples:         8,
		Representatives: 3,
		EquitySamples:   200,
		MaxIter:         50,
		Workers:         runtime.NumCPU(),
		Seed:            1,
		CacheSize:       1 << 16,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Bins < 2 {
		return errors.New("bins must be at least 2")
	}
	if len(c.PrivateClusters) != game.NumStreets || len(c.PublicClusters) != game.NumStreets {
		return fmt.Errorf("cluster counts need one entry per street (%d)", game.NumStreets)
	}
	for s := range game.NumStreets {
		if c.PrivateClusters[s] < 1 || c.PublicClusters[s] < 1 {
			return fmt.Errorf("%s cluster counts must be positive", game.Street(s))
		}
	}
	if c.PublicClusters[game.Preflop] != 1 {
		return errors.New("preflop has no board, so public_clusters[0] must be 1")
	}
	if c.PrivateClusters[game.Preflop] > 169 {
		return errors.New("preflop private clusters cannot exceed 169 hand classes")
	}
	if c.BoardSamples < 1 || c.Samples < 1 || c.Representatives < 1 || c.EquitySamples < 1 {
		return errors.New("board_samples, samples, representatives and equity_samples must be positive")
	}
	if c.Opponents < 0 {
		return errors.New("opponents must not be negative")
	}
	if c.MaxIter < 1 {
		return errors.New("max_iter must be positive")
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

func (c Config) distribution() DistributionOptions {
	return DistributionOptions{Bins: c.Bins, Opponents: c.Opponents, Samples: c.Samples}
}

func (c Config) clusters(level Level) []int {
	if level == Public {
		return c.PublicClusters
	}
	return c.PrivateClusters
}
