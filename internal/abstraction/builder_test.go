package abstraction

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/poker"
)

func tinyConfig() Config {
	return Config{
		Bins:            4,
		PrivateClusters: []int{3, 2, 2, 2},
		PublicClusters:  []int{1, 2, 2, 2},
		BoardSamples:    12,
		Opponents:       4,
		Samples:         2,
		Representatives: 1,
		EquitySamples:   4,
		MaxIter:         10,
		Workers:         4,
		Seed:            7,
		CacheSize:       8,
	}
}

var (
	tinyOnce sync.Once
	tinyDir  string
	tinyAbs  *Abstraction
	tinyErr  error
)

// sharedAbstraction builds the tiny abstraction once per test binary.
func sharedAbstraction(t *testing.T) (*Abstraction, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("abstraction build skipped in short mode")
	}
	tinyOnce.Do(func() {
		tinyDir, tinyErr = os.MkdirTemp("", "abstraction")
		if tinyErr != nil {
			return
		}
		var b *Builder
		if b, tinyErr = NewBuilder(tinyConfig(), poker.Direct{}, tinyDir); tinyErr != nil {
			return
		}
		tinyAbs, tinyErr = b.Build(context.Background())
	})
	require.NoError(t, tinyErr)
	return tinyAbs, tinyDir
}

func TestBuildProducesEveryTable(t *testing.T) {
	t.Parallel()

	abs, dir := sharedAbstraction(t)
	assert.Len(t, abs.Private[game.Preflop].Points, 169)
	assert.Len(t, abs.Public[game.Preflop].Points, 1)
	assert.Len(t, abs.Public[game.Flop].Points, 1755)
	assert.Equal(t, []int{3, 2, 2, 2}, abs.ClusterCounts(Private))
	assert.Equal(t, []int{1, 2, 2, 2}, abs.ClusterCounts(Public))

	for _, level := range []Level{Private, Public} {
		for s := game.Preflop; s <= game.River; s++ {
			table := abs.Table(level, s)
			assert.Equal(t, s, table.Street)
			assert.Equal(t, level, table.Level)
			for c := range table.K() {
				assert.NotEmpty(t, table.Members(c), "%s %s cluster %d", level, s, c)
			}
			for _, name := range []string{PointsFile(level, s), ClustersFile(level, s)} {
				_, err := os.Stat(filepath.Join(dir, name))
				require.NoError(t, err, name)
			}
		}
	}
	assert.Equal(t, "private-flop.points", PointsFile(Private, game.Flop))
}

func TestBuildReloadsFromDisk(t *testing.T) {
	t.Parallel()

	abs, dir := sharedAbstraction(t)
	b, err := NewBuilder(tinyConfig(), poker.Direct{}, dir)
	require.NoError(t, err)
	again, err := b.Build(context.Background())
	require.NoError(t, err)

	for s := game.Preflop; s <= game.River; s++ {
		assert.Equal(t, abs.Private[s].Assign, again.Private[s].Assign)
		assert.Equal(t, abs.Public[s].Centroids, again.Public[s].Centroids)
	}
}

func TestClassifierHitsAndMisses(t *testing.T) {
	t.Parallel()

	abs, _ := sharedAbstraction(t)
	c, err := NewClassifier(abs, tinyConfig(), poker.Direct{})
	require.NoError(t, err)

	// Every preflop class is in the table, under any suit labelling.
	aks := c.Private(game.Preflop, poker.MustParseCards("AsKs"), nil)
	akh := c.Private(game.Preflop, poker.MustParseCards("AhKh"), nil)
	assert.Equal(t, aks, akh)
	assert.Zero(t, c.Public(game.Preflop, nil))
	flop := poker.MustParseCards("2c7d9h")
	assert.Equal(t, c.Public(game.Flop, flop), c.Public(game.Flop, poker.MustParseCards("2d7h9s")))
	assert.Zero(t, c.Misses())

	// Twelve sampled river deals cannot cover this one.
	hole := poker.MustParseCards("AsAh")
	board := poker.MustParseCards("2c7d9hJc3s")
	first := c.Private(game.River, hole, board)
	second := c.Private(game.Showdown, hole, board)
	assert.Equal(t, first, second)
	assert.Less(t, first, abs.Private[game.River].K())
	assert.Equal(t, int64(2), c.Misses())
}

func TestClusterTableLookup(t *testing.T) {
	t.Parallel()

	points := []Fingerprint{
		{Key: 11, Hist: []float64{1, 0}},
		{Key: 22, Hist: []float64{0, 1}},
		{Key: 33, Hist: []float64{0.9, 0.1}},
	}
	table, err := NewClusterTable(game.Flop, Public, points, Clustering{
		Assign:    []int{0, 1, 0},
		Centroids: [][]float64{{0.95, 0.05}, {0, 1}},
	})
	require.NoError(t, err)

	id, ok := table.Lookup(22)
	require.True(t, ok)
	assert.Equal(t, 1, id)
	_, ok = table.Lookup(44)
	assert.False(t, ok)
	assert.Len(t, table.Members(0), 2)

	_, err = NewClusterTable(game.Flop, Public, points, Clustering{Assign: []int{0}})
	require.Error(t, err)
	_, err = NewClusterTable(game.Flop, Public, points, Clustering{Assign: []int{0, 5, 0}, Centroids: [][]float64{{1}}})
	require.Error(t, err)
}

func TestPointsAndClusteringPersist(t *testing.T) {
	t.Parallel()

	points := []Fingerprint{{
		Key:   poker.HashDeal(poker.MustParseCards("AsKs"), poker.MustParseCards("2c7d9h")),
		Hole:  poker.MustParseCards("AsKs"),
		Board: poker.MustParseCards("2c7d9h"),
		Hist:  []float64{0.25, 0.5, 0.25},
	}}
	var buf bytes.Buffer
	require.NoError(t, EncodePoints(&buf, points))
	got, err := DecodePoints(&buf)
	require.NoError(t, err)
	assert.Equal(t, points, got)

	clustering := Clustering{Assign: []int{0}, Centroids: [][]float64{{0.25, 0.5, 0.25}}}
	buf.Reset()
	require.NoError(t, EncodeClustering(&buf, clustering))
	gotC, err := DecodeClustering(&buf)
	require.NoError(t, err)
	assert.Equal(t, clustering, gotC)

	_, err = DecodePoints(bytes.NewReader([]byte{0x91, 0x01}))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, tinyConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"one bin", func(c *Config) { c.Bins = 1 }},
		{"short private", func(c *Config) { c.PrivateClusters = []int{2, 2} }},
		{"preflop public", func(c *Config) { c.PublicClusters = []int{2, 2, 2, 2} }},
		{"zero k", func(c *Config) { c.PrivateClusters = []int{2, 0, 2, 2} }},
		{"too many preflop", func(c *Config) { c.PrivateClusters = []int{200, 2, 2, 2} }},
		{"no samples", func(c *Config) { c.Samples = 0 }},
		{"negative opponents", func(c *Config) { c.Opponents = -1 }},
		{"no iterations", func(c *Config) { c.MaxIter = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
