package abstraction

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/internal/randutil"
	"github.com/lox/holdem-cfr/poker"
)

// Classifier resolves concrete cards to cluster ids. A key absent from a
// table is counted as a miss and assigned to the nearest centroid of a
// freshly computed fingerprint; the answer is memoised. It is safe for
// concurrent use.
type Classifier struct {
	abs  *Abstraction
	cfg  Config
	ev   poker.Evaluator
	reps [][][]poker.Card

	mu    sync.Mutex
	cache map[cacheKey]int

	misses atomic.Int64
}

type cacheKey struct {
	level  Level
	street game.Street
	key    uint64
}

// NewClassifier wraps a built abstraction. cfg must match the one the
// tables were built with so that miss fingerprints are comparable.
func NewClassifier(abs *Abstraction, cfg Config, ev poker.Evaluator) (*Classifier, error) {
	for s := range game.NumStreets {
		if abs.Private[s] == nil || abs.Public[s] == nil {
			return nil, fmt.Errorf("abstraction is missing %s tables", game.Street(s))
		}
	}
	return &Classifier{
		abs:   abs,
		cfg:   cfg,
		ev:    ev,
		reps:  representatives(abs.Private[game.Preflop]),
		cache: make(map[cacheKey]int),
	}, nil
}

// Abstraction returns the underlying tables.
func (c *Classifier) Abstraction() *Abstraction { return c.abs }

// Misses returns how many lookups fell outside the tables.
func (c *Classifier) Misses() int64 { return c.misses.Load() }

// Private returns the private cluster of hole against the board visible on
// street.
func (c *Classifier) Private(street game.Street, hole, board []poker.Card) int {
	board = board[:street.BoardCards()]
	return c.classify(Private, street, privateKey(hole, board), hole, board)
}

// Public returns the public cluster of the board visible on street.
func (c *Classifier) Public(street game.Street, board []poker.Card) int {
	board = board[:street.BoardCards()]
	return c.classify(Public, street, publicKey(board), nil, board)
}

func (c *Classifier) classify(level Level, street game.Street, key uint64, hole, board []poker.Card) int {
	// Showdown shares the river tables.
	street = min(street, game.River)
	t := c.abs.Table(level, street)
	if id, ok := t.Lookup(key); ok {
		return id
	}
	c.misses.Add(1)

	ck := cacheKey{level: level, street: street, key: key}
	c.mu.Lock()
	id, ok := c.cache[ck]
	c.mu.Unlock()
	if ok {
		return id
	}

	var hist []float64
	if level == Public {
		hist = publicHistogram(c.ev, board, c.reps, c.cfg, randutil.Derive(c.cfg.Seed, key))
	} else {
		hist = EquityDistribution(c.ev, hole, board, c.cfg.distribution(), randutil.Derive(c.cfg.Seed, key))
	}
	id = Nearest(t.Centroids, hist)

	c.mu.Lock()
	if c.cfg.CacheSize > 0 && len(c.cache) >= c.cfg.CacheSize {
		// Evict an arbitrary entry.
		for k := range c.cache {
			delete(c.cache, k)
			break
		}
	}
	c.cache[ck] = id
	c.mu.Unlock()
	return id
}

// Counts returns the number of clusters per street for a level.
func (c *Classifier) Counts(level Level) []int { return c.abs.ClusterCounts(level) }
