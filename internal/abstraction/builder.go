package abstraction

import (
	"context"
	"fmt"
	"io"
	rand "math/rand/v2"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-cfr/internal/fileutil"
	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/internal/randutil"
	"github.com/lox/holdem-cfr/poker"
)

var (
	pointsCodec     = fileutil.Codec[[]Fingerprint]{Decode: DecodePoints, Encode: EncodePoints}
	clusteringCodec = fileutil.Codec[Clustering]{Decode: DecodeClustering, Encode: EncodeClustering}
)

// PointsFile and ClustersFile name the persisted artifacts of a table,
// e.g. "private-flop.points".
func PointsFile(level Level, street game.Street) string {
	return fmt.Sprintf("%s-%s.points", level, street)
}

func ClustersFile(level Level, street game.Street) string {
	return fmt.Sprintf("%s-%s.clusters", level, street)
}

// Builder computes the abstraction, loading any table already persisted
// under its directory and saving the ones it computes.
type Builder struct {
	cfg    Config
	ev     poker.Evaluator
	dir    string
	logger *log.Logger
}

// NewBuilder returns a builder persisting under dir; an empty dir keeps
// everything in memory.
func NewBuilder(cfg Config, ev poker.Evaluator, dir string) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("abstraction config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{cfg: cfg, ev: ev, dir: dir, logger: logger}, nil
}

// Build returns every private and public table. The preflop private table
// comes first because public fingerprints are measured against its
// clusters.
func (b *Builder) Build(ctx context.Context) (*Abstraction, error) {
	abs := &Abstraction{}
	var err error
	for s := game.Preflop; s <= game.River; s++ {
		if abs.Private[s], err = b.table(ctx, Private, s, nil); err != nil {
			return nil, err
		}
	}
	reps := representatives(abs.Private[game.Preflop])
	for s := game.Preflop; s <= game.River; s++ {
		if abs.Public[s], err = b.table(ctx, Public, s, reps); err != nil {
			return nil, err
		}
	}
	return abs, nil
}

func (b *Builder) path(name string) string {
	if b.dir == "" {
		return ""
	}
	return filepath.Join(b.dir, name)
}

func (b *Builder) table(ctx context.Context, level Level, street game.Street, reps [][][]poker.Card) (*ClusterTable, error) {
	logger := b.logger.With("level", level, "street", street)

	points, loaded, err := fileutil.LoadOrBuild(b.path(PointsFile(level, street)), pointsCodec, func() ([]Fingerprint, error) {
		return b.points(ctx, logger, level, street, reps)
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s points: %w", level, street, err)
	}
	logger.Debug("points ready", "count", len(points), "from_disk", loaded)

	clustering, loaded, err := fileutil.LoadOrBuild(b.path(ClustersFile(level, street)), clusteringCodec, func() (Clustering, error) {
		return b.cluster(logger, level, street, points)
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s clusters: %w", level, street, err)
	}
	if len(clustering.Assign) != len(points) {
		return nil, fmt.Errorf("%s %s clusters cover %d points, have %d: remove the stale file",
			level, street, len(clustering.Assign), len(points))
	}
	logger.Debug("clusters ready", "k", len(clustering.Centroids), "from_disk", loaded)

	return NewClusterTable(street, level, points, clustering)
}

func (b *Builder) cluster(logger *log.Logger, level Level, street game.Street, points []Fingerprint) (Clustering, error) {
	k := min(b.cfg.clusters(level)[street], len(points))
	hists := make([][]float64, len(points))
	for i, p := range points {
		hists[i] = p.Hist
	}
	rng := randutil.Derive(b.cfg.Seed, streamID(level, street, 1))
	res, err := KMeans(hists, k, b.cfg.MaxIter, rng)
	if err != nil {
		return Clustering{}, err
	}
	logger.Info("clustered", "k", k, "iterations", len(res.Inertia), "inertia", res.Inertia[len(res.Inertia)-1])
	return Clustering{Assign: res.Assign, Centroids: res.Centroids}, nil
}

// points enumerates or samples the table's universe and fingerprints each
// member on the worker pool. Each member's RNG derives from its key, so the
// result does not depend on scheduling.
func (b *Builder) points(ctx context.Context, logger *log.Logger, level Level, street game.Street, reps [][][]poker.Card) ([]Fingerprint, error) {
	points := b.universe(level, street)
	logger.Info("computing fingerprints", "points", len(points), "workers", b.cfg.workers())
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.workers())
	for i := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := &points[i]
			p.Hist = b.fingerprint(level, p.Hole, p.Board, reps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("fingerprints done", "points", len(points), "elapsed", time.Since(start).Round(time.Millisecond))
	return points, nil
}

// fingerprint computes the histogram of one member deterministically.
func (b *Builder) fingerprint(level Level, hole, board []poker.Card, reps [][][]poker.Card) []float64 {
	if level == Public {
		rng := randutil.Derive(b.cfg.Seed, publicKey(board))
		return publicHistogram(b.ev, board, reps, b.cfg, rng)
	}
	rng := randutil.Derive(b.cfg.Seed, privateKey(hole, board))
	return EquityDistribution(b.ev, hole, board, b.cfg.distribution(), rng)
}

// universe lists the members of a table with their keys. Preflop private
// hands (169 classes) and flop boards (1,755 classes) are enumerated; the
// rest are sampled.
func (b *Builder) universe(level Level, street game.Street) []Fingerprint {
	seen := make(map[uint64]bool)
	var out []Fingerprint
	add := func(hole, board []poker.Card) {
		key := publicKey(board)
		if level == Private {
			key = privateKey(hole, board)
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Fingerprint{
			Key:   key,
			Hole:  append([]poker.Card(nil), hole...),
			Board: append([]poker.Card(nil), board...),
		})
	}
	enumerate := func(k int, fn func([]poker.Card)) {
		poker.Combinations(poker.AllCards(), k, func(c []poker.Card) bool {
			fn(c)
			return true
		})
	}

	switch {
	case level == Private && street == game.Preflop:
		enumerate(2, func(c []poker.Card) { add(c, nil) })
	case level == Public && street == game.Preflop:
		add(nil, nil)
	case level == Public && street == game.Flop:
		enumerate(3, func(c []poker.Card) { add(nil, c) })
	default:
		rng := randutil.Derive(b.cfg.Seed, streamID(level, street, 0))
		n := street.BoardCards()
		for range b.cfg.BoardSamples {
			deck := poker.NewDeck(rng)
			if level == Private {
				add(deck.Deal(2), deck.Deal(n))
			} else {
				add(nil, deck.Deal(n))
			}
		}
	}
	return out
}

// streamID separates the RNG streams used for sampling and clustering.
func streamID(level Level, street game.Street, purpose uint64) uint64 {
	return 1<<62 | uint64(level)<<8 | uint64(street)<<4 | purpose
}

// representatives returns the member hands of each preflop private
// cluster.
func representatives(preflop *ClusterTable) [][][]poker.Card {
	reps := make([][][]poker.Card, preflop.K())
	for c := range reps {
		for _, m := range preflop.Members(c) {
			reps[c] = append(reps[c], m.Hole)
		}
	}
	return reps
}

// publicHistogram fingerprints a board by the equities that sampled
// representatives of each preflop private cluster hold on it.
func publicHistogram(ev poker.Evaluator, board []poker.Card, reps [][][]poker.Card, cfg Config, rng *rand.Rand) []float64 {
	hist := make([]float64, cfg.Bins)
	for _, members := range reps {
		order := rng.Perm(len(members))
		taken := 0
		for _, i := range order {
			if taken == cfg.Representatives {
				break
			}
			hole, ok := relabel(members[i], board)
			if !ok {
				continue
			}
			eq := Equity(ev, hole, board, cfg.EquitySamples, rng)
			hist[binOf(eq, len(hist))]++
			taken++
		}
	}
	normalise(hist)
	return hist
}

// suitPerms lists the 24 permutations of the four suits.
var suitPerms = func() [][poker.NumSuits]uint8 {
	var out [][poker.NumSuits]uint8
	var rec func(prefix []uint8, used uint8)
	rec = func(prefix []uint8, used uint8) {
		if len(prefix) == poker.NumSuits {
			var p [poker.NumSuits]uint8
			copy(p[:], prefix)
			out = append(out, p)
			return
		}
		for s := uint8(0); s < poker.NumSuits; s++ {
			if used&(1<<s) == 0 {
				rec(append(prefix, s), used|1<<s)
			}
		}
	}
	rec(nil, 0)
	return out
}()

// relabel returns a suit relabelling of hole that avoids the board, or
// false when every relabelling collides.
func relabel(hole, board []poker.Card) ([]poker.Card, bool) {
	taken := poker.NewCardSet(board...)
	out := make([]poker.Card, len(hole))
next:
	for _, perm := range suitPerms {
		for i, c := range hole {
			out[i] = poker.NewCard(c.Rank(), perm[c.Suit()])
			if taken.Contains(out[i]) {
				continue next
			}
		}
		return out, true
	}
	return nil, false
}

// Load builds or loads the abstraction persisted under dir and wraps it in
// a Classifier.
func Load(ctx context.Context, cfg Config, ev poker.Evaluator, dir string) (*Classifier, error) {
	b, err := NewBuilder(cfg, ev, dir)
	if err != nil {
		return nil, err
	}
	abs, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	return NewClassifier(abs, cfg, ev)
}
