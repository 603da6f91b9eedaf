package solver

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/internal/randutil"
)

// Progress contains metadata emitted during training.
type Progress struct {
	Iteration int
	Nodes     int
	Stats     SweepStats
	// Missed counts decision infosets without a non-uniform strategy. It
	// is counted when the trainer persists and at the end of a run;
	// MissedAt is the iteration of that count, zero before the first.
	Missed    int
	MissedAt  int
	Persisted bool
	Elapsed   time.Duration
}

// Trainer runs CFR iterations over a Space. Iterations are sequential;
// Blueprint may be called concurrently with Run.
type Trainer struct {
	cfg    Config
	space  Space
	nodes  *NodeTable
	clock  quartz.Clock
	logger *log.Logger
	runID  string

	iteration atomic.Int64
	statsMu   sync.Mutex
	stats     SweepStats

	blueprintPath  string
	checkpointPath string
	lastPersist    time.Time

	missed   atomic.Int64
	missedAt atomic.Int64
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithClock replaces the wall clock used to schedule persistence.
func WithClock(clock quartz.Clock) TrainerOption {
	return func(t *Trainer) { t.clock = clock }
}

// WithPersistence enables periodic writes of the blueprint and checkpoint.
// Either path may be empty.
func WithPersistence(blueprintPath, checkpointPath string) TrainerOption {
	return func(t *Trainer) {
		t.blueprintPath = blueprintPath
		t.checkpointPath = checkpointPath
	}
}

// NewTrainer enumerates the space and allocates its nodes.
func NewTrainer(cfg Config, space Space, opts ...TrainerOption) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	t := &Trainer{
		cfg:    cfg,
		space:  space,
		clock:  quartz.NewReal(),
		logger: logger,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(t)
	}

	start := t.clock.Now()
	nodes, err := NewNodes(space)
	if err != nil {
		return nil, fmt.Errorf("enumerate infosets: %w", err)
	}
	t.nodes = nodes
	t.logger.Info("enumerated infosets", "nodes", nodes.Len(), "elapsed", t.clock.Since(start).Round(time.Millisecond))
	return t, nil
}

// Run executes iterations until the budget is spent or ctx is cancelled.
// Each iteration deals from an RNG derived from the seed and the iteration
// number, so a resumed run replays the same deals as an uninterrupted one.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	start := t.clock.Now()
	t.lastPersist = start

	for i := t.iteration.Load(); i < int64(t.cfg.Iterations); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stats, err := t.iterate(i)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		t.setStats(stats)
		iter := t.iteration.Add(1)

		persisted := false
		if t.persistDue(iter) {
			if err := t.Persist(); err != nil {
				return err
			}
			persisted = true
		}
		if progress != nil && (persisted || (t.cfg.ProgressEvery > 0 && iter%int64(t.cfg.ProgressEvery) == 0)) {
			progress(t.progress(stats, persisted, start))
		}
	}

	persisted := false
	if t.blueprintPath != "" || t.checkpointPath != "" {
		if err := t.Persist(); err != nil {
			return err
		}
		persisted = true
	} else {
		t.recordMissed(countMissed(t.nodes, t.cfg.PruneThreshold))
	}
	if progress != nil {
		progress(t.progress(t.Stats(), persisted, start))
	}
	return nil
}

func (t *Trainer) iterate(i int64) (SweepStats, error) {
	rng := randutil.Derive(t.cfg.Seed, uint64(i))
	root, err := t.space.Deal(rng)
	if err != nil {
		return SweepStats{}, fmt.Errorf("deal: %w", err)
	}
	return sweep(t.nodes, root)
}

func (t *Trainer) persistDue(iter int64) bool {
	if t.blueprintPath == "" && t.checkpointPath == "" {
		return false
	}
	if t.cfg.PersistEvery > 0 && iter%int64(t.cfg.PersistEvery) == 0 {
		return true
	}
	return t.cfg.PersistInterval > 0 && t.clock.Since(t.lastPersist) >= t.cfg.PersistInterval
}

func (t *Trainer) progress(stats SweepStats, persisted bool, start time.Time) Progress {
	return Progress{
		Iteration: int(t.iteration.Load()),
		Nodes:     t.nodes.Len(),
		Stats:     stats,
		Missed:    int(t.missed.Load()),
		MissedAt:  int(t.missedAt.Load()),
		Persisted: persisted,
		Elapsed:   t.clock.Since(start),
	}
}

func (t *Trainer) recordMissed(missed int) {
	t.missed.Store(int64(missed))
	t.missedAt.Store(t.iteration.Load())
}

// Persist writes the configured blueprint and checkpoint files now.
func (t *Trainer) Persist() error {
	t.lastPersist = t.clock.Now()
	if t.blueprintPath != "" {
		bp := t.Blueprint()
		if err := bp.Save(t.blueprintPath); err != nil {
			return fmt.Errorf("save blueprint: %w", err)
		}
		t.recordMissed(bp.Missed)
		t.logger.Debug("saved blueprint", "path", t.blueprintPath, "strategies", bp.Len(), "missed", bp.Missed)
	} else {
		t.recordMissed(countMissed(t.nodes, t.cfg.PruneThreshold))
	}
	if t.checkpointPath != "" {
		if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		t.logger.Debug("saved checkpoint", "path", t.checkpointPath, "iteration", t.iteration.Load())
	}
	return nil
}

// Blueprint materialises the pruned average strategy produced so far.
func (t *Trainer) Blueprint() *Blueprint {
	strategies, missed := extract(t.nodes, t.cfg.PruneThreshold)
	bp := &Blueprint{
		Version:     blueprintFileVersion,
		RunID:       t.runID,
		GeneratedAt: t.clock.Now().UTC(),
		Iterations:  int(t.iteration.Load()),
		Config:      t.cfg,
		Missed:      missed,
		Strategies:  strategies,
	}
	if s, ok := t.space.(interface{ Rules() game.Rules }); ok {
		rules := s.Rules()
		bp.Rules = &rules
	}
	return bp
}

func (t *Trainer) setStats(stats SweepStats) {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	t.stats = stats
}

// Stats returns the statistics of the most recent iteration.
func (t *Trainer) Stats() SweepStats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// Iteration returns the number of completed iterations.
func (t *Trainer) Iteration() int64 { return t.iteration.Load() }

// RunID identifies the run across resumes.
func (t *Trainer) RunID() string { return t.runID }

// Nodes exposes the node table, e.g. for inspection.
func (t *Trainer) Nodes() *NodeTable { return t.nodes }

// Config returns the training configuration.
func (t *Trainer) Config() Config { return t.cfg }
