package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lox/holdem-cfr/sdk/solver"
)

type TrainCmd struct {
	Iterations int    `help:"Number of CFR iterations (overrides config)"`
	Seed       int64  `help:"Random seed (overrides config)"`
	Resume     bool   `help:"Resume from the checkpoint file"`
	Out        string `help:"Path to write the blueprint (overrides config)"`
}

func (c *TrainCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	cfg := e.cfg.Solver
	if c.Iterations > 0 {
		cfg.Iterations = c.Iterations
	}
	if c.Seed != 0 {
		cfg.Seed = c.Seed
	}
	bpPath := e.cfg.Paths.BlueprintPath()
	if c.Out != "" {
		bpPath = c.Out
	}
	ckPath := e.cfg.Paths.CheckpointPath()

	ev, err := e.evaluator(ctx, true)
	if err != nil {
		return err
	}
	cls, err := e.classifier(ctx, ev)
	if err != nil {
		return err
	}
	space, err := solver.NewHoldemSpace(e.cfg.Rules, cfg, cls, ev)
	if err != nil {
		return err
	}
	trainer, err := solver.NewTrainer(cfg, space, solver.WithPersistence(bpPath, ckPath))
	if err != nil {
		return err
	}
	if c.Resume {
		if err := trainer.Resume(ckPath); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
	}

	e.logger.Info("starting training run",
		"run_id", trainer.RunID(),
		"iterations", cfg.Iterations,
		"from", trainer.Iteration(),
		"seed", cfg.Seed,
		"depth", cfg.Depth,
		"raises", cfg.RaiseFractions,
		"infosets", trainer.Nodes().Len(),
	)

	start := time.Now()
	progress := func(p solver.Progress) {
		e.logger.Info("progress",
			"iteration", p.Iteration,
			"visited", p.Stats.Visited,
			"terminals", p.Stats.Terminal,
			"missed", p.Missed,
			"missed_at", p.MissedAt,
			"persisted", p.Persisted,
			"elapsed", p.Elapsed.Round(time.Second),
		)
	}
	if err := trainer.Run(ctx, progress); err != nil {
		if ctx.Err() != nil {
			e.logger.Warn("interrupted, saving progress", "iteration", trainer.Iteration())
			if perr := trainer.Persist(); perr != nil {
				return perr
			}
		}
		return err
	}

	e.logger.Info("training completed",
		"duration", time.Since(start).Round(time.Millisecond),
		"blueprint", bpPath,
		"classifier_misses", cls.Misses(),
	)
	return nil
}
