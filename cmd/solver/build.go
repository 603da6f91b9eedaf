package main

import (
	"context"
	"time"

	"github.com/lox/holdem-cfr/internal/abstraction"
	"github.com/lox/holdem-cfr/internal/game"
)

type TablesCmd struct {
	Seven bool `default:"true" negatable:"" help:"Also build the seven-card table"`
}

func (c *TablesCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	start := time.Now()
	table, err := e.evaluator(ctx, c.Seven)
	if err != nil {
		return err
	}
	e.logger.Info("lookup tables ready", "dir", e.cfg.Paths.DataDir, "seven", table.HasSeven(), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

type AbstractionCmd struct{}

func (c *AbstractionCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	ev, err := e.evaluator(ctx, true)
	if err != nil {
		return err
	}
	start := time.Now()
	cls, err := e.classifier(ctx, ev)
	if err != nil {
		return err
	}
	abs := cls.Abstraction()
	for s := game.Preflop; s <= game.River; s++ {
		e.logger.Info("street",
			"street", s,
			"private_points", len(abs.Table(abstraction.Private, s).Points),
			"private_k", abs.Table(abstraction.Private, s).K(),
			"public_points", len(abs.Table(abstraction.Public, s).Points),
			"public_k", abs.Table(abstraction.Public, s).K(),
		)
	}
	e.logger.Info("abstraction ready", "dir", e.cfg.Paths.DataDir, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
