package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/lox/holdem-cfr/internal/abstraction"
	"github.com/lox/holdem-cfr/internal/randutil"
	"github.com/lox/holdem-cfr/poker"
)

type EquityCmd struct {
	Hole    string `arg:"" help:"Hole cards, e.g. AsKd"`
	Board   string `help:"Board cards, e.g. 2c7d9h"`
	Samples int    `default:"20000" help:"Showdowns to sample"`
	Bins    int    `default:"10" help:"Histogram bins of the equity distribution"`
	Seed    int64  `default:"1" help:"Random seed"`
}

func (c *EquityCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	hole, err := poker.ParseCards(c.Hole)
	if err != nil {
		return err
	}
	var board []poker.Card
	if c.Board != "" {
		if board, err = poker.ParseCards(c.Board); err != nil {
			return err
		}
	}
	if _, err := streetForBoard(len(board)); err != nil {
		return err
	}
	if len(hole) != 2 {
		return fmt.Errorf("need 2 hole cards, got %d", len(hole))
	}

	ev, err := e.evaluator(ctx, true)
	if err != nil {
		return err
	}
	rng := randutil.New(c.Seed)
	stats := abstraction.EstimateEquity(ev, hole, board, c.Samples, rng)
	hist := abstraction.EquityDistribution(ev, hole, board, abstraction.DistributionOptions{
		Bins:    c.Bins,
		Samples: max(c.Samples/1000, 1),
	}, rng)

	fmt.Println(headerStyle.Render("Equity"))
	fmt.Println(field("hand", poker.FormatCards(hole)+" "+poker.FormatCards(board)))
	fmt.Println(field("equity", fmt.Sprintf("%.4f ± %.4f", stats.Mean, stats.StdErr)))
	fmt.Println(field("samples", stats.Samples))

	bins := newTable("equity", "share", "")
	for i, p := range hist {
		lo, hi := float64(i)/float64(len(hist)), float64(i+1)/float64(len(hist))
		bins.Row(fmt.Sprintf("%.2f-%.2f", lo, hi), fmt.Sprintf("%.3f", p), strings.Repeat("█", int(p*50+0.5)))
	}
	fmt.Println(bins.String())
	return nil
}
