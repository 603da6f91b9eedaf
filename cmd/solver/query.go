package main

import (
	"context"
	"fmt"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/poker"
	"github.com/lox/holdem-cfr/sdk/solver"
)

type QueryCmd struct {
	Hole      string   `arg:"" help:"Hole cards, e.g. AsKd"`
	Board     string   `help:"Visible board cards, e.g. 2c7d9h"`
	Seat      int      `default:"0" help:"Acting seat (0 is the small blind)"`
	History   []string `help:"Abstract actions on this street, e.g. r50,c"`
	Stack     int      `help:"Effective stack (defaults to the starting stack less the big blind)"`
	Blueprint string   `help:"Blueprint path (defaults to the configured one)"`
}

func streetForBoard(n int) (game.Street, error) {
	switch n {
	case 0:
		return game.Preflop, nil
	case 3:
		return game.Flop, nil
	case 4:
		return game.Turn, nil
	case 5:
		return game.River, nil
	}
	return 0, fmt.Errorf("a board has 0, 3, 4 or 5 cards, not %d", n)
}

func (c *QueryCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	hole, err := poker.ParseCards(c.Hole)
	if err != nil {
		return err
	}
	if len(hole) != 2 {
		return fmt.Errorf("need 2 hole cards, got %d", len(hole))
	}
	var board []poker.Card
	if c.Board != "" {
		if board, err = poker.ParseCards(c.Board); err != nil {
			return err
		}
	}
	street, err := streetForBoard(len(board))
	if err != nil {
		return err
	}
	if c.Seat != game.SmallBlindSeat && c.Seat != game.BigBlindSeat {
		return fmt.Errorf("seat must be 0 or 1, not %d", c.Seat)
	}

	path := c.Blueprint
	if path == "" {
		path = e.cfg.Paths.BlueprintPath()
	}
	bp, err := solver.LoadBlueprint(path)
	if err != nil {
		return err
	}
	rules := e.cfg.Rules
	if bp.Rules != nil {
		rules = *bp.Rules
	}
	stack := c.Stack
	if stack == 0 {
		stack = rules.Stack - rules.BigBlind
	}

	ev, err := e.evaluator(ctx, true)
	if err != nil {
		return err
	}
	cls, err := e.classifier(ctx, ev)
	if err != nil {
		return err
	}
	ix := solver.NewIndexer(cls, rules, bp.Config.StackDivisor)
	entry := ix.Lookup(street, c.Seat, hole, board, stack, c.History)
	key := entry.Key()
	codes := ladderCodes(bp.Config.Ladder().Menu(len(entry.History)))

	fmt.Println(headerStyle.Render("Query"))
	fmt.Println(field("hand", poker.FormatCards(hole)+" "+poker.FormatCards(board)))
	fmt.Println(field("infoset", keyStyle.Render(key)))
	if strat, ok := bp.Strategy(key); ok {
		fmt.Println(field("strategy", probabilities(codes, strat)))
		return nil
	}
	uniform := make([]float64, len(codes))
	for i := range uniform {
		uniform[i] = 1 / float64(len(codes))
	}
	fmt.Println(missStyle.Render("no stored strategy, playing uniformly"))
	fmt.Println(field("strategy", probabilities(codes, uniform)))
	return nil
}
