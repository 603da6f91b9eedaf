package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/sdk/solver"
)

type InspectCmd struct {
	Blueprint string `help:"Blueprint path (defaults to the configured one)"`
	Prefix    string `help:"Only list infosets whose key starts with this prefix"`
	Limit     int    `default:"20" help:"Number of strategies to list"`
}

func (c *InspectCmd) Run(g *Globals) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	path := c.Blueprint
	if path == "" {
		path = e.cfg.Paths.BlueprintPath()
	}
	bp, err := solver.LoadBlueprint(path)
	if err != nil {
		return err
	}
	fmt.Println(renderBlueprint(bp, c.Prefix, c.Limit))
	return nil
}

func renderBlueprint(bp *solver.Blueprint, prefix string, limit int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Blueprint") + "\n")
	b.WriteString(field("run", bp.RunID) + "\n")
	b.WriteString(field("generated", bp.GeneratedAt.Format(time.RFC3339)) + "\n")
	b.WriteString(field("iterations", bp.Iterations) + "\n")
	if bp.Rules != nil {
		b.WriteString(field("blinds", fmt.Sprintf("%d/%d", bp.Rules.SmallBlind, bp.Rules.BigBlind)) + "\n")
		b.WriteString(field("stack", bp.Rules.Stack) + "\n")
	}
	b.WriteString(field("ladder", ladderCodes(bp.Config.Ladder().Actions())) + "\n")
	b.WriteString(field("depth", bp.Config.Depth) + "\n")
	b.WriteString(field("strategies", bp.Len()) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", "missed")) + " " + missStyle.Render(strconv.Itoa(bp.Missed)) + "\n")

	perStreet := make(map[game.Street]int)
	for key := range bp.Strategies {
		if entry, err := solver.ParseKey(key); err == nil {
			perStreet[entry.Street]++
		}
	}
	streets := newTable("street", "strategies")
	for s := game.Preflop; s <= game.River; s++ {
		streets.Row(s.String(), strconv.Itoa(perStreet[s]))
	}
	b.WriteString(streets.String() + "\n")

	keys := make([]string, 0, len(bp.Strategies))
	for key := range bp.Strategies {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	ladder := bp.Config.Ladder()
	rows := newTable("infoset", "strategy")
	for _, key := range keys {
		entry, err := solver.ParseKey(key)
		if err != nil {
			continue
		}
		codes := ladderCodes(ladder.Menu(len(entry.History)))
		rows.Row(keyStyle.Render(key), probabilities(codes, bp.Strategies[key]))
	}
	b.WriteString(rows.String())
	return b.String()
}

func ladderCodes(actions []solver.AbstractAction) []string {
	codes := make([]string, len(actions))
	for i, a := range actions {
		codes[i] = a.Code()
	}
	return codes
}
