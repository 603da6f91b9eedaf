package main

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/internal/randutil"
	"github.com/lox/holdem-cfr/internal/statistics"
	"github.com/lox/holdem-cfr/poker"
	"github.com/lox/holdem-cfr/sdk/solver"
	"github.com/lox/holdem-cfr/sdk/solver/runtime"
)

type EvalCmd struct {
	Blueprint string `help:"Blueprint path (defaults to the configured one)"`
	Hands     int    `default:"10000" help:"Number of hands to play"`
	Seed      int64  `default:"1" help:"Random seed"`
	Mirror    bool   `help:"Replay every deal with the seats swapped to reduce variance"`
}

type evaluationOptions struct {
	Hands  int
	Seed   int64
	Mirror bool
}

type evalResult struct {
	Hands     int
	NetChips  int
	BBPerHand float64
	BBPer100  float64
	HitRate   float64
	Duration  time.Duration
	Stats     *statistics.Statistics
}

func (c *EvalCmd) Run(g *Globals, ctx context.Context) error {
	if c.Hands <= 0 {
		return fmt.Errorf("hands must be positive (got %d)", c.Hands)
	}
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
		return fmt.Errorf("load blueprint: %w", err)
	}
	e.logger.Info("blueprint loaded",
		"generated", bp.GeneratedAt.Format(time.RFC3339),
		"iterations", bp.Iterations,
		"infosets", bp.Len(),
	)

	ev, err := e.evaluator(ctx, true)
	if err != nil {
		return err
	}
	cls, err := e.classifier(ctx, ev)
	if err != nil {
		return err
	}
	agent, err := runtime.NewAgent(bp, cls, randutil.Derive(c.Seed, 1))
	if err != nil {
		return err
	}

	res, err := runEvaluation(ctx, e.logger, agent, ev, evaluationOptions{Hands: c.Hands, Seed: c.Seed, Mirror: c.Mirror})
	if err != nil {
		return fmt.Errorf("run evaluation: %w", err)
	}
	e.logger.Info("evaluation complete",
		"hands", res.Hands,
		"net_chips", res.NetChips,
		"bb_per_100", fmt.Sprintf("%.2f", res.BBPer100),
		"hit_rate", fmt.Sprintf("%.3f", res.HitRate),
		"duration", res.Duration.Round(time.Millisecond),
	)
	lo, hi := res.Stats.ConfidenceInterval95()
	e.logger.Info("result spread",
		"std_error_bb", fmt.Sprintf("%.4f", res.Stats.StdError()),
		"ci95_bb_per_100", fmt.Sprintf("[%.2f, %.2f]", lo*100, hi*100),
		"median_bb", fmt.Sprintf("%.2f", res.Stats.Median()),
		"sb_bb_per_hand", fmt.Sprintf("%.3f", res.Stats.Seats[0].Mean()),
		"bb_bb_per_hand", fmt.Sprintf("%.3f", res.Stats.Seats[1].Mean()),
		"showdowns", res.Stats.Streets[game.Showdown],
	)
	return nil
}

// runEvaluation plays the agent against a uniform random opponent. The
// agent alternates seats, or with Mirror plays each deal from both seats.
func runEvaluation(ctx context.Context, logger *log.Logger, agent *runtime.Agent, ev poker.Evaluator, opts evaluationOptions) (*evalResult, error) {
	if opts.Hands <= 0 {
		return nil, fmt.Errorf("hands must be positive (got %d)", opts.Hands)
	}
	if opts.Mirror && opts.Hands < 2 {
		return nil, fmt.Errorf("mirror mode requires at least 2 hands (got %d)", opts.Hands)
	}
	bp := agent.Blueprint()
	rules := game.DefaultRules()
	if bp.Rules != nil {
		rules = *bp.Rules
	}
	villain := randutil.Derive(opts.Seed, 2)

	start := time.Now()
	res := &evalResult{Stats: &statistics.Statistics{}}
	for i := 0; i < opts.Hands; i++ {
		if i%1000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		deal := uint64(i)
		seat := i % 2
		if opts.Mirror {
			deal, seat = uint64(i/2), i%2
		}
		g, err := game.New(rules,
			game.WithDeck(poker.NewDeck(randutil.Derive(opts.Seed, deal+3))),
			game.WithEvaluator(ev),
			game.WithPolicy(agent.Ladder()),
		)
		if err != nil {
			return nil, err
		}
		net, err := playHand(g, agent, seat, villain)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		res.NetChips += net
		res.Hands++
		res.Stats.Add(statistics.HandResult{
			NetBB:          float64(net) / float64(rules.BigBlind),
			Seat:           seat,
			WentToShowdown: g.Street() == game.Showdown,
			FinalPot:       g.Pot(),
			BigBlind:       rules.BigBlind,
			Street:         g.Street(),
		})
	}
	if err := res.Stats.Validate(); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	res.BBPerHand = float64(res.NetChips) / float64(rules.BigBlind) / float64(res.Hands)
	res.BBPer100 = res.BBPerHand * 100
	if plays := agent.Plays(); plays > 0 {
		res.HitRate = float64(agent.Hits()) / float64(plays)
	}
	logger.Debug("evaluation finished", "hands", res.Hands, "plays", agent.Plays(), "hits", agent.Hits())
	return res, nil
}

// playHand plays g to the end and returns the agent's chip result.
func playHand(g *game.Game, agent *runtime.Agent, seat int, villain *rand.Rand) (int, error) {
	for !g.Terminal() {
		var (
			a   game.Action
			err error
		)
		if g.Turn() == seat {
			if a, err = agent.Act(g); err != nil {
				return 0, err
			}
		} else {
			legal := g.LegalActions()
			a = legal[villain.IntN(len(legal))]
		}
		if err := g.Play(a); err != nil {
			return 0, fmt.Errorf("play %s: %w", a, err)
		}
	}
	u, _ := g.Utility()
	return u[seat], nil
}
