package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-cfr/internal/abstraction"
	"github.com/lox/holdem-cfr/internal/config"
	"github.com/lox/holdem-cfr/poker"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `short:"c" default:"solver.hcl" help:"Path to HCL configuration file"`
	DataDir  string `help:"Directory for persisted tables and blueprints (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Debug    bool   `help:"Enable debug logging"`
}

type CLI struct {
	Globals

	Version     kong.VersionFlag `short:"v" help:"Show version"`
	Tables      TablesCmd        `cmd:"" help:"Build the hand evaluator lookup tables"`
	Abstraction AbstractionCmd   `cmd:"" help:"Build the card abstraction"`
	Train       TrainCmd         `cmd:"" help:"Run CFR training and emit a blueprint"`
	Inspect     InspectCmd       `cmd:"" help:"Summarise a blueprint"`
	Query       QueryCmd         `cmd:"" help:"Show the blueprint strategy for a hand"`
	Equity      EquityCmd        `cmd:"" help:"Estimate the equity of a hand"`
	Eval        EvalCmd          `cmd:"" help:"Play a blueprint against a uniform random opponent"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("solver"),
		kong.Description("Heads-up no-limit hold'em CFR solver"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}

// env is the configuration and logger every command starts from.
type env struct {
	cfg    *config.File
	logger *log.Logger
}

func (g *Globals) load() (*env, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.DataDir != "" {
		cfg.Paths.DataDir = g.DataDir
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	cfg.Abstraction.Logger = logger.WithPrefix("abstraction")
	cfg.Solver.Logger = logger.WithPrefix("solver")
	logger.Debug("loaded config", "path", g.Config, "data_dir", cfg.Paths.DataDir)
	return &env{cfg: cfg, logger: logger}, nil
}

// evaluator loads the lookup tables, building them on first use.
func (e *env) evaluator(ctx context.Context, seven bool) (*poker.LookupTable, error) {
	return poker.LoadTables(ctx, poker.TableOptions{
		Dir:     e.cfg.Paths.DataDir,
		Seven:   seven,
		Workers: e.cfg.Abstraction.Workers,
		Logger:  e.logger.WithPrefix("tables"),
	})
}

// classifier loads the card abstraction, building missing tables.
func (e *env) classifier(ctx context.Context, ev poker.Evaluator) (*abstraction.Classifier, error) {
	return abstraction.Load(ctx, e.cfg.Abstraction, ev, e.cfg.Paths.DataDir)
}
