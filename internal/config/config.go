// Package config loads the solver's HCL configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/holdem-cfr/internal/abstraction"
	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/sdk/solver"
)

// File is the complete configuration. Every block and attribute is
// optional; missing values keep their defaults.
//
//	log_level = "info"
//
//	rules {
//	  small_blind = 10
//	  big_blind   = 20
//	  stack       = 4000
//	}
//
//	abstraction {
//	  bins             = 10
//	  private_clusters = [4, 3, 3, 3]
//	}
//
//	solver {
//	  iterations       = 100000
//	  raise_fractions  = [0.5, 1, 2]
//	  persist_interval = "5m"
//	}
//
//	paths {
//	  data_dir = "data"
//	}
type File struct {
	LogLevel    string
	Rules       game.Rules
	Abstraction abstraction.Config
	Solver      solver.Config
	Paths       Paths
}

// Paths locates persisted artifacts. Blueprint and Checkpoint default to
// fixed names inside DataDir.
type Paths struct {
	DataDir    string `hcl:"data_dir,optional"`
	Blueprint  string `hcl:"blueprint,optional"`
	Checkpoint string `hcl:"checkpoint,optional"`
}

// BlueprintPath returns the blueprint file location.
func (p Paths) BlueprintPath() string {
	if p.Blueprint != "" {
		return p.Blueprint
	}
	return filepath.Join(p.DataDir, "blueprint.json")
}

// CheckpointPath returns the checkpoint file location.
func (p Paths) CheckpointPath() string {
	if p.Checkpoint != "" {
		return p.Checkpoint
	}
	return filepath.Join(p.DataDir, "checkpoint.json")
}

// Default returns the configuration used when no file exists.
func Default() *File {
	return &File{
		LogLevel:    "info",
		Rules:       game.DefaultRules(),
		Abstraction: abstraction.DefaultConfig(),
		Solver:      solver.DefaultConfig(),
		Paths:       Paths{DataDir: "data"},
	}
}

var fileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "log_level"}},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "rules"},
		{Type: "abstraction"},
		{Type: "solver"},
		{Type: "paths"},
	},
}

var solverSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "persist_interval"}},
}

// Load reads filename, falling back to defaults when it does not exist.
func Load(filename string) (*File, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(src, filename)
}

// Parse decodes HCL source over the defaults.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Blocks decode into the default values, so absent attributes keep
	// them.
	cfg := Default()
	if attr, ok := content.Attributes["log_level"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &cfg.LogLevel); diags.HasErrors() {
			return nil, fmt.Errorf("log_level: %s", diags.Error())
		}
	}
	seen := make(map[string]bool)
	for _, block := range content.Blocks {
		if seen[block.Type] {
			return nil, fmt.Errorf("%s: duplicate %s block", block.DefRange, block.Type)
		}
		seen[block.Type] = true

		var diags hcl.Diagnostics
		switch block.Type {
		case "rules":
			diags = gohcl.DecodeBody(block.Body, nil, &cfg.Rules)
		case "abstraction":
			diags = gohcl.DecodeBody(block.Body, nil, &cfg.Abstraction)
		case "solver":
			diags = decodeSolver(block.Body, &cfg.Solver)
		case "paths":
			diags = gohcl.DecodeBody(block.Body, nil, &cfg.Paths)
		}
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s block: %s", block.Type, diags.Error())
		}
	}
	return cfg, nil
}

// decodeSolver handles the duration attribute gohcl cannot decode.
func decodeSolver(body hcl.Body, cfg *solver.Config) hcl.Diagnostics {
	content, remain, diags := body.PartialContent(solverSchema)
	if diags.HasErrors() {
		return diags
	}
	if attr, ok := content.Attributes["persist_interval"]; ok {
		var s string
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &s); diags.HasErrors() {
			return diags
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid duration",
				Detail:   err.Error(),
				Subject:  attr.Expr.Range().Ptr(),
			}}
		}
		cfg.PersistInterval = d
	}
	return gohcl.DecodeBody(remain, nil, cfg)
}

// Validate checks every section.
func (f *File) Validate() error {
	if err := f.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := f.Abstraction.Validate(); err != nil {
		return fmt.Errorf("abstraction: %w", err)
	}
	if err := f.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if f.Paths.DataDir == "" {
		return errors.New("paths: data_dir is required")
	}
	return nil
}
