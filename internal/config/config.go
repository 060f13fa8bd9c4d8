// Package config loads jsdeobf's environment-sourced defaults (spec.md §6
// CLI surface defaults), mirroring the teacher's internal/config shape:
// Load reads `JSDEOBF_*` environment variables (falling back to a
// `.env` file via godotenv, exactly as the teacher does for its own
// MORFX_* variables) into typed defaults, which cmd/jsdeobf then merges
// with explicit CLI flags — flags always win.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oxhq/jsdeobf/internal/pipeline"
	"github.com/oxhq/jsdeobf/internal/printer"
)

// Config holds the environment-derived defaults for a deobfuscate run.
type Config struct {
	MaxFixedPointIterations int
	RenameStyle             pipeline.RenameStyle
	PreserveComments        bool
	AnnotateWebpackModules  bool
	IndentSize              int
	IndentWithTabs          bool
}

// Load reads a `.env` file if present (silently ignored if absent, the same
// as the teacher's startup does for its own .env loading) and then
// JSDEOBF_* environment variables over the spec's stated defaults.
func Load() *Config {
	_ = godotenv.Load()

	defaults := pipeline.DefaultOptions()
	printDefaults := printer.DefaultOptions()
	cfg := &Config{
		MaxFixedPointIterations: defaults.MaxFixedPointIterations,
		RenameStyle:             defaults.RenameStyle,
		PreserveComments:        defaults.PreserveComments,
		AnnotateWebpackModules:  defaults.AnnotateWebpackModules,
		IndentSize:              printDefaults.IndentSize,
		IndentWithTabs:          printDefaults.IndentWithTabs,
	}

	if v := os.Getenv("JSDEOBF_MAX_FIXEDPOINT_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxFixedPointIterations = n
		}
	}
	if v := os.Getenv("JSDEOBF_RENAME_STYLE"); v != "" {
		switch strings.ToLower(v) {
		case "role-derived", "role":
			cfg.RenameStyle = pipeline.RenameRoleDerived
		case "deterministic-fresh", "fresh":
			cfg.RenameStyle = pipeline.RenameDeterministicFresh
		}
	}
	if v := os.Getenv("JSDEOBF_PRESERVE_COMMENTS"); v != "" {
		cfg.PreserveComments = parseBool(v, cfg.PreserveComments)
	}
	if v := os.Getenv("JSDEOBF_ANNOTATE_WEBPACK"); v != "" {
		cfg.AnnotateWebpackModules = parseBool(v, cfg.AnnotateWebpackModules)
	}
	if v := os.Getenv("JSDEOBF_INDENT_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.IndentSize = n
		}
	}
	if v := os.Getenv("JSDEOBF_INDENT_WITH_TABS"); v != "" {
		cfg.IndentWithTabs = parseBool(v, cfg.IndentWithTabs)
	}

	return cfg
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// PipelineOptions renders cfg into a DeobfuscateOptions, leaving every pass
// enabled (the CLI layer applies --only-pass/--skip-pass on top of this).
func (c *Config) PipelineOptions() pipeline.DeobfuscateOptions {
	opts := pipeline.DefaultOptions()
	opts.MaxFixedPointIterations = c.MaxFixedPointIterations
	opts.RenameStyle = c.RenameStyle
	opts.PreserveComments = c.PreserveComments
	opts.AnnotateWebpackModules = c.AnnotateWebpackModules
	return opts
}

// PrinterOptions renders cfg into printer.Options.
func (c *Config) PrinterOptions() printer.Options {
	return printer.Options{IndentSize: c.IndentSize, IndentWithTabs: c.IndentWithTabs}
}
