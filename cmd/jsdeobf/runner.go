package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/config"
	"github.com/oxhq/jsdeobf/internal/diag"
	"github.com/oxhq/jsdeobf/internal/passes"
	"github.com/oxhq/jsdeobf/internal/pipeline"
	"github.com/oxhq/jsdeobf/internal/printer"
	"github.com/oxhq/jsdeobf/internal/store"
)

func allPasses() []pipeline.Pass { return passes.All() }

func parseFinal(ctx context.Context, source []byte) (*jsast.Tree, error) {
	tree, err := jsast.Parse(ctx, source)
	if err != nil {
		return nil, diag.NewParseError("failed to reparse pipeline output", err)
	}
	return tree, nil
}

// passFlags carries the repeatable --only-pass/--skip-pass flags shared by
// run and batch.
type passFlags struct {
	only []string
	skip []string
}

// applyTo layers the flags onto opts: --only-pass narrows to exactly the
// named passes, --skip-pass disables the named passes on top of whatever
// --only-pass left enabled.
func (f passFlags) applyTo(opts *pipeline.DeobfuscateOptions) error {
	if len(f.only) > 0 {
		ids := make([]pipeline.PassID, 0, len(f.only))
		for _, name := range f.only {
			id, err := passIDByName(name)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		opts.EnableOnly(ids...)
	}
	for _, name := range f.skip {
		id, err := passIDByName(name)
		if err != nil {
			return err
		}
		opts.Disable(id)
	}
	return nil
}

var passNames = map[string]pipeline.PassID{
	"P1": pipeline.P1ControlFlowUnflatten, "control-flow-unflatten": pipeline.P1ControlFlowUnflatten,
	"P2": pipeline.P2StringArrayRotation, "string-array-rotation": pipeline.P2StringArrayRotation,
	"P3": pipeline.P3DecoderInlining, "decoder-inlining": pipeline.P3DecoderInlining,
	"P4": pipeline.P4CallProxyInlining, "call-proxy-inlining": pipeline.P4CallProxyInlining,
	"P5": pipeline.P5OperatorProxyInlining, "operator-proxy-inlining": pipeline.P5OperatorProxyInlining,
	"P6": pipeline.P6ExpressionSimplification, "expression-simplification": pipeline.P6ExpressionSimplification,
	"P7": pipeline.P7DeadCodeElimination, "dead-code-elimination": pipeline.P7DeadCodeElimination,
	"P8": pipeline.P8DeadVariableElimination, "dead-variable-elimination": pipeline.P8DeadVariableElimination,
	"P9": pipeline.P9FunctionInlining, "function-inlining": pipeline.P9FunctionInlining,
	"P10": pipeline.P10MiscCleanup, "misc-cleanup": pipeline.P10MiscCleanup,
	"P11": pipeline.P11LiteralNormalization, "literal-normalization": pipeline.P11LiteralNormalization,
	"P12": pipeline.P12IdentifierRenaming, "identifier-renaming": pipeline.P12IdentifierRenaming,
	"P13": pipeline.P13EmptyStatementCleanup, "empty-statement-cleanup": pipeline.P13EmptyStatementCleanup,
	"P14": pipeline.P14SequenceSplitting, "sequence-splitting": pipeline.P14SequenceSplitting,
	"P15": pipeline.P15MultiVariableSplitting, "multi-variable-splitting": pipeline.P15MultiVariableSplitting,
	"P16": pipeline.P16TernaryToIf, "ternary-to-if": pipeline.P16TernaryToIf,
	"P17": pipeline.P17ShortCircuitToIf, "short-circuit-to-if": pipeline.P17ShortCircuitToIf,
	"P18": pipeline.P18IIFEUnwrapping, "iife-unwrapping": pipeline.P18IIFEUnwrapping,
	"P19": pipeline.P19WebpackModuleAnnotation, "webpack-module-annotation": pipeline.P19WebpackModuleAnnotation,
}

func passIDByName(name string) (pipeline.PassID, error) {
	if id, ok := passNames[strings.TrimSpace(name)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown pass %q", name)
}

// isParseError reports whether err is (or wraps) a syntax error, the
// exit-code-2 case in spec.md §6: either a raw *ast.ParseError from the
// engine's initial parse, or a *diag.Error of KindParseError from
// parseFinal's reparse of the pipeline output.
func isParseError(err error) bool {
	var perr *jsast.ParseError
	if errors.As(err, &perr) {
		return true
	}
	var derr *diag.Error
	if errors.As(err, &derr) {
		return derr.Kind == diag.KindParseError
	}
	return false
}

// runOptions is what a single invocation of the pipeline needs, assembled
// from cfg plus CLI flags.
type runOptions struct {
	cfg          *config.Config
	deobfuscate  bool
	passFlags    passFlags
	sourceMaps   bool
	showDiff     bool
	cacheDSN     string
}

// deobfuscateSource runs the full pipeline (or, with --deobfuscate=false,
// a parse-and-reprint passthrough) over source, returning the printed
// output and the run report.
func deobfuscateSource(ctx context.Context, opts runOptions, filename string, source []byte) (string, diag.RunReport, error) {
	pipeOpts := opts.cfg.PipelineOptions()
	if !opts.deobfuscate {
		pipeOpts.EnableOnly()
	}
	if err := opts.passFlags.applyTo(&pipeOpts); err != nil {
		return "", diag.RunReport{}, err
	}

	var (
		st            *store.Store
		inputDigest   string
		optionsDigest string
	)
	if opts.cacheDSN != "" {
		db, err := store.Connect(opts.cacheDSN, false)
		if err == nil {
			st = store.New(db)
			inputDigest = store.Digest(source)
			optionsDigest = store.Digest(optionsFingerprint(pipeOpts, opts.cfg.PrinterOptions()))
			if rec, err := st.Lookup(inputDigest, optionsDigest); err == nil && rec != nil {
				return rec.Output, diag.RunReport{}, nil
			}
		}
	}

	logger := diag.NewLogger(os.Stderr, diag.LevelWarn)
	engine := pipeline.NewEngine(allPasses(), logger)

	start := time.Now()
	result, err := engine.Run(ctx, source, pipeOpts)
	if err != nil {
		return "", diag.RunReport{}, fmt.Errorf("%s: pipeline failed: %w", filename, err)
	}
	elapsed := time.Since(start)

	tree, perr := parseFinal(ctx, result.Output)
	if perr != nil {
		return "", result.Report, perr
	}
	defer tree.Close()
	printed := printer.Print(tree, opts.cfg.PrinterOptions())

	if st != nil {
		stats := make([]store.PassStat, 0, len(result.Report.Passes))
		for _, p := range result.Report.Passes {
			stats = append(stats, store.PassStat{
				Pass: p.Pass, Iterations: p.Iterations, Rewrites: p.Rewrites,
				PatternMismatches: p.PatternMismatches, GuardFailures: p.SemanticGuardFailures,
				BudgetExceeded: p.BudgetExceeded,
			})
		}
		_ = st.Record(inputDigest, optionsDigest, string(source), printed, stats, result.Report.TotalRewrites(), elapsed)
	}

	if opts.sourceMaps {
		_ = writeSourceMapStub(filename, source, printed)
	}

	return printed, result.Report, nil
}

// optionsFingerprint renders the option bag into a stable byte string for
// the store's cache key; field order is fixed so the digest is
// deterministic across runs.
func optionsFingerprint(p pipeline.DeobfuscateOptions, pr printer.Options) []byte {
	b, _ := json.Marshal(struct {
		Enabled    [20]bool
		MaxIter    int
		Rename     pipeline.RenameStyle
		Comments   bool
		Webpack    bool
		IndentSize int
		Tabs       bool
	}{p.EnablePass, p.MaxFixedPointIterations, p.RenameStyle, p.PreserveComments, p.AnnotateWebpackModules, pr.IndentSize, pr.IndentWithTabs})
	return b
}

// writeSourceMapStub emits a best-effort source map sidecar: per spec.md's
// Non-goal, jsdeobf does not preserve mappings across transforms. The
// sidecar embeds the original source and carries an empty mappings string;
// the printed output is not recorded in it.
func writeSourceMapStub(filename string, source []byte, printed string) error {
	type v3 struct {
		Version        int      `json:"version"`
		File           string   `json:"file"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Names          []string `json:"names"`
		Mappings       string   `json:"mappings"`
	}
	doc := v3{Version: 3, File: filename, Sources: []string{filename}, SourcesContent: []string{string(source)}, Names: []string{}, Mappings: ""}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_ = printed
	return os.WriteFile(filename+".map", b, 0o644)
}
