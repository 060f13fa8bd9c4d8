package pipeline

import (
	"context"

	"github.com/google/uuid"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/diag"
)

// Engine runs the fixed, ordered sequence of passes (spec.md §4.3) against
// one source buffer.
type Engine struct {
	Passes []Pass
	Logger *diag.Logger
}

// NewEngine returns an Engine over the given passes in their declared
// order, with diagnostics written to logger (if nil, a warn-level logger
// writing to stderr).
func NewEngine(passes []Pass, logger *diag.Logger) *Engine {
	if logger == nil {
		logger = diag.NewLogger(nil, diag.LevelWarn)
	}
	return &Engine{Passes: passes, Logger: logger}
}

// Result is the outcome of one deobfuscate() call.
type Result struct {
	RunID  string
	Output []byte
	Report diag.RunReport
}

// Run implements the pipeline entry point `deobfuscate(ast, options) -> ast`
// (spec.md §6), taking and returning source text since the AST facade is
// reconstructed fresh each generation.
func (e *Engine) Run(ctx context.Context, source []byte, opts DeobfuscateOptions) (*Result, error) {
	runID := uuid.NewString()
	e.Logger.Info("run started", diag.Fields{"run_id": runID, "bytes": len(source)})

	tree, err := jsast.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &Result{RunID: runID}

	for _, pass := range e.Passes {
		if !opts.Enabled(pass.ID) {
			continue
		}

		report := diag.PassReport{Pass: pass.Name}
		if pass.FixedPoint {
			tree, err = e.runFixedPoint(ctx, pass, tree, opts, &report)
		} else {
			tree, err = e.runOnce(ctx, pass, tree, opts, &report)
		}
		result.Report.Passes = append(result.Report.Passes, report)
		if err != nil {
			result.Report.Err = err
			return result, err
		}
		e.Logger.Info("pass finished", diag.Fields{
			"run_id": runID, "pass": pass.Name, "rewrites": report.Rewrites,
			"mismatches": report.PatternMismatches, "guard_failures": report.SemanticGuardFailures,
		})
	}

	result.Output = tree.Source
	e.Logger.Info("run finished", diag.Fields{"run_id": runID, "rewrites": result.Report.TotalRewrites()})
	return result, nil
}

// runOnce invokes a one-shot pass exactly one time, applies its edits, and
// reparses for the next pass.
func (e *Engine) runOnce(ctx context.Context, pass Pass, tree *jsast.Tree, opts DeobfuscateOptions, report *diag.PassReport) (*jsast.Tree, error) {
	report.Iterations = 1
	next, _, err := e.invoke(ctx, pass, tree, opts, report)
	return next, err
}

// runFixedPoint repeats pass until it reports no change or the iteration
// cap is reached (spec.md §4.2 P6/P7/P8; §7.5 BudgetExceeded).
func (e *Engine) runFixedPoint(ctx context.Context, pass Pass, tree *jsast.Tree, opts DeobfuscateOptions, report *diag.PassReport) (*jsast.Tree, error) {
	maxIter := opts.MaxFixedPointIterations
	if maxIter <= 0 {
		maxIter = 50
	}
	cur := tree
	for i := 0; i < maxIter; i++ {
		report.Iterations = i + 1
		next, changed, err := e.invoke(ctx, pass, cur, opts, report)
		if err != nil {
			return next, err
		}
		cur = next
		if !changed {
			return cur, nil
		}
	}
	report.BudgetExceeded = true
	e.Logger.Warn("fixed-point iteration cap reached", diag.Fields{"pass": pass.Name, "cap": maxIter})
	return cur, nil
}

// invoke runs pass once against tree: plan edits, apply them, reparse, and
// validate the new generation's well-formedness.
func (e *Engine) invoke(ctx context.Context, pass Pass, tree *jsast.Tree, opts DeobfuscateOptions, report *diag.PassReport) (*jsast.Tree, bool, error) {
	passCtx := &Context{
		Tree:    tree,
		Source:  tree.Source,
		Edits:   jsast.NewEditSet(),
		Report:  report,
		Logger:  e.Logger,
		Options: opts,
	}
	if pass.NeedsScope {
		passCtx.RequireScope()
	}

	changed, err := pass.Apply(passCtx)
	if err != nil {
		return tree, false, diag.Wrap(diag.KindInvariantViolation, pass.Name, err.Error(), err)
	}
	if !changed || passCtx.Edits.Len() == 0 {
		return tree, false, nil
	}

	newSource, err := passCtx.Edits.Apply(tree.Source)
	if err != nil {
		return tree, false, diag.Wrap(diag.KindInvariantViolation, pass.Name, "edit application failed", err)
	}

	newTree, err := jsast.Reparse(ctx, newSource)
	if err != nil {
		return tree, false, diag.Wrap(diag.KindInvariantViolation, pass.Name, "pass produced unparseable output", err)
	}
	tree.Close()
	return newTree, true, nil
}
