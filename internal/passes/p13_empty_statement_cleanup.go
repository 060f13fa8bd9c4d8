package passes

import (
	"github.com/oxhq/jsdeobf/internal/matcher"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// EmptyStatementCleanup is P13 (spec.md §4.2): removes lone `;` statements
// left behind by earlier removals.
var EmptyStatementCleanup = pipeline.Pass{
	ID:    pipeline.P13EmptyStatementCleanup,
	Name:  "P13-empty-statement-cleanup",
	Apply: applyEmptyStatementCleanup,
}

var emptyStatementQuery = matcher.MustNewTreeQuery(`(empty_statement) @target`)

func applyEmptyStatementCleanup(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	targets := emptyStatementQuery.Captures(ctx.Tree.Root, ctx.Source, "target")
	ctx.Report.Visited += len(targets)
	for _, n := range targets {
		edits.Remove(n)
		ctx.Report.RecordRewrite()
	}
	return edits.Len() > 0, nil
}
