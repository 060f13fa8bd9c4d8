package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// DeadCodeElimination is P7 (spec.md §4.2): removes statements after an
// unconditional terminator within the same block, collapses `if(false)`/
// `if(true)`, drops `while(false)` loops, and removes empty blocks that sit
// alongside other statements. Fixed-point: removing one block's trailing
// dead code can expose another terminator (e.g. inside the branch that
// If(true)-collapsing just inlined).
var DeadCodeElimination = pipeline.Pass{
	ID:         pipeline.P7DeadCodeElimination,
	Name:       "P7-dead-code-elimination",
	FixedPoint: true,
	Apply:      applyDeadCodeElimination,
}

func applyDeadCodeElimination(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		ctx.Report.Visited++
		switch n.Type() {
		case jsast.KindStatementBlock, jsast.KindProgram:
			removeUnreachableTail(n, src, edits, ctx)
		case jsast.KindIfStatement:
			collapseConstantIf(n, src, edits, ctx)
		case jsast.KindWhileStatement:
			removeWhileFalse(n, src, edits, ctx)
		}
		return true
	})

	return edits.Len() > 0, nil
}

// removeUnreachableTail deletes every statement following a terminator
// within block, and any lone empty block sitting among siblings.
func removeUnreachableTail(block *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	stmts := statementList(block)
	terminatorAt := -1
	for i, s := range stmts {
		if isTerminator(s) {
			terminatorAt = i
			break
		}
	}
	if terminatorAt >= 0 && terminatorAt < len(stmts)-1 {
		for _, dead := range stmts[terminatorAt+1:] {
			edits.Remove(dead)
			ctx.Report.RecordRewrite()
		}
	}

	for _, s := range stmts {
		if len(stmts) > 1 && s.Type() == jsast.KindStatementBlock && s.NamedChildCount() == 0 {
			edits.Remove(s)
			ctx.Report.RecordRewrite()
		}
	}
}

// collapseConstantIf replaces `if (true) A else B` with A, replaces
// `if (false) A else B` with B, and removes an `if (false) A` that has no
// else branch entirely (spec.md P7 rule 2).
func collapseConstantIf(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	cond := n.ChildByFieldName("condition")
	cons := n.ChildByFieldName("consequence")
	alt := n.ChildByFieldName("alternative")
	if cond == nil || cons == nil {
		return
	}
	// tree-sitter wraps the condition in parentheses: ( expr )
	inner := cond
	if cond.NamedChildCount() == 1 {
		inner = cond.NamedChild(0)
	}
	switch {
	case inner.Type() == jsast.KindTrue:
		edits.ReplaceText(n, cons.Content(src))
		ctx.Report.RecordRewrite()
	case inner.Type() == jsast.KindFalse:
		if alt != nil && alt.Type() == "else_clause" && alt.NamedChildCount() > 0 {
			alt = alt.NamedChild(0) // the statement after the `else` keyword
		}
		if alt != nil {
			edits.ReplaceText(n, alt.Content(src))
		} else {
			edits.Remove(n)
		}
		ctx.Report.RecordRewrite()
	}
}

// removeWhileFalse deletes a `while(false) ...` loop outright.
func removeWhileFalse(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	cond := n.ChildByFieldName("condition")
	if cond == nil {
		return
	}
	inner := cond
	if cond.NamedChildCount() == 1 {
		inner = cond.NamedChild(0)
	}
	if inner.Type() == jsast.KindFalse {
		edits.Remove(n)
		ctx.Report.RecordRewrite()
	}
}
