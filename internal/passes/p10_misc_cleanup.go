package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// MiscCleanup is P10 (spec.md §4.2): array-literal index unpacking,
// dynamic-property-to-dot conversion applied post-inlining, ternary
// constant folding, and guarded empty-catch removal.
//
// Open question (spec.md §9): empty-catch removal is semantically lossy
// when the guarded block can throw. This implementation takes the spec's
// preferred, safer policy: the rewrite only fires when the try block
// contains no call expression, `new` expression, or member/subscript
// access (the same purity predicate P8 uses for dead-variable removal),
// and a SemanticGuardFailure is always recorded on skip so the refusal is
// visible in diagnostics rather than silently never firing.
var MiscCleanup = pipeline.Pass{
	ID:    pipeline.P10MiscCleanup,
	Name:  "P10-misc-cleanup",
	Apply: applyMiscCleanup,
}

func applyMiscCleanup(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		ctx.Report.Visited++
		switch n.Type() {
		case jsast.KindSubscriptExpression:
			unpackArrayLiteralIndex(n, src, edits, ctx)
			dynamicPropertyToDot(n, src, edits, ctx)
		case jsast.KindTernaryExpression:
			foldConstantTernary(n, src, edits, ctx)
		case jsast.KindTryStatement:
			removeProvablyPureEmptyCatch(n, src, edits, ctx)
		}
		return true
	})

	return edits.Len() > 0, nil
}

// unpackArrayLiteralIndex rewrites `[a,b,c][<int literal>]` to the
// corresponding element (spec.md P10 rule 1).
func unpackArrayLiteralIndex(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	obj := n.ChildByFieldName("object")
	idx := n.ChildByFieldName("index")
	if obj == nil || idx == nil || obj.Type() != jsast.KindArray {
		return
	}
	i, ok := intLiteralValue(idx, src)
	if !ok {
		skip(ctx, false)
		return
	}
	if i < 0 || i >= int(obj.NamedChildCount()) {
		skip(ctx, true)
		return
	}
	elem := obj.NamedChild(i)
	if elem.Type() == jsast.KindSpreadElement {
		skip(ctx, true)
		return
	}
	edits.ReplaceText(n, elem.Content(src))
	ctx.Report.RecordRewrite()
}

// dynamicPropertyToDot rewrites `obj[(literal)]` -> `obj.prop`, the same
// bracket-to-dot rule as P6 but applied here so it also fires on property
// accesses only exposed after P3/P4/P9 inlining replaced a call with a
// literal index.
func dynamicPropertyToDot(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	obj := n.ChildByFieldName("object")
	idx := n.ChildByFieldName("index")
	if obj == nil || idx == nil {
		return
	}
	lit := unwrapParens(idx)
	s, ok := stringLiteralValue(lit, src)
	if !ok || !isValidIdentifierName(s) {
		return
	}
	edits.ReplaceText(n, obj.Content(src)+"."+s)
	ctx.Report.RecordRewrite()
}

// foldConstantTernary replaces `true ? A : B` with A and `false ? A : B`
// with B (spec.md P10 rule 3), in any expression position (unlike P16
// which only handles the statement-position form).
func foldConstantTernary(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	cond := n.ChildByFieldName("condition")
	cons := n.ChildByFieldName("consequence")
	alt := n.ChildByFieldName("alternative")
	if cond == nil || cons == nil || alt == nil {
		return
	}
	switch cond.Type() {
	case jsast.KindTrue:
		edits.ReplaceText(n, cons.Content(src))
		ctx.Report.RecordRewrite()
	case jsast.KindFalse:
		edits.ReplaceText(n, alt.Content(src))
		ctx.Report.RecordRewrite()
	}
}

// removeProvablyPureEmptyCatch implements the guarded policy described
// above: `try { S } catch (_) {}` with no finally becomes `S`, but only
// when S cannot throw under this pass's conservative purity check.
func removeProvablyPureEmptyCatch(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	body := n.ChildByFieldName("body")
	handler := jsast.FindChild(n, jsast.KindCatchClause)
	finalizer := jsast.FindChild(n, jsast.KindFinallyClause)
	if body == nil || handler == nil || finalizer != nil {
		return
	}
	catchBody := handler.ChildByFieldName("body")
	if catchBody == nil || catchBody.NamedChildCount() != 0 {
		return
	}
	if !isPure(body) {
		ctx.Report.RecordGuardFailure()
		ctx.Logger.Debug("P10: empty-catch removal refused, try body may throw", nil)
		return
	}
	edits.ReplaceText(n, innerStatements(body, src))
	ctx.Report.RecordRewrite()
}
