package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// ShortCircuitToIf is P17 (spec.md §4.2): `a && b();` as a statement
// becomes `if (a) b();`; `a || b();` becomes `if (!a) b();`. Only fires in
// expression-statement position. When the right-hand operand is itself a
// (possibly parenthesized) sequence expression, its parts are expanded
// into a statement block directly — P14 only splits a sequence that is
// itself the whole statement, so this pass carries the "right side happens
// to be a sequence" case on its own rather than depending on P14 having
// already rewritten code this pass is about to replace anyway.
var ShortCircuitToIf = pipeline.Pass{
	ID:    pipeline.P17ShortCircuitToIf,
	Name:  "P17-short-circuit-to-if",
	Apply: applyShortCircuitToIf,
}

func applyShortCircuitToIf(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		if n.Type() != jsast.KindExpressionStatement || n.NamedChildCount() != 1 {
			return true
		}
		logical := n.NamedChild(0)
		if logical.Type() != jsast.KindLogicalExpression && logical.Type() != jsast.KindBinaryExpression {
			return true
		}
		ctx.Report.Visited++
		opNode := logical.ChildByFieldName("operator")
		left := logical.ChildByFieldName("left")
		right := logical.ChildByFieldName("right")
		if opNode == nil || left == nil || right == nil {
			skip(ctx, false)
			return true
		}
		op := opNode.Content(src)
		if op != "&&" && op != "||" {
			return true
		}

		cond := left.Content(src)
		if op == "||" {
			cond = "!" + parenIfNeeded(left, src)
		}
		body := shortCircuitBody(right, src)
		edits.ReplaceText(n, "if ("+cond+") "+body)
		ctx.Report.RecordRewrite()
		return true
	})

	return edits.Len() > 0, nil
}

func parenIfNeeded(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case jsast.KindIdentifier, jsast.KindCallExpression, jsast.KindMemberExpression, jsast.KindNumber, jsast.KindString:
		return n.Content(src)
	default:
		return "(" + n.Content(src) + ")"
	}
}

// shortCircuitBody renders the right-hand operand as the if-statement's
// body, expanding a sequence expression into a brace block of statements
// (spec.md seed scenario 5: `cond && (a(), b(), c());` -> `if (cond) { a();
// b(); c(); }`).
func shortCircuitBody(right *sitter.Node, src []byte) string {
	seq := unwrapParens(right)
	if seq != nil && seq.Type() == jsast.KindSequenceExpression {
		parts := sequenceParts(seq)
		return "{ " + sequenceAsStatements(parts, src) + " }"
	}
	return right.Content(src) + ";"
}
