package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// TernaryToIf is P16 (spec.md §4.2): a standalone expression statement
// `cond ? A() : B();` becomes `if (cond) A(); else B();`. Does not fire
// when the ternary's value is consumed (i.e. it isn't the whole statement).
var TernaryToIf = pipeline.Pass{
	ID:    pipeline.P16TernaryToIf,
	Name:  "P16-ternary-to-if",
	Apply: applyTernaryToIf,
}

func applyTernaryToIf(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		if n.Type() != jsast.KindExpressionStatement || n.NamedChildCount() != 1 {
			return true
		}
		ternary := n.NamedChild(0)
		if ternary.Type() != jsast.KindTernaryExpression {
			return true
		}
		ctx.Report.Visited++
		cond := ternary.ChildByFieldName("condition")
		cons := ternary.ChildByFieldName("consequence")
		alt := ternary.ChildByFieldName("alternative")
		if cond == nil || cons == nil || alt == nil {
			skip(ctx, false)
			return true
		}
		rewritten := "if (" + cond.Content(src) + ") " + asStatement(cons, src) + " else " + asStatement(alt, src)
		edits.ReplaceText(n, rewritten)
		ctx.Report.RecordRewrite()
		return true
	})

	return edits.Len() > 0, nil
}

// asStatement renders expr as a statement by always appending the `;`
// terminator to its text.
func asStatement(expr *sitter.Node, src []byte) string {
	return expr.Content(src) + ";"
}
