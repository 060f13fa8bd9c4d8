package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// IIFEUnwrapping is P18 (spec.md §4.2): `(() => { ... })()` and `(function
// (){ ... })()` with zero parameters and zero arguments, and whose body
// contains no `this`/`arguments`/value-consuming `return`, are replaced by
// their body's statements inlined at the call site.
var IIFEUnwrapping = pipeline.Pass{
	ID:    pipeline.P18IIFEUnwrapping,
	Name:  "P18-iife-unwrapping",
	Apply: applyIIFEUnwrapping,
}

func applyIIFEUnwrapping(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		if n.Type() != jsast.KindCallExpression {
			return true
		}
		ctx.Report.Visited++
		fn := unwrapParens(n.ChildByFieldName("function"))
		args := n.ChildByFieldName("arguments")
		if fn == nil || args == nil || args.NamedChildCount() != 0 {
			return true
		}
		if fn.Type() != jsast.KindFunctionExpression && fn.Type() != jsast.KindArrowFunction {
			return true
		}
		params := fn.ChildByFieldName("parameters")
		if params != nil && params.NamedChildCount() != 0 {
			skip(ctx, true)
			return true
		}
		body := fn.ChildByFieldName("body")
		if body == nil || body.Type() != jsast.KindStatementBlock {
			skip(ctx, true)
			return true
		}
		if usesThisOrArgumentsOrValueReturn(body, src) {
			skip(ctx, true)
			return true
		}

		stmt := n.Parent()
		if stmt == nil || stmt.Type() != jsast.KindExpressionStatement {
			skip(ctx, true)
			return true
		}
		edits.ReplaceText(stmt, innerStatements(body, src))
		ctx.Report.RecordRewrite()
		return true
	})

	return edits.Len() > 0, nil
}

func usesThisOrArgumentsOrValueReturn(body *sitter.Node, src []byte) (bad bool) {
	jsast.Inspect(body, func(n *sitter.Node) bool {
		if jsast.IsFunctionLike(n) && n != body.Parent() {
			return false // don't look inside nested functions' own this/arguments
		}
		switch n.Type() {
		case "this":
			bad = true
		case jsast.KindIdentifier:
			if n.Content(src) == "arguments" {
				bad = true
			}
		case jsast.KindReturnStatement:
			if n.ChildByFieldName("argument") != nil {
				bad = true
			}
		}
		return !bad
	})
	return bad
}

func innerStatements(body *sitter.Node, src []byte) string {
	stmts := statementList(body)
	out := ""
	for i, s := range stmts {
		if i > 0 {
			out += " "
		}
		out += s.Content(src)
	}
	return out
}
