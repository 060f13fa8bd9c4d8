package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// OperatorProxyInlining is P5 (spec.md §4.2): `function f(a,b){ return a op
// b }` obscures an operator application; each call `f(x,y)` becomes `x op
// y`, and f is removed once its read count reaches zero.
var OperatorProxyInlining = pipeline.Pass{
	ID:         pipeline.P5OperatorProxyInlining,
	Name:       "P5-operator-proxy-inlining",
	NeedsScope: true,
	Apply:      applyOperatorProxyInlining,
}

func applyOperatorProxyInlining(ctx *pipeline.Context) (bool, error) {
	table := ctx.RequireScope()
	edits := ctx.Edits
	src := ctx.Source

	for _, b := range table.Bindings {
		ctx.Report.Visited++
		fnDecl := b.Decl.Parent()
		if fnDecl == nil || fnDecl.Type() != jsast.KindFunctionDeclaration {
			continue
		}
		op, ok := operatorShape(fnDecl, src)
		if !ok {
			skip(ctx, false)
			continue
		}
		rewritten := 0
		for _, ref := range b.Reads {
			call := ref.Parent()
			if call == nil || call.Type() != jsast.KindCallExpression || call.ChildByFieldName("function") != ref {
				continue
			}
			args := call.ChildByFieldName("arguments")
			if args == nil || int(args.NamedChildCount()) != 2 {
				skip(ctx, true)
				continue
			}
			x := args.NamedChild(0).Content(src)
			y := args.NamedChild(1).Content(src)
			edits.ReplaceText(call, x+" "+op+" "+y)
			ctx.Report.RecordRewrite()
			rewritten++
		}
		if rewritten > 0 && rewritten == len(b.Reads) {
			edits.Remove(fnDecl)
		}
	}

	return edits.Len() > 0, nil
}

// operatorShape recognizes `function f(a,b){ return a OP b }` for a single
// binary/logical/comparison operator applied to the two parameters in
// order, with no other side effect.
func operatorShape(fnDecl *sitter.Node, src []byte) (op string, ok bool) {
	params := fnDecl.ChildByFieldName("parameters")
	body := fnDecl.ChildByFieldName("body")
	if params == nil || body == nil || params.NamedChildCount() != 2 || body.NamedChildCount() != 1 {
		return "", false
	}
	p0, p1 := params.NamedChild(0), params.NamedChild(1)
	if p0.Type() != jsast.KindIdentifier || p1.Type() != jsast.KindIdentifier {
		return "", false
	}
	ret := body.NamedChild(0)
	if ret.Type() != jsast.KindReturnStatement {
		return "", false
	}
	expr := ret.ChildByFieldName("argument")
	if expr == nil {
		return "", false
	}
	switch expr.Type() {
	case jsast.KindBinaryExpression, jsast.KindLogicalExpression:
	default:
		return "", false
	}
	left := expr.ChildByFieldName("left")
	right := expr.ChildByFieldName("right")
	opNode := expr.ChildByFieldName("operator")
	if left == nil || right == nil || opNode == nil {
		return "", false
	}
	if left.Content(src) != p0.Content(src) || right.Content(src) != p1.Content(src) {
		return "", false
	}
	return opNode.Content(src), true
}
