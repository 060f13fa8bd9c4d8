package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// CallProxyInlining is P4 (spec.md §4.2): `function f(){ return
// g.apply(this, arguments) }` or `function f(a,b){ return g(a,b) }` forwards
// every call to g; each call to f is rewritten to call g directly, and f is
// removed once its read count reaches zero.
var CallProxyInlining = pipeline.Pass{
	ID:         pipeline.P4CallProxyInlining,
	Name:       "P4-call-proxy-inlining",
	NeedsScope: true,
	Apply:      applyCallProxyInlining,
}

func applyCallProxyInlining(ctx *pipeline.Context) (bool, error) {
	table := ctx.RequireScope()
	edits := ctx.Edits
	src := ctx.Source

	for _, b := range table.Bindings {
		ctx.Report.Visited++
		fnDecl := b.Decl.Parent()
		if fnDecl == nil || fnDecl.Type() != jsast.KindFunctionDeclaration {
			continue
		}
		target, ok := proxyTarget(fnDecl, src)
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
			edits.ReplaceText(ref, target)
			ctx.Report.RecordRewrite()
			rewritten++
		}
		if rewritten > 0 && rewritten == len(b.Reads) {
			edits.Remove(fnDecl)
		}
	}

	return edits.Len() > 0, nil
}

// proxyTarget recognizes the two call-proxy shapes and returns the
// forwarded-to callee's name.
func proxyTarget(fnDecl *sitter.Node, src []byte) (string, bool) {
	body := fnDecl.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() != 1 {
		return "", false
	}
	ret := body.NamedChild(0)
	if ret.Type() != jsast.KindReturnStatement {
		return "", false
	}
	call := ret.ChildByFieldName("argument")
	if call == nil || call.Type() != jsast.KindCallExpression {
		return "", false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}

	params := fnDecl.ChildByFieldName("parameters")

	// function f(){ return g.apply(this, arguments) }
	if fn.Type() == jsast.KindMemberExpression {
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil || prop.Content(src) != "apply" {
			return "", false
		}
		args := call.ChildByFieldName("arguments")
		if args == nil || int(args.NamedChildCount()) != 2 {
			return "", false
		}
		if args.NamedChild(0).Type() != "this" || args.NamedChild(1).Content(src) != "arguments" {
			return "", false
		}
		if params != nil && params.NamedChildCount() != 0 {
			return "", false
		}
		return obj.Content(src), true
	}

	// function f(a,b){ return g(a,b) }
	if fn.Type() == jsast.KindIdentifier {
		args := call.ChildByFieldName("arguments")
		if params == nil || args == nil || params.NamedChildCount() != args.NamedChildCount() {
			return "", false
		}
		pc := int(params.NamedChildCount())
		for i := 0; i < pc; i++ {
			p := params.NamedChild(i)
			a := args.NamedChild(i)
			if p.Type() != jsast.KindIdentifier || a.Type() != jsast.KindIdentifier || p.Content(src) != a.Content(src) {
				return "", false
			}
		}
		return fn.Content(src), true
	}
	return "", false
}
