package passes

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// FunctionInlining is P9 (spec.md §4.2): inlines a function with exactly
// one call site, no `this`/`arguments`, and a body that is a single
// `return expr` (the common case emitted by obfuscators for trivial
// helpers), substituting parameters by arguments and removing the callee.
// One-shot: a freshly inlined call site is only re-considered on the next
// driver invocation, not re-entered within this pass (spec.md §5's
// "rewrites... do not re-visit the new subtree until the next pass").
var FunctionInlining = pipeline.Pass{
	ID:         pipeline.P9FunctionInlining,
	Name:       "P9-function-inlining",
	NeedsScope: true,
	Apply:      applyFunctionInlining,
}

func applyFunctionInlining(ctx *pipeline.Context) (bool, error) {
	table := ctx.RequireScope()
	edits := ctx.Edits
	src := ctx.Source

	for _, b := range table.Bindings {
		ctx.Report.Visited++
		fnDecl := b.Decl.Parent()
		if fnDecl == nil || fnDecl.Type() != jsast.KindFunctionDeclaration {
			continue
		}
		if len(b.Reads) != 1 || len(b.Writes) != 0 {
			continue
		}
		if !eligibleForInlining(fnDecl, src) {
			skip(ctx, true)
			continue
		}
		callRef := b.Reads[0]
		call := callRef.Parent()
		if call == nil || call.Type() != jsast.KindCallExpression || call.ChildByFieldName("function") != callRef {
			skip(ctx, false)
			continue
		}
		body := inlineBody(fnDecl, call, src)
		if body == "" {
			skip(ctx, true)
			continue
		}
		edits.ReplaceText(call, body)
		edits.Remove(fnDecl)
		ctx.Report.RecordRewrite()
	}

	return edits.Len() > 0, nil
}

// eligibleForInlining checks spec.md P9's preconditions on the body: no
// this, no arguments object, no recursive self-reference. The body's shape
// (a single `return expr`) is checked separately by inlineBody.
func eligibleForInlining(fnDecl *sitter.Node, src []byte) bool {
	name := fnDecl.ChildByFieldName("name")
	body := fnDecl.ChildByFieldName("body")
	if body == nil || name == nil {
		return false
	}
	selfName := name.Content(src)
	eligible := true
	jsast.Inspect(body, func(n *sitter.Node) bool {
		switch n.Type() {
		case "this":
			eligible = false
		case jsast.KindIdentifier:
			if n.Content(src) == selfName || n.Content(src) == "arguments" {
				eligible = false
			}
		}
		return eligible
	})
	return eligible
}

// inlineBody renders the substituted body text for a call, or "" if the
// body shape isn't a single `return expr`.
func inlineBody(fnDecl, call *sitter.Node, src []byte) string {
	body := fnDecl.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() != 1 {
		return ""
	}
	ret := body.NamedChild(0)
	if ret.Type() != jsast.KindReturnStatement {
		return ""
	}
	value := ret.ChildByFieldName("argument")
	if value == nil {
		return ""
	}

	params := fnDecl.ChildByFieldName("parameters")
	args := call.ChildByFieldName("arguments")
	subst := map[string]string{}
	if params != nil && args != nil {
		pc := int(params.NamedChildCount())
		ac := int(args.NamedChildCount())
		for i := 0; i < pc; i++ {
			p := params.NamedChild(i)
			if p.Type() != jsast.KindIdentifier {
				return "" // destructuring/rest params: too risky to substitute textually
			}
			if i < ac {
				subst[p.Content(src)] = args.NamedChild(i).Content(src)
			} else {
				subst[p.Content(src)] = "undefined"
			}
		}
	}
	return substituteIdentifiers(value, src, subst)
}

// substituteIdentifiers performs a textual alpha-rename of every free
// identifier reference in n matching a key of subst, skipping property
// names (obj.param must not be substituted) and nested function params that
// shadow the outer name.
func substituteIdentifiers(n *sitter.Node, src []byte, subst map[string]string) string {
	type repl struct {
		start, end uint32
		text       string
	}
	var repls []repl
	jsast.Inspect(n, func(c *sitter.Node) bool {
		if jsast.IsFunctionLike(c) {
			params := jsast.NamedChildren(c.ChildByFieldName("parameters"))
			if p := c.ChildByFieldName("parameter"); p != nil {
				params = append(params, p)
			}
			for _, p := range params {
				if _, shadowed := subst[p.Content(src)]; shadowed {
					return false
				}
			}
		}
		if c.Type() != jsast.KindIdentifier {
			return true
		}
		parent := c.Parent()
		if parent != nil && parent.Type() == jsast.KindMemberExpression && parent.ChildByFieldName("property") == c {
			return true
		}
		if text, ok := subst[c.Content(src)]; ok {
			repls = append(repls, repl{c.StartByte(), c.EndByte(), text})
		}
		return true
	})

	base := n.StartByte()
	out := n.Content(src)
	if len(repls) == 0 {
		return out
	}
	var sb strings.Builder
	cursor := base
	for _, r := range repls {
		sb.Write(src[cursor:r.start])
		sb.WriteString(r.text)
		cursor = r.end
	}
	sb.Write(src[cursor:n.EndByte()])
	return sb.String()
}
