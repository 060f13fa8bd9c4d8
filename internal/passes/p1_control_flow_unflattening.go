package passes

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/matcher"
	"github.com/oxhq/jsdeobf/internal/pipeline"
	"github.com/oxhq/jsdeobf/internal/scope"
)

// ControlFlowUnflatten is P1 (spec.md §4.2, grounded on seed scenario 3): a
//
//	while (true) {
//	  switch (dispatcher[cursor++]) {
//	    case K1: ...; continue;
//	    case K2: ...; continue;
//	    ...
//	    case Kn: ...; break;
//	  }
//	  break;
//	}
//
// where dispatcher is assigned exactly once from a literal sequence (a
// `"a|b|c".split("|")` call), is rewritten to the straight-line
// concatenation of case bodies in the order the dispatch sequence names
// them, with every trailing `continue`/`break` stripped. Per the spec's
// Open Question decision (spec.md §9), only this exact `while(true){switch}`
// shape is recognized; `for(;;)` dispatchers and computed jump tables are
// detected and left alone rather than guessed at.
var ControlFlowUnflatten = pipeline.Pass{
	ID:         pipeline.P1ControlFlowUnflatten,
	Name:       "P1-control-flow-unflattening",
	NeedsScope: true,
	Apply:      applyControlFlowUnflatten,
}

func applyControlFlowUnflatten(ctx *pipeline.Context) (bool, error) {
	table := ctx.RequireScope()
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		if n.Type() != "while_statement" {
			return true
		}
		ctx.Report.Visited++
		if tryUnflatten(n, table, edits, ctx, src) {
			return false // this subtree was replaced; don't descend into stale children
		}
		return true
	})

	return edits.Len() > 0, nil
}

func tryUnflatten(whileNode *sitter.Node, table *scope.Table, edits *jsast.EditSet, ctx *pipeline.Context, src []byte) bool {
	cond := whileNode.ChildByFieldName("condition")
	if cond == nil || strings.TrimSpace(unwrapParens(cond).Content(src)) != "true" {
		return false
	}
	body := whileNode.ChildByFieldName("body")
	if body == nil || body.Type() != jsast.KindStatementBlock {
		skip(ctx, false)
		return false
	}
	stmts := statementList(body)
	if len(stmts) != 2 || stmts[0].Type() != jsast.KindSwitchStatement || stmts[1].Type() != jsast.KindBreakStatement {
		skip(ctx, false)
		return false
	}
	if hasLabel(stmts[1]) {
		skip(ctx, true)
		return false
	}
	switchStmt := stmts[0]

	discriminant := unwrapParens(switchStmt.ChildByFieldName("value"))
	if discriminant == nil || discriminant.Type() != jsast.KindSubscriptExpression {
		skip(ctx, false)
		return false
	}
	dispatcherIdent := discriminant.ChildByFieldName("object")
	cursorExpr := discriminant.ChildByFieldName("index")
	if dispatcherIdent == nil || dispatcherIdent.Type() != jsast.KindIdentifier || cursorExpr == nil {
		skip(ctx, false)
		return false
	}
	cursorIdent, ok := matchPostIncrement(cursorExpr, src)
	if !ok {
		skip(ctx, true)
		return false
	}

	sequence, dispatcherBinding, ok := dispatchSequence(table, dispatcherIdent.Content(src), src)
	if !ok {
		skip(ctx, true)
		return false
	}

	cases, ok := collectCaseBodies(switchStmt, src)
	if !ok {
		skip(ctx, true)
		return false
	}

	var ordered []string
	for _, value := range sequence {
		body, ok := cases[value]
		if !ok {
			skip(ctx, true)
			return false
		}
		ordered = append(ordered, body)
	}

	edits.ReplaceText(whileNode, strings.Join(ordered, " "))
	ctx.Report.RecordRewrite()

	cursorBinding := lookupBindingByName(table, cursorIdent)
	removeDispatchBindings(dispatcherBinding, cursorBinding, edits, ctx)

	return true
}

func hasLabel(n *sitter.Node) bool {
	return n.ChildByFieldName("label") != nil
}

// matchPostIncrement recognizes `cursorIdent++` and returns cursorIdent's
// name.
func matchPostIncrement(n *sitter.Node, src []byte) (string, bool) {
	if n.Type() != jsast.KindUpdateExpression {
		return "", false
	}
	text := n.Content(src)
	if !strings.HasSuffix(text, "++") {
		return "", false
	}
	operand := strings.TrimSuffix(text, "++")
	if operand == "" || !isValidIdentifierName(operand) {
		return "", false
	}
	return operand, true
}

// dispatcherSplitShape recognizes `"literal".split("sep")`, capturing the
// literal string under "literal" and the call's argument list under "args".
var dispatcherSplitShape = matcher.And(
	matcher.Type(jsast.KindCallExpression),
	matcher.Child("function", matcher.And(
		matcher.Type(jsast.KindMemberExpression),
		matcher.Child("property", matcher.Text("split")),
		matcher.Child("object", matcher.Capture("literal", matcher.Type(jsast.KindString))),
	)),
	matcher.Child("arguments", matcher.Capture("args", matcher.Any())),
)

// dispatchSequence resolves dispatcherName to a binding assigned exactly
// once from `"literal".split("sep")`, and returns the resulting string
// sequence. The "assigned exactly once" constraint is not structural (it
// depends on the binding's usage outside the shape being matched), so it's
// expressed as a Guard closing over the resolved binding rather than folded
// into dispatcherSplitShape itself.
func dispatchSequence(table *scope.Table, dispatcherName string, src []byte) ([]string, *scope.Binding, bool) {
	binding := lookupBindingByName(table, dispatcherName)
	if binding == nil {
		return nil, nil, false
	}
	declarator := binding.Decl.Parent()
	if declarator == nil || declarator.Type() != jsast.KindVariableDeclarator {
		return nil, nil, false
	}
	init := declarator.ChildByFieldName("value")
	if init == nil {
		return nil, nil, false
	}

	assignedOnce := matcher.Guard(dispatcherSplitShape, func(*matcher.Env) bool {
		return len(binding.Writes) == 0
	})
	env, ok := matcher.Match(assignedOnce, init, src)
	if !ok {
		return nil, nil, false
	}

	literal, ok := stringLiteralValue(env.Node("literal"), src)
	if !ok {
		return nil, nil, false
	}
	args := jsast.NamedChildren(env.Node("args"))
	if len(args) != 1 {
		return nil, nil, false
	}
	sep, ok := stringLiteralValue(args[0], src)
	if !ok {
		return nil, nil, false
	}
	return strings.Split(literal, sep), binding, true
}

// collectCaseBodies maps each case's string literal test value to its body
// text with the trailing continue/break stripped, verifying every case ends
// in exactly one of those two and never falls through.
func collectCaseBodies(switchStmt *sitter.Node, src []byte) (map[string]string, bool) {
	body := switchStmt.ChildByFieldName("body")
	if body == nil {
		return nil, false
	}
	out := map[string]string{}
	count := int(body.NamedChildCount())
	for i := 0; i < count; i++ {
		c := body.NamedChild(i)
		if c.Type() != jsast.KindSwitchCase {
			if c.Type() == jsast.KindSwitchDefault {
				return nil, false // default case has no dispatch value; unsupported shape
			}
			continue
		}
		value := c.ChildByFieldName("value")
		if value == nil {
			return nil, false
		}
		testValue, ok := stringLiteralValue(value, src)
		if !ok {
			return nil, false
		}

		var bodyStmts []*sitter.Node
		namedCount := int(c.NamedChildCount())
		for j := 0; j < namedCount; j++ {
			stmt := c.NamedChild(j)
			if stmt == value {
				continue
			}
			bodyStmts = append(bodyStmts, stmt)
		}
		if len(bodyStmts) == 0 {
			return nil, false
		}
		last := bodyStmts[len(bodyStmts)-1]
		if (last.Type() != jsast.KindContinueStatement && last.Type() != jsast.KindBreakStatement) || hasLabel(last) {
			return nil, false // falls through or exits via labeled jump: unsupported
		}
		bodyStmts = bodyStmts[:len(bodyStmts)-1]

		parts := make([]string, len(bodyStmts))
		for j, s := range bodyStmts {
			parts[j] = s.Content(src)
		}
		if _, dup := out[testValue]; dup {
			return nil, false
		}
		out[testValue] = strings.Join(parts, " ")
	}
	return out, true
}

// removeDispatchBindings removes the dispatcher's and cursor's declarators
// when the flattening construct was each one's only use. When both share
// one declaration statement (`var s = ..., i = 0`) and both become
// eligible, the whole statement is removed at once rather than leaving a
// declaration with zero declarators behind.
func removeDispatchBindings(dispatcher, cursor *scope.Binding, edits *jsast.EditSet, ctx *pipeline.Context) {
	var declarators []*sitter.Node
	for _, b := range []*scope.Binding{dispatcher, cursor} {
		if b == nil || len(b.Reads)+len(b.Writes) > 1 {
			continue
		}
		declarator := b.Decl.Parent()
		if declarator == nil || declarator.Type() != jsast.KindVariableDeclarator {
			continue
		}
		declarators = append(declarators, declarator)
	}
	if len(declarators) == 0 {
		return
	}
	if len(declarators) == 2 && declarators[0].Parent() == declarators[1].Parent() {
		decl := declarators[0].Parent()
		if len(jsast.ChildrenByType(decl, jsast.KindVariableDeclarator)) == 2 {
			edits.Remove(decl)
			ctx.Report.RecordRewrite()
			return
		}
	}
	for _, d := range declarators {
		removeDeclarator(d, edits, ctx)
	}
}
