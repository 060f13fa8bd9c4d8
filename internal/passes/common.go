// Package passes implements the 19 named rewrites (spec.md §4.2), one file
// per pass, each recognizing a syntactic shape and rewriting it via
// byte-range Edit — the same idiom as termfx-morfx's core/manipulator.go
// applyMatches and the PHP obfuscator's per-node-type traverser switch.
// Shapes expressible as a tree-sitter query or a composable guard/capture
// predicate (P1's dispatcher-assigned-once check, P3's decoder subscript
// recognition, P13's empty-statement scan, P19's module-map scan) go
// through internal/matcher; shapes that need deeper procedural traversal
// (multi-statement bodies, scope-binding lookups, array literal inlining)
// walk internal/ast directly.
package passes

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// isValidIdentifierName reports whether s could legally appear as a bare
// property name (obj.s) instead of a bracketed string literal (spec.md P6:
// `obj["literal"]` -> `obj.literal`).
func isValidIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if i > 0 && !isLetter && !isDigit {
			return false
		}
	}
	return !jsReservedWords[s]
}

var jsReservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "export": true, "extends": true, "finally": true, "for": true,
	"function": true, "if": true, "import": true, "in": true, "instanceof": true,
	"new": true, "return": true, "super": true, "switch": true, "this": true,
	"throw": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true, "let": true, "static": true,
	"null": true, "true": true, "false": true,
}

// stringLiteralValue returns the unescaped contents of a JS string node
// (single- or double-quoted), or ok=false if n isn't a simple string
// literal.
func stringLiteralValue(n *sitter.Node, src []byte) (string, bool) {
	if n == nil || n.Type() != jsast.KindString {
		return "", false
	}
	count := int(n.NamedChildCount())
	var sb strings.Builder
	for i := 0; i < count; i++ {
		frag := n.NamedChild(i)
		if frag.Type() != jsast.KindStringFragment {
			return "", false // escape sequence node: leave to the printer/original text
		}
		sb.WriteString(frag.Content(src))
	}
	return sb.String(), true
}

// numberLiteralValue parses a JS numeric literal node's value.
func numberLiteralValue(n *sitter.Node, src []byte) (float64, bool) {
	if n == nil || n.Type() != jsast.KindNumber {
		return 0, false
	}
	text := strings.ReplaceAll(n.Content(src), "_", "")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// intLiteralValue is numberLiteralValue as an int, for array indices and
// loop seeds; a literal with a fractional part is rejected.
func intLiteralValue(n *sitter.Node, src []byte) (int, bool) {
	v, ok := numberLiteralValue(n, src)
	if !ok || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}

// isPure reports whether evaluating n can have no side effect and cannot
// throw: literals, identifiers, and pure unary/binary combinations thereof.
// Used by P7/P8/P9/P10's "no calls, no member access, no new" guards.
func isPure(n *sitter.Node) bool {
	if n == nil {
		return true
	}
	switch n.Type() {
	case jsast.KindCallExpression, jsast.KindNewExpression, jsast.KindMemberExpression,
		jsast.KindSubscriptExpression, jsast.KindAssignmentExpression, jsast.KindAugmentedAssignment,
		jsast.KindUpdateExpression, "yield_expression":
		return false
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if !isPure(n.Child(i)) {
			return false
		}
	}
	return true
}

// statementList returns the direct statement children of a block (or
// program), skipping braces.
func statementList(block *sitter.Node) []*sitter.Node {
	if block == nil {
		return nil
	}
	var out []*sitter.Node
	count := int(block.NamedChildCount())
	for i := 0; i < count; i++ {
		out = append(out, block.NamedChild(i))
	}
	return out
}

// isTerminator reports whether n unconditionally transfers control
// (return/throw/break/continue), used by P7's unreachable-code removal.
func isTerminator(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case jsast.KindReturnStatement, jsast.KindThrowStatement, jsast.KindBreakStatement, jsast.KindContinueStatement:
		return true
	}
	return false
}

// skip records a PatternMismatch/SemanticGuardFailure counter without
// treating the pass invocation as failed: spec.md §4.2's "fail soft" rule.
func skip(ctx *pipeline.Context, guardFailure bool) {
	if guardFailure {
		ctx.Report.RecordGuardFailure()
	} else {
		ctx.Report.RecordMismatch()
	}
}
