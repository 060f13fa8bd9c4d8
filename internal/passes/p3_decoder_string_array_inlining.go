package passes

import (
	"encoding/base64"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/matcher"
	"github.com/oxhq/jsdeobf/internal/pipeline"
	"github.com/oxhq/jsdeobf/internal/scope"
)

// DecoderInlining is P3 (spec.md §4.2, grounded on seed scenarios 1 and 2):
// a decoder function whose body resolves to `stringArray[idx - offset]`,
// optionally wrapped in `atob(...)`, is recognized structurally. Every call
// to it with a literal first argument is replaced by the string the
// decoder would return, computed by an independent evaluator over the
// decoder's own recognized shape (the "decoder correctness" testable
// property, spec.md §8) rather than by re-parsing and interpreting
// arbitrary decoder bodies. The decoder is removed once every call
// resolves (read count zero); the string array is removed together with
// that decoder only when the decoder holds every read of the array, so an
// array shared by several decoders is kept.
//
// RC4 and XOR/char-offset post-processing are named in spec.md §4.2 as
// possible decoder transforms but are not recognized here: both require
// simulating a key-derived byte stream, which cannot be done by pattern
// matching the decoder's own AST shape without a general-purpose
// interpreter loop — exactly the kind of "guess at it" shortcut the
// Open-Questions policy in spec.md §9 warns against for rotation and
// control-flow detection. Decoders using them are left unrecognized and
// counted as a PatternMismatch.
var DecoderInlining = pipeline.Pass{
	ID:         pipeline.P3DecoderInlining,
	Name:       "P3-decoder-string-array-inlining",
	NeedsScope: true,
	Apply:      applyDecoderInlining,
}

type decoderDescriptor struct {
	binding   *scope.Binding
	fn        *sitter.Node
	idxParam  string
	offset    int
	transform string // "identity" or "base64"
	arrName   string
}

func applyDecoderInlining(ctx *pipeline.Context) (bool, error) {
	table := ctx.RequireScope()
	edits := ctx.Edits
	src := ctx.Source

	var decoders []*decoderDescriptor
	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		if n.Type() != jsast.KindFunctionDeclaration {
			return true
		}
		ctx.Report.Visited++
		if d := detectDecoder(n, table, src); d != nil {
			decoders = append(decoders, d)
		}
		return true
	})
	if len(decoders) == 0 {
		skip(ctx, false)
		return false, nil
	}

	for _, d := range decoders {
		inlineDecoderCalls(d, edits, ctx, src)
	}

	return edits.Len() > 0, nil
}

// detectDecoder recognizes:
//
//	function d(idx) { return arr[idx]; }
//	function d(idx) { idx = idx - OFFSET; return arr[idx]; }
//	function d(idx) { return atob(arr[idx - OFFSET]); }
//
// and returns nil if fn's body doesn't match one of these shapes.
func detectDecoder(fn *sitter.Node, table *scope.Table, src []byte) *decoderDescriptor {
	nameNode := fn.ChildByFieldName("name")
	params := fn.ChildByFieldName("parameters")
	body := fn.ChildByFieldName("body")
	if nameNode == nil || params == nil || body == nil {
		return nil
	}
	paramNames := jsast.NamedChildren(params)
	if len(paramNames) < 1 || len(paramNames) > 2 {
		return nil
	}
	idxParam := paramNames[0].Content(src)

	stmts := statementList(body)
	offset := 0
	i := 0

	// Optional `idx = idx - OFFSET;` reassignment statement.
	if i < len(stmts) {
		if off, ok := matchOffsetReassignment(stmts[i], idxParam, src); ok {
			offset = off
			i++
		}
	}
	if i != len(stmts)-1 {
		return nil
	}
	ret := stmts[i]
	if ret.Type() != jsast.KindReturnStatement {
		return nil
	}
	arg := ret.ChildByFieldName("argument")
	if arg == nil {
		return nil
	}

	transform := "identity"
	subscript := arg
	if call, ok := unwrapAtobCall(arg, src); ok {
		transform = "base64"
		subscript = call
	}
	env, ok := matcher.Match(decoderSubscriptShape, subscript, src)
	if !ok {
		return nil
	}
	obj := env.Node("array")
	idx := env.Node("index")
	if off, ok := matchIndexOffsetExpr(idx, idxParam, src); ok {
		offset += off
	} else if idx.Content(src) != idxParam {
		return nil
	}

	arrName := obj.Content(src)
	binding := lookupBindingByName(table, nameNode.Content(src))
	if binding == nil {
		return nil
	}
	if lookupBindingByName(table, arrName) == nil {
		return nil
	}
	return &decoderDescriptor{binding: binding, fn: fn, idxParam: idxParam, offset: offset, transform: transform, arrName: arrName}
}

// matchOffsetReassignment recognizes `idxParam = idxParam - N;` (also
// `idxParam = idxParam + N;`, folded as a negative offset).
func matchOffsetReassignment(stmt *sitter.Node, idxParam string, src []byte) (int, bool) {
	if stmt.Type() != jsast.KindExpressionStatement {
		return 0, false
	}
	assign := stmt.NamedChild(0)
	if assign == nil || assign.Type() != jsast.KindAssignmentExpression {
		return 0, false
	}
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Content(src) != idxParam {
		return 0, false
	}
	return matchIndexOffsetExpr(right, idxParam, src)
}

// matchIndexOffsetExpr recognizes `idxParam - N` / `idxParam + N` and
// returns the net amount subtracted from idxParam to produce the array
// index (N for `-N`, -N for `+N`).
func matchIndexOffsetExpr(n *sitter.Node, idxParam string, src []byte) (int, bool) {
	if n.Type() != jsast.KindBinaryExpression {
		return 0, false
	}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	opNode := jsast.FindChild(n, "-")
	op := "-"
	if opNode == nil {
		opNode = jsast.FindChild(n, "+")
		op = "+"
	}
	if opNode == nil || left == nil || right == nil || left.Content(src) != idxParam {
		return 0, false
	}
	v, ok := intLiteralValue(right, src)
	if !ok {
		return 0, false
	}
	if op == "+" {
		return -v, true
	}
	return v, true
}

// decoderSubscriptShape recognizes `arrIdentifier[indexExpr]`, capturing the
// array identifier under "array" and the (possibly offset) index expression
// under "index".
var decoderSubscriptShape = matcher.And(
	matcher.Type(jsast.KindSubscriptExpression),
	matcher.Child("object", matcher.Capture("array", matcher.Type(jsast.KindIdentifier))),
	matcher.Child("index", matcher.Capture("index", matcher.Any())),
)

func unwrapAtobCall(n *sitter.Node, src []byte) (*sitter.Node, bool) {
	if n.Type() != jsast.KindCallExpression {
		return nil, false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != jsast.KindIdentifier || fn.Content(src) != "atob" {
		return nil, false
	}
	args := jsast.NamedChildren(n.ChildByFieldName("arguments"))
	if len(args) != 1 {
		return nil, false
	}
	return args[0], true
}

// inlineDecoderCalls rewrites every call to d whose index argument (and key
// argument, if present and required by the transform) is a literal, then
// removes d once every call resolved, and the backing array once every
// decoder reading it is gone.
func inlineDecoderCalls(d *decoderDescriptor, edits *jsast.EditSet, ctx *pipeline.Context, src []byte) {
	arrBinding := lookupBindingByNameIn(ctx, d.arrName)
	if arrBinding == nil {
		return
	}
	arrDecl := arrBinding.Decl.Parent()
	if arrDecl == nil || arrDecl.Type() != jsast.KindVariableDeclarator {
		return
	}
	arrNode := arrDecl.ChildByFieldName("value")
	if arrNode == nil || arrNode.Type() != jsast.KindArray {
		return
	}
	elements := jsast.NamedChildren(arrNode)

	remainingCalls := 0
	for _, read := range d.binding.Reads {
		call := read.Parent()
		if call == nil || call.Type() != jsast.KindCallExpression || call.ChildByFieldName("function") != read {
			continue
		}
		args := jsast.NamedChildren(call.ChildByFieldName("arguments"))
		if len(args) == 0 {
			remainingCalls++
			continue
		}
		idx, ok := intLiteralValue(args[0], src)
		if !ok {
			remainingCalls++
			continue
		}
		elemIdx := idx - d.offset
		if elemIdx < 0 || elemIdx >= len(elements) {
			remainingCalls++
			continue
		}
		decoded, ok := stringLiteralValue(elements[elemIdx], src)
		if !ok {
			remainingCalls++
			continue
		}
		if d.transform == "base64" {
			decoded = decodeBase64Loose(decoded)
		}
		edits.ReplaceText(call, strconv.Quote(decoded))
		ctx.Report.RecordRewrite()
	}

	if remainingCalls == 0 {
		edits.Remove(d.fn)
		ctx.Report.RecordRewrite()
		if arrayHasNoOtherReaders(ctx, d.arrName, d.fn) {
			removeDeclarator(arrDecl, edits, ctx)
		}
	}
}

func lookupBindingByNameIn(ctx *pipeline.Context, name string) *scope.Binding {
	return lookupBindingByName(ctx.RequireScope(), name)
}

// arrayHasNoOtherReaders reports whether every read of the array binding
// named arrName comes from inside excludeFn (the decoder being removed).
func arrayHasNoOtherReaders(ctx *pipeline.Context, arrName string, excludeFn *sitter.Node) bool {
	binding := lookupBindingByNameIn(ctx, arrName)
	if binding == nil {
		return false
	}
	for _, r := range binding.Reads {
		if !withinNode(r, excludeFn) {
			return false
		}
	}
	return true
}

func withinNode(n, outer *sitter.Node) bool {
	for p := n; p != nil; p = p.Parent() {
		if p == outer {
			return true
		}
	}
	return false
}

// decodeBase64Loose decodes standard base64 text, tolerating a missing or
// partial `=` padding run the way a browser's `atob` does (decoder literals
// extracted verbatim from source aren't guaranteed to carry padding).
func decodeBase64Loose(s string) string {
	trimmed := strings.TrimRight(s, "=")
	if decoded, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return string(decoded)
	}
	return s
}
