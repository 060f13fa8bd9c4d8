package passes

import (
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// LiteralNormalization is P11 (spec.md §4.2): normalizes Unicode-escaped
// identifiers to their canonical form, catches any `!0`/`!1`/`void 0`
// surviving P6 (e.g. produced by a pass that ran after it), and flattens a
// sparse object spread `{...{a:1}}` whose inner operand is itself a plain
// object literal.
var LiteralNormalization = pipeline.Pass{
	ID:    pipeline.P11LiteralNormalization,
	Name:  "P11-literal-normalization",
	Apply: applyLiteralNormalization,
}

var unicodeEscapeRE = regexp.MustCompile(`\\u\{([0-9a-fA-F]+)\}|\\u([0-9a-fA-F]{4})`)

func applyLiteralNormalization(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		ctx.Report.Visited++
		switch n.Type() {
		case jsast.KindIdentifier:
			normalizeUnicodeIdentifier(n, src, edits, ctx)
		case jsast.KindUnaryExpression:
			normalizeRemainingBooleans(n, src, edits, ctx)
		case jsast.KindObject:
			flattenSparseSpread(n, src, edits, ctx)
		}
		return true
	})

	return edits.Len() > 0, nil
}

// normalizeUnicodeIdentifier decodes \uXXXX / \u{X...} escapes in an
// identifier's text into the literal characters they denote, when doing so
// still yields a legal identifier.
func normalizeUnicodeIdentifier(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	text := n.Content(src)
	if !strings.Contains(text, `\u`) {
		return
	}
	decoded := unicodeEscapeRE.ReplaceAllStringFunc(text, func(m string) string {
		sub := unicodeEscapeRE.FindStringSubmatch(m)
		hex := sub[1]
		if hex == "" {
			hex = sub[2]
		}
		v, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return m
		}
		return string(rune(v))
	})
	if decoded == text || !isValidIdentifierName(decoded) {
		skip(ctx, true)
		return
	}
	edits.ReplaceText(n, decoded)
	ctx.Report.RecordRewrite()
}

// normalizeRemainingBooleans is P6's !0/!1/void 0 rewrite reapplied as a
// safety net (spec.md: "if any remain").
func normalizeRemainingBooleans(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	simplifyUnary(n, src, edits, ctx)
}

// flattenSparseSpread rewrites `{...{a:1, b:2}}` to `{a:1, b:2}` when the
// spread's sole operand is a plain object literal with no further spreads
// (spec.md P11 rule 3).
func flattenSparseSpread(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	if n.NamedChildCount() != 1 {
		return
	}
	spread := n.NamedChild(0)
	if spread.Type() != jsast.KindSpreadElement {
		return
	}
	inner := spread.NamedChild(0)
	if inner == nil || inner.Type() != jsast.KindObject {
		skip(ctx, false)
		return
	}
	innerCount := int(inner.NamedChildCount())
	for i := 0; i < innerCount; i++ {
		if inner.NamedChild(i).Type() != jsast.KindPair {
			skip(ctx, true)
			return
		}
	}
	edits.ReplaceText(n, inner.Content(src))
	ctx.Report.RecordRewrite()
}
