package passes

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// SequenceSplitting is P14 (spec.md §4.2): a `(a, b, c)` expression used as
// an expression statement becomes three statements `a; b; c;`, keeping
// their left-to-right order. Only a sequence that is the whole expression
// statement is split; sequences in any other position are left as they are.
var SequenceSplitting = pipeline.Pass{
	ID:    pipeline.P14SequenceSplitting,
	Name:  "P14-sequence-splitting",
	Apply: applySequenceSplitting,
}

func applySequenceSplitting(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		if n.Type() != jsast.KindExpressionStatement {
			return true
		}
		ctx.Report.Visited++
		inner := n
		if n.NamedChildCount() == 1 {
			inner = n.NamedChild(0)
		}
		seq := unwrapParens(inner)
		if seq == nil || seq.Type() != jsast.KindSequenceExpression {
			return true
		}
		parts := sequenceParts(seq)
		edits.ReplaceText(n, sequenceAsStatements(parts, src))
		ctx.Report.RecordRewrite()
		return true
	})

	return edits.Len() > 0, nil
}

// unwrapParens strips a single layer of parenthesized_expression.
func unwrapParens(n *sitter.Node) *sitter.Node {
	if n != nil && n.Type() == jsast.KindParenthesizedExpression && n.NamedChildCount() == 1 {
		return n.NamedChild(0)
	}
	return n
}

// sequenceParts flattens a chain of sequence_expression nodes, nested on
// either side, into its operands in left-to-right order.
func sequenceParts(seq *sitter.Node) []*sitter.Node {
	left := seq.ChildByFieldName("left")
	right := seq.ChildByFieldName("right")
	if left == nil || right == nil {
		return []*sitter.Node{seq}
	}
	var out []*sitter.Node
	if left.Type() == jsast.KindSequenceExpression {
		out = append(out, sequenceParts(left)...)
	} else {
		out = append(out, left)
	}
	if right.Type() == jsast.KindSequenceExpression {
		out = append(out, sequenceParts(right)...)
	} else {
		out = append(out, right)
	}
	return out
}

// sequenceAsStatements renders each part as its own statement, in order.
func sequenceAsStatements(parts []*sitter.Node, src []byte) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(p.Content(src))
		sb.WriteString(";")
	}
	return sb.String()
}
