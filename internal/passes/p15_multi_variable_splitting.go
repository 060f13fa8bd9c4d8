package passes

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// MultiVariableSplitting is P15 (spec.md §4.2): `var a=1, b=2, c=3` becomes
// three declarations, preserving the declaration kind. A declaration in a
// `for` loop head is never split, whether or not the condition/update use
// its declarators.
var MultiVariableSplitting = pipeline.Pass{
	ID:    pipeline.P15MultiVariableSplitting,
	Name:  "P15-multi-variable-splitting",
	Apply: applyMultiVariableSplitting,
}

func applyMultiVariableSplitting(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		if n.Type() != jsast.KindVariableDeclaration && n.Type() != jsast.KindLexicalDeclaration {
			return true
		}
		ctx.Report.Visited++
		declarators := jsast.ChildrenByType(n, jsast.KindVariableDeclarator)
		if len(declarators) < 2 {
			return true
		}
		parent := n.Parent()
		if parent != nil && (parent.Type() == jsast.KindForStatement) {
			skip(ctx, true) // loop head: splitting would separate init from the shared scope
			return true
		}

		kind := declarationKeyword(n, src)
		var sb strings.Builder
		for i, d := range declarators {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(kind)
			sb.WriteString(" ")
			sb.WriteString(d.Content(src))
			sb.WriteString(";")
		}
		edits.ReplaceText(n, sb.String())
		ctx.Report.RecordRewrite()
		return true
	})

	return edits.Len() > 0, nil
}

func declarationKeyword(decl *sitter.Node, src []byte) string {
	first := decl.Child(0)
	if first != nil {
		return first.Content(src)
	}
	return "var"
}
