package passes

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// DeadVariableElimination is P8 (spec.md §4.2): removes any binding whose
// read count is zero and whose initializer is pure. Fixed-point because
// removing one binding's initializer can make a previously-impure-looking
// read count drop to zero elsewhere (spec.md: "removing one initializer may
// purify another binding's transitive read").
var DeadVariableElimination = pipeline.Pass{
	ID:         pipeline.P8DeadVariableElimination,
	Name:       "P8-dead-variable-elimination",
	FixedPoint: true,
	NeedsScope: true,
	Apply:      applyDeadVariableElimination,
}

func applyDeadVariableElimination(ctx *pipeline.Context) (bool, error) {
	table := ctx.RequireScope()
	edits := ctx.Edits

	for _, b := range table.Bindings {
		ctx.Report.Visited++
		if len(b.Reads) > 0 {
			continue
		}
		declarator := b.Decl.Parent()
		if declarator == nil || declarator.Type() != jsast.KindVariableDeclarator {
			continue // function/parameter/catch bindings aren't removed by this pass
		}
		init := declarator.ChildByFieldName("value")
		if init != nil && !isPure(init) {
			skip(ctx, true)
			continue
		}
		removeDeclarator(declarator, edits, ctx)
	}

	return edits.Len() > 0, nil
}

// removeDeclarator deletes declarator from its enclosing declaration,
// removing the whole declaration statement when it was the only one, or
// just the one declarator (plus one adjacent comma) otherwise.
func removeDeclarator(declarator *sitter.Node, edits *jsast.EditSet, ctx *pipeline.Context) {
	decl := declarator.Parent() // variable_declaration or lexical_declaration
	if decl == nil {
		return
	}
	declarators := jsast.ChildrenByType(decl, jsast.KindVariableDeclarator)
	if len(declarators) <= 1 {
		edits.Remove(decl)
	} else {
		removeDeclaratorAndComma(decl, declarator, edits)
	}
	ctx.Report.RecordRewrite()
}

// removeDeclaratorAndComma removes declarator plus one adjacent comma
// separator so `var a=1, b=2` losing b stays `var a=1` rather than
// `var a=1, `.
func removeDeclaratorAndComma(decl, declarator *sitter.Node, edits *jsast.EditSet) {
	start, end := declarator.StartByte(), declarator.EndByte()
	count := int(decl.ChildCount())
	for i := 0; i < count; i++ {
		c := decl.Child(i)
		if c == declarator {
			if i+1 < count && decl.Child(i+1).Type() == "," {
				end = decl.Child(i + 1).EndByte()
			} else if i > 0 && decl.Child(i-1).Type() == "," {
				start = decl.Child(i - 1).StartByte()
			}
			break
		}
	}
	edits.ReplaceBytes(start, end, nil)
}
