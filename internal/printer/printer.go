// Package printer implements the external Printer contract (spec.md §4.1):
// turning the pipeline's final tree back into text. Tree-sitter nodes carry
// their original byte spans, which is enough to reproduce most source
// losslessly; what the rewrite passes actually disturb is indentation
// (an inlined block, an unflattened switch, a split declaration all leave
// the old indentation behind). printer.Print re-derives indentation from
// block nesting depth, in the spirit of the teacher's Format/OrganizeImports
// post-processing step, rather than re-tokenizing expressions: anything
// below statement granularity is reproduced verbatim from source, so
// template literals and comments survive untouched.
package printer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
)

// Options controls re-indentation (spec.md §6 CLI surface: --indent-size,
// --indent-with-tabs).
type Options struct {
	IndentSize     int
	IndentWithTabs bool
}

// DefaultOptions matches the CLI's stated defaults: two-space indent.
func DefaultOptions() Options { return Options{IndentSize: 2} }

func (o Options) unit() string {
	if o.IndentWithTabs {
		return "\t"
	}
	size := o.IndentSize
	if size <= 0 {
		size = 2
	}
	return strings.Repeat(" ", size)
}

// Print renders tree's root back to source text, re-indented at
// statement/block granularity.
func Print(tree *jsast.Tree, opts Options) string {
	p := &printerState{src: tree.Source, unit: opts.unit()}
	var sb strings.Builder
	p.printBlockBody(&sb, jsast.NamedChildren(tree.Root), 0)
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

type printerState struct {
	src  []byte
	unit string
}

func (p *printerState) indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat(p.unit, depth))
}

// printBlockBody prints each statement in stmts at depth, one per line.
func (p *printerState) printBlockBody(sb *strings.Builder, stmts []*sitter.Node, depth int) {
	for _, s := range stmts {
		p.printStatement(sb, s, depth)
	}
}

// printStatement renders one statement (or comment) at depth, recursing
// into the handful of node kinds that carry their own nested blocks.
func (p *printerState) printStatement(sb *strings.Builder, n *sitter.Node, depth int) {
	switch n.Type() {
	case jsast.KindStatementBlock:
		p.printBraced(sb, n, depth)
	case jsast.KindIfStatement:
		p.printIf(sb, n, depth)
	case jsast.KindForStatement, jsast.KindForInStatement:
		p.printLoopHeader(sb, n, depth)
	case jsast.KindWhileStatement:
		p.indent(sb, depth)
		sb.WriteString("while (")
		sb.WriteString(parenInner(n.ChildByFieldName("condition"), p.src))
		sb.WriteString(") ")
		p.printBodyOrBlock(sb, n.ChildByFieldName("body"), depth)
	case jsast.KindDoStatement:
		p.indent(sb, depth)
		sb.WriteString("do ")
		p.printBodyOrBlock(sb, n.ChildByFieldName("body"), depth)
		sb.WriteString(" while (")
		sb.WriteString(parenInner(n.ChildByFieldName("condition"), p.src))
		sb.WriteString(");\n")
	case jsast.KindSwitchStatement:
		p.printSwitch(sb, n, depth)
	case jsast.KindTryStatement:
		p.printTry(sb, n, depth)
	case jsast.KindFunctionDeclaration, jsast.KindGeneratorFunctionDecl:
		p.printFunctionDeclaration(sb, n, depth)
	case jsast.KindLabeledStatement:
		body := n.NamedChild(int(n.NamedChildCount()) - 1)
		if body != nil && body.Type() == jsast.KindStatementBlock {
			p.indent(sb, depth)
			sb.WriteString(contentOf(n.ChildByFieldName("label"), p.src))
			sb.WriteString(": ")
			sb.WriteString("{\n")
			p.printBlockBody(sb, jsast.NamedChildren(body), depth+1)
			p.indent(sb, depth)
			sb.WriteString("}\n")
		} else {
			p.indent(sb, depth)
			sb.WriteString(n.Content(p.src))
			sb.WriteString("\n")
		}
	default:
		p.indent(sb, depth)
		text := n.Content(p.src)
		sb.WriteString(text)
		if needsSemicolon(n, text) {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
}

// printBraced prints `{ ... }` with stmts indented one level deeper than
// the brace itself.
func (p *printerState) printBraced(sb *strings.Builder, block *sitter.Node, depth int) {
	p.indent(sb, depth)
	sb.WriteString("{\n")
	p.printBlockBody(sb, jsast.NamedChildren(block), depth+1)
	p.indent(sb, depth)
	sb.WriteString("}\n")
}

// printBodyOrBlock prints a loop/while body that may be a bare statement
// (not wrapped in braces) without a leading indent/newline of its own,
// since the caller already wrote the keyword/condition prefix.
func (p *printerState) printBodyOrBlock(sb *strings.Builder, body *sitter.Node, depth int) {
	if body == nil {
		sb.WriteString("{\n")
		p.indent(sb, depth)
		sb.WriteString("}\n")
		return
	}
	if body.Type() == jsast.KindStatementBlock {
		sb.WriteString("{\n")
		p.printBlockBody(sb, jsast.NamedChildren(body), depth+1)
		p.indent(sb, depth)
		sb.WriteString("}")
		return
	}
	sb.WriteString("\n")
	p.printStatement(sb, body, depth+1)
}

func (p *printerState) printIf(sb *strings.Builder, n *sitter.Node, depth int) {
	p.indent(sb, depth)
	sb.WriteString("if (")
	sb.WriteString(parenInner(n.ChildByFieldName("condition"), p.src))
	sb.WriteString(") ")
	cons := n.ChildByFieldName("consequence")
	p.printBodyOrBlock(sb, cons, depth)
	alt := n.ChildByFieldName("alternative")
	if alt == nil {
		sb.WriteString("\n")
		return
	}
	sb.WriteString(" else ")
	if alt.Type() == "else_clause" && alt.NamedChildCount() > 0 {
		alt = alt.NamedChild(0) // the statement after the `else` keyword
	}
	if alt.Type() == jsast.KindIfStatement {
		// `else if`: render inline without its own leading indent.
		var tmp strings.Builder
		p.printIf(&tmp, alt, depth)
		sb.WriteString(strings.TrimPrefix(tmp.String(), strings.Repeat(p.unit, depth)))
		return
	}
	p.printBodyOrBlock(sb, alt, depth)
	sb.WriteString("\n")
}

func (p *printerState) printLoopHeader(sb *strings.Builder, n *sitter.Node, depth int) {
	p.indent(sb, depth)
	headerEnd := n.ChildByFieldName("body")
	header := n.Content(p.src)
	if headerEnd != nil {
		bodyStart := int(headerEnd.StartByte() - n.StartByte())
		if bodyStart >= 0 && bodyStart <= len(header) {
			header = header[:bodyStart]
		}
	}
	sb.WriteString(strings.TrimSpace(header))
	sb.WriteString(" ")
	p.printBodyOrBlock(sb, headerEnd, depth)
	sb.WriteString("\n")
}

func (p *printerState) printSwitch(sb *strings.Builder, n *sitter.Node, depth int) {
	p.indent(sb, depth)
	sb.WriteString("switch (")
	sb.WriteString(parenInner(n.ChildByFieldName("value"), p.src))
	sb.WriteString(") {\n")
	body := n.ChildByFieldName("body")
	count := int(body.NamedChildCount())
	for i := 0; i < count; i++ {
		c := body.NamedChild(i)
		p.indent(sb, depth+1)
		if c.Type() == jsast.KindSwitchCase {
			sb.WriteString("case ")
			sb.WriteString(contentOf(c.ChildByFieldName("value"), p.src))
			sb.WriteString(":\n")
		} else {
			sb.WriteString("default:\n")
		}
		var caseStmts []*sitter.Node
		nc := int(c.NamedChildCount())
		for j := 0; j < nc; j++ {
			s := c.NamedChild(j)
			if s == c.ChildByFieldName("value") {
				continue
			}
			caseStmts = append(caseStmts, s)
		}
		p.printBlockBody(sb, caseStmts, depth+2)
	}
	p.indent(sb, depth)
	sb.WriteString("}\n")
}

func (p *printerState) printTry(sb *strings.Builder, n *sitter.Node, depth int) {
	p.indent(sb, depth)
	sb.WriteString("try ")
	p.printBraced2(sb, n.ChildByFieldName("body"), depth)
	if handler := jsast.FindChild(n, jsast.KindCatchClause); handler != nil {
		sb.WriteString(" catch ")
		if param := handler.ChildByFieldName("parameter"); param != nil {
			sb.WriteString("(")
			sb.WriteString(contentOf(param, p.src))
			sb.WriteString(") ")
		}
		p.printBraced2(sb, handler.ChildByFieldName("body"), depth)
	}
	if finalizer := jsast.FindChild(n, jsast.KindFinallyClause); finalizer != nil {
		sb.WriteString(" finally ")
		p.printBraced2(sb, finalizer.ChildByFieldName("body"), depth)
	}
	sb.WriteString("\n")
}

// printBraced2 is printBraced without a leading indent (the caller already
// wrote the preceding keyword) and without a trailing newline.
func (p *printerState) printBraced2(sb *strings.Builder, block *sitter.Node, depth int) {
	if block == nil {
		sb.WriteString("{}")
		return
	}
	sb.WriteString("{\n")
	p.printBlockBody(sb, jsast.NamedChildren(block), depth+1)
	p.indent(sb, depth)
	sb.WriteString("}")
}

func (p *printerState) printFunctionDeclaration(sb *strings.Builder, n *sitter.Node, depth int) {
	p.indent(sb, depth)
	body := n.ChildByFieldName("body")
	header := n.Content(p.src)
	if body != nil {
		bodyStart := int(body.StartByte() - n.StartByte())
		if bodyStart >= 0 && bodyStart <= len(header) {
			header = header[:bodyStart]
		}
	}
	sb.WriteString(strings.TrimSpace(header))
	sb.WriteString(" ")
	if body != nil {
		p.printBraced2(sb, body, depth)
	}
	sb.WriteString("\n")
}

func contentOf(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// parenInner returns the text inside a parenthesized_expression (the node
// tree-sitter gives for if/while/do/switch heads), or n's own text.
func parenInner(n *sitter.Node, src []byte) string {
	if n != nil && n.Type() == jsast.KindParenthesizedExpression && n.NamedChildCount() == 1 {
		return n.NamedChild(0).Content(src)
	}
	return contentOf(n, src)
}

// needsSemicolon reports whether a leaf-printed statement kind should get a
// trailing `;`: only statement kinds that conventionally end in one, and
// only when the node's own text doesn't already carry it (tree-sitter folds
// the terminator into the statement's span for most of these).
func needsSemicolon(n *sitter.Node, text string) bool {
	if strings.HasSuffix(strings.TrimRight(text, " \t"), ";") {
		return false
	}
	switch n.Type() {
	case jsast.KindExpressionStatement, jsast.KindReturnStatement, jsast.KindThrowStatement,
		jsast.KindBreakStatement, jsast.KindContinueStatement, jsast.KindVariableDeclaration,
		jsast.KindLexicalDeclaration, jsast.KindImportStatement:
		return true
	}
	return false
}
