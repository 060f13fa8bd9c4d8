// Package ast is the facade over the tree-sitter concrete syntax tree: node
// kinds, child traversal, structural equality, and the mutation primitives
// (replace, remove, insert-before/after) every pass is built from.
//
// Tree-sitter nodes are immutable, so "mutation" here never touches a *Node
// in place. A pass collects an EditSet of byte-range edits against the
// current source buffer; Apply splices them into a new buffer which is then
// re-parsed for the next generation. A fresh parse can never carry stale
// scope data, which is what satisfies the "mutations invalidate cached
// scope/usage data" rule for free.
package ast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Tree is one generation of the parsed program: the immutable tree-sitter
// tree plus the exact source bytes it was parsed from.
type Tree struct {
	Source []byte
	Root   *sitter.Node

	raw *sitter.Tree
}

// Parse runs the external parser contract (spec.md §6): UTF-8 source in,
// concrete syntax tree out. The returned Tree owns a reference to raw so the
// caller may Close it when done with this generation.
func Parse(ctx context.Context, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	raw, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("ast: parse: %w", err)
	}
	root := raw.RootNode()
	if root.HasError() {
		return nil, &ParseError{Node: root, Source: source}
	}
	return &Tree{Source: source, Root: root, raw: raw}, nil
}

// Reparse produces the next generation of the tree from mutated source. It
// deliberately does not pass the previous tree as an incremental-parse hint:
// passes rewrite enough of the document that incremental reuse buys little,
// and a from-scratch parse is the simplest way to guarantee no stale node
// survives into the new generation.
func Reparse(ctx context.Context, source []byte) (*Tree, error) {
	return Parse(ctx, source)
}

// Close releases the underlying tree-sitter tree. Safe to call on a nil Tree.
func (t *Tree) Close() {
	if t == nil || t.raw == nil {
		return
	}
	t.raw.Close()
}

// Text returns the verbatim source text spanned by n.
func (t *Tree) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(t.Source)
}

// ParseError reports a syntax error surfaced by the parser; it is the only
// error kind from this package that propagates out of a pipeline run
// (spec.md §7).
type ParseError struct {
	Node   *sitter.Node
	Source []byte
}

func (e *ParseError) Error() string {
	if e.Node == nil {
		return "ast: parse error"
	}
	p := e.Node.StartPoint()
	return fmt.Sprintf("ast: parse error at line %d, column %d", p.Row+1, p.Column+1)
}
