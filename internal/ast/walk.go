package ast

import sitter "github.com/smacker/go-tree-sitter"

// Visitor is the explicit enter/leave traversal contract (spec.md §9:
// "generators/coroutines... express as... visitor objects with
// enter/leave callbacks"). Before is called when the walk descends into n;
// if it returns nil, children are not visited. After is called when the
// walk leaves n, with the Visitor Before returned for n (stackable, as in
// cue/ast/walk.go's stackVisitor).
type Visitor interface {
	Before(n *sitter.Node) (w Visitor)
	After(n *sitter.Node)
}

// WalkVisitor performs a depth-first traversal of n using v, following
// cue/ast.Walk's before/after shape.
func WalkVisitor(n *sitter.Node, v Visitor) {
	if n == nil || v == nil {
		return
	}
	w := v.Before(n)
	if w == nil {
		return
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		WalkVisitor(n.Child(i), w)
	}
	w.After(n)
}

// Walk is the functional equivalent of WalkVisitor: before returning false
// skips n's children; after always runs if before returned true (or was
// nil).
func Walk(n *sitter.Node, before func(*sitter.Node) bool, after func(*sitter.Node)) {
	if n == nil {
		return
	}
	descend := true
	if before != nil {
		descend = before(n)
	}
	if descend {
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			Walk(n.Child(i), before, after)
		}
	}
	if descend && after != nil {
		after(n)
	}
}

// Inspect walks n depth-first, calling f for every node (including n) until
// f returns false for a node's children.
func Inspect(n *sitter.Node, f func(*sitter.Node) bool) {
	Walk(n, f, nil)
}

// Find returns the first node in n's subtree (including n) for which match
// returns true, in document order, or nil.
func Find(n *sitter.Node, match func(*sitter.Node) bool) *sitter.Node {
	var found *sitter.Node
	Inspect(n, func(c *sitter.Node) bool {
		if found != nil {
			return false
		}
		if match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node in n's subtree (including n) for which match
// returns true, in document order.
func FindAll(n *sitter.Node, match func(*sitter.Node) bool) []*sitter.Node {
	var out []*sitter.Node
	Inspect(n, func(c *sitter.Node) bool {
		if match(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// EnclosingFunction returns the nearest function-like ancestor of n, or nil
// at the top level.
func EnclosingFunction(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if IsFunctionLike(p) {
			return p
		}
	}
	return nil
}

// EnclosingBlock returns the nearest statement_block or program ancestor of
// n, used as the unit dead-code elimination and empty-statement cleanup
// operate within.
func EnclosingBlock(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == KindStatementBlock || p.Type() == KindProgram {
			return p
		}
	}
	return nil
}
