package ast

import sitter "github.com/smacker/go-tree-sitter"

// Equal reports whether a and b are structurally equal modulo source
// location: same node type, same child count, and recursively equal
// children, comparing leaf text by content rather than byte offset. This is
// what the parse-print round-trip property (spec.md §8) and the idempotence
// property check against.
func Equal(a, b *sitter.Node, srcA, srcB []byte) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	if a.ChildCount() != b.ChildCount() {
		return false
	}
	if a.ChildCount() == 0 {
		return a.Content(srcA) == b.Content(srcB)
	}
	count := int(a.ChildCount())
	for i := 0; i < count; i++ {
		if !Equal(a.Child(i), b.Child(i), srcA, srcB) {
			return false
		}
	}
	return true
}
