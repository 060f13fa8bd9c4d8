package ast

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Op names the kind of byte-range edit, mirroring the facade's mutation
// primitives (spec.md §4.1): replace, remove, insert-before, insert-after.
type Op int

const (
	OpReplace Op = iota
	OpRemove
	OpInsertBefore
	OpInsertAfter
)

// Edit is one byte-range rewrite against a Tree's source buffer. For
// OpReplace/OpRemove Start/End is the replaced span (the anchor node's span,
// or an explicit byte range); for OpInsertBefore/OpInsertAfter it is the
// empty span at the anchor's start or end, so NewText is spliced there
// without consuming any of the anchor's own bytes.
type Edit struct {
	Start, End uint32
	NewText    []byte
	Op         Op

	// Anchor is kept only for overlap diagnostics; it plays no role once
	// Start/End are captured, since the node itself may not survive to
	// Apply time on an immutable tree.
	Anchor *sitter.Node
}

// EditSet accumulates the edits a pass wants to apply to one generation of
// the tree. Grounded on core.Pipeline's plan-then-apply shape: a pass plans
// every edit against the current (immutable) tree before any byte is
// spliced, so overlap detection sees the whole batch at once.
type EditSet struct {
	edits []Edit
}

// NewEditSet returns an empty EditSet.
func NewEditSet() *EditSet { return &EditSet{} }

// Len reports how many edits have been planned.
func (s *EditSet) Len() int { return len(s.edits) }

// Replace plans replacing n's entire span with newText.
func (s *EditSet) Replace(n *sitter.Node, newText []byte) {
	s.edits = append(s.edits, Edit{Start: n.StartByte(), End: n.EndByte(), NewText: newText, Op: OpReplace, Anchor: n})
}

// ReplaceText is Replace for a plain string.
func (s *EditSet) ReplaceText(n *sitter.Node, newText string) {
	s.Replace(n, []byte(newText))
}

// ReplaceBytes plans replacing the raw byte span [start,end) with newText,
// for edits that span more than one node (e.g. a declarator plus its
// separating comma).
func (s *EditSet) ReplaceBytes(start, end uint32, newText []byte) {
	s.edits = append(s.edits, Edit{Start: start, End: end, NewText: newText, Op: OpReplace})
}

// Remove plans deleting n's entire span.
func (s *EditSet) Remove(n *sitter.Node) {
	s.edits = append(s.edits, Edit{Start: n.StartByte(), End: n.EndByte(), Op: OpRemove, Anchor: n})
}

// InsertBefore plans splicing text immediately before n's span.
func (s *EditSet) InsertBefore(n *sitter.Node, text []byte) {
	s.edits = append(s.edits, Edit{Start: n.StartByte(), End: n.StartByte(), NewText: text, Op: OpInsertBefore, Anchor: n})
}

// InsertAfter plans splicing text immediately after n's span.
func (s *EditSet) InsertAfter(n *sitter.Node, text []byte) {
	s.edits = append(s.edits, Edit{Start: n.EndByte(), End: n.EndByte(), NewText: text, Op: OpInsertAfter, Anchor: n})
}

// Apply splices every planned edit into source, applied in document order
// but executed back-to-front so earlier byte offsets stay valid, exactly as
// core.Pipeline.applyEdits does. Overlapping edits are an InvariantViolation
// programmer error inside a single pass: detectOverlaps reports the first
// collision rather than silently letting one edit clobber another.
func (s *EditSet) Apply(source []byte) ([]byte, error) {
	if len(s.edits) == 0 {
		return source, nil
	}
	ordered := make([]Edit, len(s.edits))
	copy(ordered, s.edits)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start < ordered[j].Start
		}
		return ordered[i].End < ordered[j].End
	})
	if err := detectOverlaps(ordered); err != nil {
		return nil, err
	}

	out := make([]byte, len(source))
	copy(out, source)
	for i := len(ordered) - 1; i >= 0; i-- {
		e := ordered[i]
		out = splice(out, int(e.Start), int(e.End), e.NewText)
	}
	return out, nil
}

// detectOverlaps walks edits in start-order and rejects any pair whose
// spans properly overlap (touching at a single insertion point is fine: an
// InsertAfter at byte N and an InsertBefore at byte N both anchor at N but
// never consume each other's bytes).
func detectOverlaps(sorted []Edit) error {
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Start < prev.End {
			return fmt.Errorf("ast: overlapping edits at bytes [%d,%d) and [%d,%d)", prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return nil
}

func splice(b []byte, start, end int, replacement []byte) []byte {
	out := make([]byte, 0, len(b)-(end-start)+len(replacement))
	out = append(out, b[:start]...)
	out = append(out, replacement...)
	out = append(out, b[end:]...)
	return out
}
