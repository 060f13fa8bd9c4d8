package matcher

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// TreeQuery wraps a compiled tree-sitter query, grounded directly on
// termfx-morfx's internal/matcher/tree.go ASTMatcher: passes that can be
// expressed as a pure tree-sitter query pattern (P19's numeric-key object
// literal scan, P13's empty-statement scan) use this instead of hand-rolled
// child walks.
type TreeQuery struct {
	query  *sitter.Query
	source string
}

// NewTreeQuery compiles a tree-sitter query pattern against the JavaScript
// grammar. pattern uses the standard tree-sitter query syntax, e.g.
// `(empty_statement) @target`.
func NewTreeQuery(pattern string) (*TreeQuery, error) {
	q, err := sitter.NewQuery([]byte(pattern), javascript.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("matcher: compile query: %w", err)
	}
	return &TreeQuery{query: q, source: pattern}, nil
}

// MustNewTreeQuery compiles pattern, panicking on a malformed query. Passes
// declare their compiled queries as package-level vars with this, the same
// way the codebase declares package-level regexp.MustCompile vars.
func MustNewTreeQuery(pattern string) *TreeQuery {
	q, err := NewTreeQuery(pattern)
	if err != nil {
		panic(err)
	}
	return q
}

// QueryMatch groups every capture produced by one query match, keyed by
// capture name.
type QueryMatch struct {
	Captures map[string]*sitter.Node
}

// AllMatches runs the query against root and returns one QueryMatch per
// match, preserving the per-match grouping a pass needs when a single
// pattern captures more than one related node (e.g. a pair's key and
// value).
func (q *TreeQuery) AllMatches(root *sitter.Node, src []byte) []QueryMatch {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q.query, root)

	var out []QueryMatch
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, src)
		qm := QueryMatch{Captures: map[string]*sitter.Node{}}
		for _, c := range m.Captures {
			qm.Captures[q.query.CaptureNameForId(c.Index)] = c.Node
		}
		out = append(out, qm)
	}
	return out
}

// Close releases the compiled query.
func (q *TreeQuery) Close() {
	if q != nil && q.query != nil {
		q.query.Close()
	}
}

// Captures runs the query against root and returns every node captured
// under captureName, in document order.
func (q *TreeQuery) Captures(root *sitter.Node, src []byte, captureName string) []*sitter.Node {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q.query, root)

	var out []*sitter.Node
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, src)
		for _, c := range m.Captures {
			if q.query.CaptureNameForId(c.Index) == captureName {
				out = append(out, c.Node)
			}
		}
	}
	return out
}
