// Package matcher implements the pattern matcher (spec.md §4.1): declarative
// predicates over AST shapes with placeholders, guards, and captures. The
// shapes jsdeobf's passes recognize (dispatcher-assigned-once-from-literal,
// decoder-returns-array-index, operator-proxy-single-return) are not
// expressible as a handful of tree-sitter queries with field constraints
// alone, so this package generalizes termfx-morfx's query-only
// internal/matcher/tree.go into a small procedural Predicate/Env layer,
// grounded on the per-node-type switch traversal in the PHP obfuscator's
// NodeReplacer (other_examples/b24fac59_whit3rabbit-phpmixer...).
package matcher

import sitter "github.com/smacker/go-tree-sitter"

// Env is the binding environment a Predicate may populate with captures. A
// miss is reported by Predicate returning false; captures made before the
// miss are discarded by the caller, so predicates should only write once
// they've locally committed to a match (no backtracking beyond local
// alternatives, per spec.md §4.1).
type Env struct {
	captures map[string]*sitter.Node
	values   map[string]any
}

// NewEnv returns an empty binding environment.
func NewEnv() *Env {
	return &Env{captures: map[string]*sitter.Node{}, values: map[string]any{}}
}

// Capture records a named node capture.
func (e *Env) Capture(name string, n *sitter.Node) { e.captures[name] = n }

// Node returns a previously captured node, or nil.
func (e *Env) Node(name string) *sitter.Node { return e.captures[name] }

// Set records an arbitrary computed value (e.g. a parsed literal, an
// evaluated rotation count).
func (e *Env) Set(name string, v any) { e.values[name] = v }

// Value returns a previously set value, or nil.
func (e *Env) Value(name string) any { return e.values[name] }

// Predicate is a pure function of a candidate node and the environment
// accumulated so far; it returns ok=false on any mismatch without mutating
// its candidate's siblings. Predicates compose via the combinators below
// (And, Capture, ...).
type Predicate func(n *sitter.Node, src []byte, env *Env) bool

// Match runs p against n with a fresh Env, returning the populated Env on
// success.
func Match(p Predicate, n *sitter.Node, src []byte) (*Env, bool) {
	env := NewEnv()
	if n == nil {
		return nil, false
	}
	if p(n, src, env) {
		return env, true
	}
	return nil, false
}

// Any matches any non-nil node, used to Capture a field whose shape isn't
// itself constrained (e.g. a subscript's index expression, which may be an
// identifier or an arithmetic expression).
func Any() Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		return n != nil
	}
}

// Type matches a node whose Type() equals typ.
func Type(typ string) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		return n != nil && n.Type() == typ
	}
}

// AnyType matches a node whose Type() is one of typs.
func AnyType(typs ...string) Predicate {
	set := make(map[string]bool, len(typs))
	for _, t := range typs {
		set[t] = true
	}
	return func(n *sitter.Node, src []byte, env *Env) bool {
		return n != nil && set[n.Type()]
	}
}

// Text matches a node whose verbatim source text equals s.
func Text(s string) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		return n != nil && n.Content(src) == s
	}
}

// Capture wraps p, recording n under name in env when p succeeds.
func Capture(name string, p Predicate) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		if p(n, src, env) {
			env.Capture(name, n)
			return true
		}
		return false
	}
}

// And succeeds when every predicate succeeds against the same node.
func And(ps ...Predicate) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		for _, p := range ps {
			if !p(n, src, env) {
				return false
			}
		}
		return true
	}
}

// Or succeeds when any predicate succeeds; later predicates are not
// attempted once one matches (no backtracking beyond this local choice).
func Or(ps ...Predicate) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		for _, p := range ps {
			if p(n, src, env) {
				return true
			}
		}
		return false
	}
}

// Not inverts p, with no captures leaking from a failed inner attempt.
func Not(p Predicate) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		probe := NewEnv()
		return !p(n, src, probe)
	}
}

// Guard adds a boolean condition evaluated against the env accumulated so
// far, for constraints that aren't structural (e.g. "dispatcher assigned
// exactly once").
func Guard(p Predicate, cond func(env *Env) bool) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		return p(n, src, env) && cond(env)
	}
}

// Child matches when n has a direct child (by field name) satisfying p.
func Child(field string, p Predicate) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		if n == nil {
			return false
		}
		c := n.ChildByFieldName(field)
		return c != nil && p(c, src, env)
	}
}

// NthChild matches when n's i-th direct child satisfies p.
func NthChild(i int, p Predicate) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		if n == nil || i < 0 || i >= int(n.ChildCount()) {
			return false
		}
		return p(n.Child(i), src, env)
	}
}

// ChildCount matches when n has exactly count direct children.
func ChildCount(count int) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		return n != nil && int(n.ChildCount()) == count
	}
}

// NamedChildCount matches when n has exactly count named direct children.
func NamedChildCount(count int) Predicate {
	return func(n *sitter.Node, src []byte, env *Env) bool {
		return n != nil && int(n.NamedChildCount()) == count
	}
}
