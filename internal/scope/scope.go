// Package scope implements the scope & usage analyzer (spec.md §4.1): for
// each binding, its declaration site, read sites, write sites, and whether
// it is captured by a nested scope. It is rebuilt on demand after mutation
// (never incrementally patched), which is what keeps the "stale scope
// queries are forbidden" invariant trivial to uphold: passes that need
// scope call Resolve again on the just-reparsed tree.
//
// The single top-down walk building nested scopes, and the later pass
// resolving identifier references to bindings, is grounded on CUE's
// cue/ast/astutil/resolve.go: a linked list of *scope values with an outer
// pointer and a name->node index, pushed on File/StructLit-equivalent nodes
// and popped on After. No third-party library performs JS lexical-scope
// resolution over a tree-sitter CST; this is a justified standard-library
// implementation (see DESIGN.md).
package scope

import (
	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
)

// Kind is the declaration kind of a Binding.
type Kind int

const (
	KindVar Kind = iota
	KindLet
	KindConst
	KindFunction
	KindParameter
	KindCatch
)

// Binding is a name introduced by a declaration (spec.md §3).
type Binding struct {
	Name    string
	Kind    Kind
	Decl    *sitter.Node // the declaring node (identifier under the declarator/param/function name)
	Scope   *Scope
	Reads   []*sitter.Node
	Writes  []*sitter.Node
	Captured bool // read or written from a nested function scope
}

// Immutable reports whether the binding is never written after
// initialization (spec.md §3's Binding.immutable attribute): true for const
// and function bindings with no recorded write after declaration.
func (b *Binding) Immutable() bool {
	if b.Kind == KindConst || b.Kind == KindFunction {
		return true
	}
	return len(b.Writes) == 0
}

// Scope is a lexical region with a parent pointer and a set of bindings
// (spec.md §3).
type Scope struct {
	Parent   *Scope
	Node     *sitter.Node // the node that introduces this scope (program, function, block, catch)
	Bindings map[string]*Binding
}

func newScope(parent *Scope, node *sitter.Node) *Scope {
	return &Scope{Parent: parent, Node: node, Bindings: map[string]*Binding{}}
}

// Lookup resolves name starting at s and walking outward through parents.
func (s *Scope) Lookup(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.Bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Table is the result of Resolve: the root scope plus every binding found,
// for O(1) iteration without re-walking scopes.
type Table struct {
	Root     *Scope
	Bindings []*Binding
}

// Resolve performs the two-pass scope analysis over root: first it builds
// nested scopes and inserts every declaration as a Binding, then it walks
// again resolving every identifier reference to a Binding (recording reads,
// writes, and cross-function capture).
func Resolve(root *sitter.Node, src []byte) *Table {
	r := &resolver{src: src}
	r.buildScopes(root, nil)
	r.resolveRefs(root, r.scopeOf[root])
	return &Table{Root: r.scopeOf[root], Bindings: r.bindings}
}

type resolver struct {
	src      []byte
	scopeOf  map[*sitter.Node]*Scope
	bindings []*Binding
}

func (r *resolver) text(n *sitter.Node) string { return n.Content(r.src) }

// buildScopes is the declaration-collecting top-down walk. It creates a new
// Scope at every node that introduces one (program, function-like,
// statement block, catch clause) and records a Binding for every
// declaration it finds directly in that scope's node.
func (r *resolver) buildScopes(n *sitter.Node, parent *Scope) {
	if n == nil {
		return
	}
	if r.scopeOf == nil {
		r.scopeOf = map[*sitter.Node]*Scope{}
	}

	cur := parent
	introducesScope := n.Type() == jsast.KindProgram || jsast.IsFunctionLike(n) ||
		n.Type() == jsast.KindStatementBlock || n.Type() == jsast.KindCatchClause ||
		n.Type() == jsast.KindForStatement || n.Type() == jsast.KindForInStatement
	if introducesScope {
		cur = newScope(parent, n)
	}
	r.scopeOf[n] = cur

	switch n.Type() {
	case jsast.KindVariableDeclarator:
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == jsast.KindIdentifier {
			kind := r.declKindOf(n)
			r.declare(cur, name, kind)
		}
	case jsast.KindFunctionDeclaration, jsast.KindGeneratorFunctionDecl:
		if name := n.ChildByFieldName("name"); name != nil {
			// Function declarations bind in the enclosing scope, not their own.
			r.declare(parentOrCur(parent, cur), name, KindFunction)
		}
	case jsast.KindCatchClause:
		if param := n.ChildByFieldName("parameter"); param != nil && param.Type() == jsast.KindIdentifier {
			r.declare(cur, param, KindCatch)
		}
	}

	if jsast.IsFunctionLike(n) {
		r.declareParameters(n, cur)
	}

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		r.buildScopes(n.Child(i), cur)
	}
}

func parentOrCur(parent, cur *Scope) *Scope {
	if parent != nil {
		return parent
	}
	return cur
}

func (r *resolver) declKindOf(declarator *sitter.Node) Kind {
	parent := declarator.Parent()
	if parent == nil {
		return KindVar
	}
	switch parent.Type() {
	case jsast.KindLexicalDeclaration:
		for i := 0; i < int(parent.ChildCount()); i++ {
			c := parent.Child(i)
			if c.Type() == "const" {
				return KindConst
			}
			if c.Type() == "let" {
				return KindLet
			}
		}
		return KindLet
	default:
		return KindVar
	}
}

func (r *resolver) declareParameters(fn *sitter.Node, fnScope *Scope) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	count := int(params.NamedChildCount())
	for i := 0; i < count; i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case jsast.KindIdentifier:
			r.declare(fnScope, p, KindParameter)
		case jsast.KindRestPattern:
			if id := jsast.FindChild(p, jsast.KindIdentifier); id != nil {
				r.declare(fnScope, id, KindParameter)
			}
		}
	}
}

func (r *resolver) declare(s *Scope, nameNode *sitter.Node, kind Kind) *Binding {
	name := r.text(nameNode)
	b := &Binding{Name: name, Kind: kind, Decl: nameNode, Scope: s}
	s.Bindings[name] = b
	r.bindings = append(r.bindings, b)
	return b
}

// resolveRefs is the second walk: every identifier reference (not itself a
// declaration site) is looked up in its enclosing scope chain and recorded
// as a read or a write.
func (r *resolver) resolveRefs(n *sitter.Node, enclosing *Scope) {
	if n == nil {
		return
	}
	if s, ok := r.scopeOf[n]; ok && s != nil {
		enclosing = s
	}

	if n.Type() == jsast.KindIdentifier && !r.isDeclSite(n) {
		if b := enclosing.Lookup(r.text(n)); b != nil {
			if jsast.EnclosingFunction(n) != jsast.EnclosingFunction(b.Decl) {
				b.Captured = true
			}
			if r.isWriteTarget(n) {
				b.Writes = append(b.Writes, n)
			} else {
				b.Reads = append(b.Reads, n)
			}
		}
	}

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		r.resolveRefs(n.Child(i), enclosing)
	}
}

// isDeclSite reports whether n is the identifier naming its own
// declaration (variable declarator name, function name, parameter, catch
// parameter) rather than a reference to a prior binding.
func (r *resolver) isDeclSite(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case jsast.KindVariableDeclarator:
		return p.ChildByFieldName("name") == n
	case jsast.KindFunctionDeclaration, jsast.KindGeneratorFunctionDecl, jsast.KindFunctionExpression:
		return p.ChildByFieldName("name") == n
	case jsast.KindCatchClause:
		return p.ChildByFieldName("parameter") == n
	case jsast.KindFormalParameters:
		return true
	}
	return false
}

// isWriteTarget reports whether n is the left-hand side of an assignment or
// the operand of an increment/decrement.
func (r *resolver) isWriteTarget(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case jsast.KindAssignmentExpression, jsast.KindAugmentedAssignment:
		return p.ChildByFieldName("left") == n
	case jsast.KindUpdateExpression:
		return true
	}
	return false
}
