package pipeline

import (
	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/diag"
	"github.com/oxhq/jsdeobf/internal/scope"
)

// Context is what one pass invocation sees: the current tree, a fresh
// EditSet to plan into, the lazily-resolved scope table, this invocation's
// counters, and a logger. A pass never touches the next generation's
// source; the driver applies Edits and reparses between invocations.
type Context struct {
	Tree    *jsast.Tree
	Source  []byte
	Edits   *jsast.EditSet
	Scope   *scope.Table // nil unless the pass's NeedsScope was honored
	Report  *diag.PassReport
	Logger  *diag.Logger
	Options DeobfuscateOptions
}

// RequireScope returns the current scope table, resolving it on first use
// within this invocation if the driver didn't already hand one in. Passes
// call this rather than caching a table across invocations, since any
// Edits applied invalidate it.
func (c *Context) RequireScope() *scope.Table {
	if c.Scope == nil {
		c.Scope = scope.Resolve(c.Tree.Root, c.Source)
	}
	return c.Scope
}
