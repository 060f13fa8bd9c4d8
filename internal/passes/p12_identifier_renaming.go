package passes

import (
	"regexp"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
	"github.com/oxhq/jsdeobf/internal/scope"
)

// IdentifierRenaming is P12 (spec.md §4.2): obfuscator-style hex identifiers
// (`_0x[0-9a-f]+` and similar) are renamed to human-readable names. The
// rewrite must preserve scoping exactly — no new shadowing, no capture of
// an outer name — and must be deterministic (same input -> same output).
//
// Scoping safety here comes from choosing every fresh name out of a single
// file-wide reserved-name set built from every existing binding and every
// name already assigned this run, rather than per-scope uniqueness
// checking: a name no binding in the file ever uses cannot shadow or be
// captured by any of them.
var IdentifierRenaming = pipeline.Pass{
	ID:         pipeline.P12IdentifierRenaming,
	Name:       "P12-identifier-renaming",
	NeedsScope: true,
	Apply:      applyIdentifierRenaming,
}

var hexIdentifierRE = regexp.MustCompile(`^_0x[0-9a-fA-F]+$|^_+0x[0-9a-fA-F]+$`)

func applyIdentifierRenaming(ctx *pipeline.Context) (bool, error) {
	table := ctx.RequireScope()
	edits := ctx.Edits

	reserved := map[string]bool{}
	for _, b := range table.Bindings {
		reserved[b.Name] = true
	}

	targets := make([]*scope.Binding, 0)
	for _, b := range table.Bindings {
		ctx.Report.Visited++
		if !hexIdentifierRE.MatchString(b.Name) {
			continue
		}
		targets = append(targets, b)
	}
	// Deterministic order: by declaration byte offset.
	sort.Slice(targets, func(i, j int) bool { return targets[i].Decl.StartByte() < targets[j].Decl.StartByte() })

	gen := newNameGenerator(ctx.Options.RenameStyle)
	roleCounters := map[scope.Kind]int{}

	for _, b := range targets {
		var newName string
		for {
			switch ctx.Options.RenameStyle {
			case pipeline.RenameRoleDerived:
				newName = roleDerivedName(b.Kind, roleCounters)
			default:
				newName = gen.next()
			}
			if !reserved[newName] {
				break
			}
			if ctx.Options.RenameStyle == pipeline.RenameRoleDerived {
				roleCounters[b.Kind]++
			}
		}
		reserved[newName] = true

		renameBinding(b, newName, edits)
		ctx.Report.RecordRewrite()
	}

	return edits.Len() > 0, nil
}

func renameBinding(b *scope.Binding, newName string, edits *jsast.EditSet) {
	edits.ReplaceText(b.Decl, newName)
	for _, r := range b.Reads {
		edits.ReplaceText(r, newName)
	}
	for _, w := range b.Writes {
		edits.ReplaceText(w, newName)
	}
}

func roleDerivedName(kind scope.Kind, counters map[scope.Kind]int) string {
	prefix := "v"
	switch kind {
	case scope.KindParameter:
		prefix = "param"
	case scope.KindFunction:
		prefix = "fn"
	case scope.KindCatch:
		prefix = "err"
	case scope.KindConst:
		prefix = "k"
	case scope.KindLet:
		prefix = "state"
	}
	n := counters[kind]
	counters[kind] = n + 1
	if n == 0 {
		return prefix
	}
	return prefix + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// nameGenerator produces the deterministic-fresh stream a, b, c, ..., z,
// aa, ab, ... (spec.md §4.2 P12).
type nameGenerator struct{ n int }

func newNameGenerator(_ pipeline.RenameStyle) *nameGenerator { return &nameGenerator{} }

func (g *nameGenerator) next() string {
	n := g.n
	g.n++
	const base = 26
	var buf []byte
	for {
		buf = append([]byte{byte('a' + n%base)}, buf...)
		n = n/base - 1
		if n < 0 {
			break
		}
	}
	return string(buf)
}

var _ = sitter.Node{} // keep sitter import available for future field-level renames
