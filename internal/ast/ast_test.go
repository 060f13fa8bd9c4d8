package ast

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	src := []byte("var a = 1;\nfunction f(x) { return x + 1; }\n")
	tree, err := Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	require.Equal(t, KindProgram, tree.Root.Type())
	require.False(t, tree.Root.HasError())
}

func TestParseErrorSurfaces(t *testing.T) {
	src := []byte("function f( { return; }")
	_, err := Parse(context.Background(), src)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestEditSetReplaceLiteral(t *testing.T) {
	src := []byte("var a = 1;")
	tree, err := Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	lit := Find(tree.Root, func(n *sitter.Node) bool { return n.Type() == KindNumber })
	require.NotNil(t, lit)

	edits := NewEditSet()
	edits.ReplaceText(lit, "2")
	out, err := edits.Apply(src)
	require.NoError(t, err)
	require.Equal(t, "var a = 2;", string(out))
}

func TestEditSetDetectsOverlap(t *testing.T) {
	src := []byte("var a = 1 + 2;")
	tree, err := Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	bin := Find(tree.Root, func(n *sitter.Node) bool { return n.Type() == KindBinaryExpression })
	require.NotNil(t, bin)
	lhs := bin.Child(0)

	edits := NewEditSet()
	edits.ReplaceText(bin, "3")
	edits.ReplaceText(lhs, "9")
	_, err = edits.Apply(src)
	require.Error(t, err)
}

func TestStructuralEqual(t *testing.T) {
	a, err := Parse(context.Background(), []byte("var a=1;"))
	require.NoError(t, err)
	defer a.Close()
	b, err := Parse(context.Background(), []byte("var a = 1;"))
	require.NoError(t, err)
	defer b.Close()

	require.True(t, Equal(a.Root, b.Root, a.Source, b.Source))
}
