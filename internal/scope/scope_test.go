package scope

import (
	"context"
	"testing"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestResolveReadsAndWrites(t *testing.T) {
	src := []byte("var a = 1; function f(x) { a = x + a; return a; }")
	tree, err := jsast.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	table := Resolve(tree.Root, tree.Source)

	var a, x *Binding
	for _, b := range table.Bindings {
		switch b.Name {
		case "a":
			a = b
		case "x":
			x = b
		}
	}
	require.NotNil(t, a)
	require.NotNil(t, x)
	require.True(t, a.Captured, "a is read/written from nested function f")
	require.Len(t, a.Writes, 1)
	require.Len(t, a.Reads, 2)
	require.Len(t, x.Reads, 1)
}

func TestResolveFunctionDeclarationBindsInEnclosingScope(t *testing.T) {
	src := []byte("function outer() { function inner() {} inner(); }")
	tree, err := jsast.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	table := Resolve(tree.Root, tree.Source)
	var inner *Binding
	for _, b := range table.Bindings {
		if b.Name == "inner" {
			inner = b
		}
	}
	require.NotNil(t, inner)
	require.Equal(t, KindFunction, inner.Kind)
	require.Len(t, inner.Reads, 1)
}

func TestImmutableConst(t *testing.T) {
	src := []byte("const c = 1;")
	tree, err := jsast.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	table := Resolve(tree.Root, tree.Source)
	require.Len(t, table.Bindings, 1)
	require.True(t, table.Bindings[0].Immutable())
}
