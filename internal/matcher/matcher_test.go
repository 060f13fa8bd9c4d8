package matcher

import (
	"context"
	"testing"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"
)

func TestAndCaptureGuard(t *testing.T) {
	tree, err := jsast.Parse(context.Background(), []byte("var a = 1 + 2;"))
	require.NoError(t, err)
	defer tree.Close()

	bin := jsast.Find(tree.Root, func(n *sitter.Node) bool { return n.Type() == jsast.KindBinaryExpression })
	require.NotNil(t, bin)

	env, ok := Match(And(Type(jsast.KindBinaryExpression), Capture("op", Type(jsast.KindBinaryExpression))), bin, tree.Source)
	require.True(t, ok)
	require.NotNil(t, env.Node("op"))
}

func TestTreeQueryCaptures(t *testing.T) {
	tree, err := jsast.Parse(context.Background(), []byte("var a; ; function f(){};"))
	require.NoError(t, err)
	defer tree.Close()

	q, err := NewTreeQuery("(empty_statement) @target")
	require.NoError(t, err)
	defer q.Close()

	nodes := q.Captures(tree.Root, tree.Source, "target")
	require.Len(t, nodes, 2)
}
