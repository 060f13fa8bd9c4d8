package printer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/printer"
)

func mustPrint(t *testing.T, source string) string {
	t.Helper()
	tree, err := jsast.Parse(context.Background(), []byte(source))
	require.NoError(t, err)
	defer tree.Close()
	return printer.Print(tree, printer.DefaultOptions())
}

func TestPrintReindentsNestedBlocks(t *testing.T) {
	out := mustPrint(t, "if(a){b();if(c){d();}}")
	require.Contains(t, out, "if (a) {\n  b();\n  if (c) {\n    d();\n  }\n}\n")
}

func TestPrintPreservesStatementOrder(t *testing.T) {
	out := mustPrint(t, "var a = 1; function f() { return a; } f();")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.True(t, strings.HasPrefix(lines[0], "var a"))
	require.Contains(t, out, "function f()")
	require.True(t, strings.HasSuffix(strings.TrimSpace(out), "f();"))
}

func TestPrintPreservesTemplateLiteralVerbatim(t *testing.T) {
	out := mustPrint(t, "var x = `line1\nline2`;")
	require.Contains(t, out, "`line1\nline2`")
}
