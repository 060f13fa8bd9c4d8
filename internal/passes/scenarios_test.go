package passes_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/diag"
	"github.com/oxhq/jsdeobf/internal/passes"
	"github.com/oxhq/jsdeobf/internal/pipeline"
	"github.com/oxhq/jsdeobf/internal/printer"
)

// normalize collapses whitespace so assertions don't depend on the
// printer's exact spacing, only on statement content and order.
func normalize(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func runPipeline(t *testing.T, source string) string {
	t.Helper()
	engine := pipeline.NewEngine(passes.All(), nil)
	result, err := engine.Run(context.Background(), []byte(source), pipeline.DefaultOptions())
	require.NoError(t, err)

	tree, err := ast.Parse(context.Background(), result.Output)
	require.NoError(t, err)
	defer tree.Close()

	return printer.Print(tree, printer.DefaultOptions())
}

// TestSeedScenario1RotatedStringArray is spec.md §8 seed scenario 1: a
// push/shift rotation IIFE over a literal string array, read through a
// single-argument decoder.
func TestSeedScenario1RotatedStringArray(t *testing.T) {
	src := `var a=["c","a","b"]; (function(x,n){while(--n)x.push(x.shift());})(a,2); function d(i){return a[i];} console.log(d(0));`
	got := runPipeline(t, src)
	require.Equal(t, `console.log("b");`, normalize(got))
}

// TestSeedScenario2OffsetDecoder is spec.md §8 seed scenario 2: a decoder
// that reassigns its index parameter by a constant offset before indexing.
func TestSeedScenario2OffsetDecoder(t *testing.T) {
	src := `var a=["apple","banana"]; function d(i){i=i-100; return a[i];} console.log(d(100));`
	got := runPipeline(t, src)
	require.Equal(t, `console.log("apple");`, normalize(got))
}

// TestSeedScenario3ControlFlowSwitch is spec.md §8 seed scenario 3: a
// while(true){switch}-flattened dispatcher driven by a split string
// sequence.
func TestSeedScenario3ControlFlowSwitch(t *testing.T) {
	src := `var s="3|1|0|2|4".split("|"),i=0; while(true){switch(s[i++]){case "0":log("three");continue;case "1":log("two");continue;case "2":log("four");continue;case "3":log("one");continue;case "4":log("five");break;}break;}`
	got := runPipeline(t, src)
	require.Equal(t,
		`log("one"); log("two"); log("three"); log("four"); log("five");`,
		normalize(got))
}

// TestSeedScenario4BooleanAndLiteralNormalization is spec.md §8 seed
// scenario 4: `!0`/`!1`/`void 0`/`1/0` normalized to their literal forms,
// with the multi-declarator `var` split by P15.
func TestSeedScenario4BooleanAndLiteralNormalization(t *testing.T) {
	src := `var x=!0, y=!1, z=void 0, w=1/0;`
	got := runPipeline(t, src)
	require.Equal(t,
		`var x = true; var y = false; var z = undefined; var w = Infinity;`,
		normalize(got))
}

// TestSeedScenario5SequenceSplittingShortCircuit is spec.md §8 seed
// scenario 5: a short-circuit `&&` guarding a comma-sequence of calls,
// rewritten into an `if` containing each call as its own statement.
func TestSeedScenario5SequenceSplittingShortCircuit(t *testing.T) {
	src := `cond && (a(), b(), c());`
	got := runPipeline(t, src)
	require.Equal(t, `if (cond) { a(); b(); c(); }`, normalize(got))
}

// TestSeedScenario6DeadBranchAndDeadVariable is spec.md §8 seed scenario 6:
// P7 removes the unreachable `if (false)` branch and the statement after
// `return`; P8 must NOT remove `unused` since its initializer (a call) is
// not provably pure.
func TestSeedScenario6DeadBranchAndDeadVariable(t *testing.T) {
	src := `var unused = expensive(); if (false) { junk(); } return 1; orphan();`
	got := runPipeline(t, src)
	require.Equal(t, `var unused = expensive(); return 1;`, normalize(got))
}

// TestDiagnosticsRecordedWithoutAborting confirms a run over adversarial
// but parseable input completes and returns a report rather than an error
// (spec.md §7: PatternMismatch/SemanticGuardFailure are soft, per-pass
// counters, never a propagating error).
func TestDiagnosticsRecordedWithoutAborting(t *testing.T) {
	src := `var a = [1, 2, 3]; function weird(i) { return a[i] + Math.random(); } console.log(weird(0));`
	engine := pipeline.NewEngine(passes.All(), diag.NewLogger(nil, diag.LevelWarn))
	result, err := engine.Run(context.Background(), []byte(src), pipeline.DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, result.Report.Passes)
}
