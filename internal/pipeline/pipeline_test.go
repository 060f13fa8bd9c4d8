package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/diag"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

func TestDefaultOptionsEnablesEveryPass(t *testing.T) {
	opts := pipeline.DefaultOptions()
	require.True(t, opts.Enabled(pipeline.P1ControlFlowUnflatten))
	require.True(t, opts.Enabled(pipeline.P19WebpackModuleAnnotation))
	require.Equal(t, 50, opts.MaxFixedPointIterations)
}

func TestDisableAndEnableOnly(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.Disable(pipeline.P12IdentifierRenaming)
	require.False(t, opts.Enabled(pipeline.P12IdentifierRenaming))
	require.True(t, opts.Enabled(pipeline.P1ControlFlowUnflatten))

	opts.EnableOnly(pipeline.P6ExpressionSimplification)
	require.True(t, opts.Enabled(pipeline.P6ExpressionSimplification))
	require.False(t, opts.Enabled(pipeline.P1ControlFlowUnflatten))
}

func renamePass(name string) pipeline.Pass {
	return pipeline.Pass{
		ID:   pipeline.P6ExpressionSimplification,
		Name: name,
		Apply: func(ctx *pipeline.Context) (bool, error) {
			return false, nil
		},
	}
}

func TestEngineRunNoOpPassLeavesSourceUnchanged(t *testing.T) {
	engine := pipeline.NewEngine([]pipeline.Pass{renamePass("noop")}, diag.NewLogger(nil, diag.LevelWarn))
	result, err := engine.Run(context.Background(), []byte("var a = 1;"), pipeline.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "var a = 1;", string(result.Output))
	require.Len(t, result.Report.Passes, 1)
	require.Equal(t, 0, result.Report.Passes[0].Rewrites)
}

func TestEngineRunRewritingPassReparsesAndApplies(t *testing.T) {
	rewrite := pipeline.Pass{
		ID:   pipeline.P11LiteralNormalization,
		Name: "literal-rewrite",
		Apply: func(ctx *pipeline.Context) (bool, error) {
			ctx.Edits.ReplaceText(ctx.Tree.Root.NamedChild(0), "var a = 2;")
			ctx.Report.RecordRewrite()
			return true, nil
		},
	}
	engine := pipeline.NewEngine([]pipeline.Pass{rewrite}, nil)
	result, err := engine.Run(context.Background(), []byte("var a = 1;"), pipeline.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "var a = 2;", string(result.Output))
	require.Equal(t, 1, result.Report.TotalRewrites())
}

func TestEngineRunSurfacesParseError(t *testing.T) {
	engine := pipeline.NewEngine(nil, nil)
	_, err := engine.Run(context.Background(), []byte("var a = ;;;("), pipeline.DefaultOptions())
	require.Error(t, err)
	var perr *jsast.ParseError
	require.ErrorAs(t, err, &perr)
}
