package passes

import "github.com/oxhq/jsdeobf/internal/pipeline"

// All returns the 19 passes in their declared P1..P19 order (spec.md §4.2),
// the table an Engine is constructed from.
func All() []pipeline.Pass {
	return []pipeline.Pass{
		ControlFlowUnflatten,
		StringArrayRotation,
		DecoderInlining,
		CallProxyInlining,
		OperatorProxyInlining,
		ExpressionSimplification,
		DeadCodeElimination,
		DeadVariableElimination,
		FunctionInlining,
		MiscCleanup,
		LiteralNormalization,
		IdentifierRenaming,
		EmptyStatementCleanup,
		SequenceSplitting,
		MultiVariableSplitting,
		TernaryToIf,
		ShortCircuitToIf,
		IIFEUnwrapping,
		WebpackModuleAnnotation,
	}
}
