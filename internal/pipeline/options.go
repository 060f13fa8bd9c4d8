// Package pipeline is the pass framework and driver (spec.md §4.3): a Pass
// is named, has a fixed-point flag and a scope dependency; the driver runs
// P1..P19 in declared order, resolving scope afresh for every invocation
// of a pass that needs it. Grounded on
// termfx-morfx's core.Pipeline.Apply 8-step shape (parse, resolve op,
// select anchors, plan edits, apply edits, post-process, diff, finalize),
// generalized from "one operation over one query result" to "19 passes
// over a whole program, three of them iterated to fixed point".
package pipeline

// RenameStyle selects how P12 derives new names for hex-pattern
// identifiers (spec.md §6 DeobfuscateOptions.rename_style).
type RenameStyle int

const (
	RenameRoleDerived RenameStyle = iota
	RenameDeterministicFresh
)

// PassID identifies one of the 19 passes by their declared order.
type PassID int

const (
	P1ControlFlowUnflatten PassID = iota + 1
	P2StringArrayRotation
	P3DecoderInlining
	P4CallProxyInlining
	P5OperatorProxyInlining
	P6ExpressionSimplification
	P7DeadCodeElimination
	P8DeadVariableElimination
	P9FunctionInlining
	P10MiscCleanup
	P11LiteralNormalization
	P12IdentifierRenaming
	P13EmptyStatementCleanup
	P14SequenceSplitting
	P15MultiVariableSplitting
	P16TernaryToIf
	P17ShortCircuitToIf
	P18IIFEUnwrapping
	P19WebpackModuleAnnotation
)

const passCount = int(P19WebpackModuleAnnotation)

// DeobfuscateOptions is the pipeline entry's option bag (spec.md §6).
type DeobfuscateOptions struct {
	EnablePass              [passCount + 1]bool // 1-indexed by PassID
	MaxFixedPointIterations int
	RenameStyle             RenameStyle
	PreserveComments        bool
	AnnotateWebpackModules  bool
}

// DefaultOptions matches spec.md §6's stated defaults: every pass enabled,
// a 50-iteration fixed-point cap, role-derived renaming, comments and
// webpack annotations preserved.
func DefaultOptions() DeobfuscateOptions {
	opts := DeobfuscateOptions{
		MaxFixedPointIterations: 50,
		RenameStyle:             RenameRoleDerived,
		PreserveComments:        true,
		AnnotateWebpackModules:  true,
	}
	for i := range opts.EnablePass {
		opts.EnablePass[i] = true
	}
	return opts
}

// Enabled reports whether id is enabled under opts.
func (o DeobfuscateOptions) Enabled(id PassID) bool {
	if int(id) < 0 || int(id) >= len(o.EnablePass) {
		return false
	}
	return o.EnablePass[id]
}

// Disable turns off id, used by --skip-pass.
func (o *DeobfuscateOptions) Disable(id PassID) { o.EnablePass[id] = false }

// EnableOnly turns off every pass except those listed, used by --only-pass.
func (o *DeobfuscateOptions) EnableOnly(ids ...PassID) {
	for i := range o.EnablePass {
		o.EnablePass[i] = false
	}
	for _, id := range ids {
		o.EnablePass[id] = true
	}
}
