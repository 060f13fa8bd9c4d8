package passes

import (
	"github.com/oxhq/jsdeobf/internal/matcher"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// WebpackModuleAnnotation is P19 (spec.md §4.2): recognizes object literals
// whose keys are numeric literals mapped to function values (the typical
// webpack module map `{ 12345: function(module,exports,require){...} }`)
// and inserts a `// ==== module 12345 ====` comment before each entry's
// function value. Honors DeobfuscateOptions.AnnotateWebpackModules and
// PreserveComments (spec.md §6): comments this pass inserts are themselves
// subject to preserve_comments, since turning the option off means "don't
// add printer-visible trivia at all".
var WebpackModuleAnnotation = pipeline.Pass{
	ID:    pipeline.P19WebpackModuleAnnotation,
	Name:  "P19-webpack-module-annotation",
	Apply: applyWebpackModuleAnnotation,
}

var webpackModulePairQuery = matcher.MustNewTreeQuery(
	`(pair key: (number) @key value: [(function) (arrow_function)] @value) @pair`,
)

func applyWebpackModuleAnnotation(ctx *pipeline.Context) (bool, error) {
	if !ctx.Options.AnnotateWebpackModules || !ctx.Options.PreserveComments {
		return false, nil
	}
	edits := ctx.Edits
	src := ctx.Source

	matches := webpackModulePairQuery.AllMatches(ctx.Tree.Root, src)
	ctx.Report.Visited += len(matches)
	if len(matches) == 0 {
		skip(ctx, false)
		return false, nil
	}

	for _, m := range matches {
		value := m.Captures["value"]
		key := m.Captures["key"]
		if value == nil || key == nil {
			continue
		}
		comment := "// ==== module " + key.Content(src) + " ====\n"
		edits.InsertBefore(value, []byte(comment))
		ctx.Report.RecordRewrite()
	}

	return edits.Len() > 0, nil
}
