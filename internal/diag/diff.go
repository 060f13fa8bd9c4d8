package diag

import (
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders a unified diff between before and after, used by
// `--diff` output to show operators exactly what the pipeline changed. Uses go-difflib's Myers-diff
// implementation rather than the teacher's hand-rolled, line-approximate
// generateDiff (see SPEC_FULL.md §3: already a teacher dependency, strictly
// better than re-deriving the same thing by hand).
func UnifiedDiff(before, after, filename string, context int) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: filename,
		ToFile:   filename + " (deobfuscated)",
		Context:  context,
	}
	return difflib.GetUnifiedDiffString(diff)
}
