package passes

import (
	"fmt"
	"math"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	jsast "github.com/oxhq/jsdeobf/internal/ast"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

// ExpressionSimplification is P6 (spec.md §4.2): a batch of local rewrites
// run to fixed point by the driver. Each individual call here is one-shot
// over the current generation; pipeline.Engine.runFixedPoint is what
// repeats it until no further rewrite applies.
var ExpressionSimplification = pipeline.Pass{
	ID:         pipeline.P6ExpressionSimplification,
	Name:       "P6-expression-simplification",
	FixedPoint: true,
	Apply:      applyExpressionSimplification,
}

func applyExpressionSimplification(ctx *pipeline.Context) (bool, error) {
	edits := ctx.Edits
	src := ctx.Source

	jsast.Inspect(ctx.Tree.Root, func(n *sitter.Node) bool {
		ctx.Report.Visited++
		switch n.Type() {
		case jsast.KindSubscriptExpression:
			simplifySubscript(n, src, edits, ctx)
		case jsast.KindUnaryExpression:
			simplifyUnary(n, src, edits, ctx)
		case jsast.KindBinaryExpression:
			simplifyBinary(n, src, edits, ctx)
		case jsast.KindCallExpression:
			simplifyMathPow(n, src, edits, ctx)
		}
		return true
	})

	return edits.Len() > 0, nil
}

// simplifySubscript rewrites obj["literal"] -> obj.literal when the string
// is a valid bare identifier (spec.md P6 rule 1).
func simplifySubscript(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	obj := n.ChildByFieldName("object")
	idx := n.ChildByFieldName("index")
	if obj == nil || idx == nil {
		return
	}
	s, ok := stringLiteralValue(idx, src)
	if !ok || !isValidIdentifierName(s) {
		skip(ctx, false)
		return
	}
	edits.ReplaceText(n, obj.Content(src)+"."+s)
	ctx.Report.RecordRewrite()
}

// simplifyUnary handles !0/!1/![]/!![]/void 0/void <pure>, and folds unary
// +/- applied to a numeric literal into a signed literal (spec.md P6 rules
// 2 and 6).
func simplifyUnary(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	op := n.Child(0)
	arg := n.ChildByFieldName("argument")
	if op == nil || arg == nil {
		return
	}
	switch op.Content(src) {
	case "!":
		inner := unwrapParens(arg)
		switch {
		case arg.Type() == jsast.KindNumber && arg.Content(src) == "0":
			edits.ReplaceText(n, "true")
			ctx.Report.RecordRewrite()
		case arg.Type() == jsast.KindNumber && arg.Content(src) == "1":
			edits.ReplaceText(n, "false")
			ctx.Report.RecordRewrite()
		case arg.Type() == jsast.KindUnaryExpression && isBangEmptyArray(arg, src):
			edits.ReplaceText(n, "true")
			ctx.Report.RecordRewrite()
		case arg.Type() == jsast.KindArray && arg.NamedChildCount() == 0:
			edits.ReplaceText(n, "false")
			ctx.Report.RecordRewrite()
		case inner.Type() == jsast.KindBinaryExpression && negateComparison(inner, src) != "":
			edits.ReplaceText(n, negateComparison(inner, src))
			ctx.Report.RecordRewrite()
		case inner.Type() == jsast.KindBinaryExpression && deMorgan(inner, src) != "":
			edits.ReplaceText(n, deMorgan(inner, src))
			ctx.Report.RecordRewrite()
		}
	case "void":
		if isPure(arg) {
			edits.ReplaceText(n, "undefined")
			ctx.Report.RecordRewrite()
		} else {
			skip(ctx, true)
		}
	case "+":
		if v, ok := numberLiteralValue(arg, src); ok {
			edits.ReplaceText(n, formatNumber(v))
			ctx.Report.RecordRewrite()
		}
	case "-":
		if v, ok := numberLiteralValue(arg, src); ok && formatNumber(-v) != n.Content(src) {
			edits.ReplaceText(n, formatNumber(-v))
			ctx.Report.RecordRewrite()
		}
	}
}

// negatedComparisonOp maps each comparison operator to its negation, used by
// negateComparison to rewrite !(a OP b) -> a NEG(OP) b (spec.md P6 rule 7).
var negatedComparisonOp = map[string]string{
	"==": "!=", "!=": "==",
	"===": "!==", "!==": "===",
	"<": ">=", ">=": "<",
	">": "<=", "<=": ">",
}

// negateComparison rewrites !(a OP b) to a NEG(OP) b for a comparison
// operator OP, returning "" if n isn't a comparison this rule covers.
func negateComparison(n *sitter.Node, src []byte) string {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	opNode := n.ChildByFieldName("operator")
	if left == nil || right == nil || opNode == nil {
		return ""
	}
	neg, ok := negatedComparisonOp[opNode.Content(src)]
	if !ok {
		return ""
	}
	return left.Content(src) + " " + neg + " " + right.Content(src)
}

// deMorgan rewrites !(a && b) -> !a || !b and !(a || b) -> !a && !b
// (spec.md P6 rule 7), returning "" if n isn't a logical && / || expression.
func deMorgan(n *sitter.Node, src []byte) string {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	opNode := n.ChildByFieldName("operator")
	if left == nil || right == nil || opNode == nil {
		return ""
	}
	var dual string
	switch opNode.Content(src) {
	case "&&":
		dual = "||"
	case "||":
		dual = "&&"
	default:
		return ""
	}
	return negateOperand(left, src) + " " + dual + " " + negateOperand(right, src)
}

// negateOperand renders !operand, collapsing a double negation (!!x -> x)
// and reusing negateComparison for a comparison operand instead of wrapping
// it in a redundant "!(...)".
func negateOperand(n *sitter.Node, src []byte) string {
	inner := unwrapParens(n)
	if inner.Type() == jsast.KindUnaryExpression {
		if op := inner.Child(0); op != nil && op.Content(src) == "!" {
			if arg := inner.ChildByFieldName("argument"); arg != nil {
				return arg.Content(src)
			}
		}
	}
	if inner.Type() == jsast.KindBinaryExpression {
		if neg := negateComparison(inner, src); neg != "" {
			return neg
		}
	}
	return "!(" + n.Content(src) + ")"
}

// isBangEmptyArray reports whether n is `![]`, used to recognize `!![]`.
func isBangEmptyArray(n *sitter.Node, src []byte) bool {
	op := n.Child(0)
	arg := n.ChildByFieldName("argument")
	return op != nil && op.Content(src) == "!" && arg != nil && arg.Type() == jsast.KindArray && arg.NamedChildCount() == 0
}

// simplifyBinary constant-folds arithmetic/comparison/string-concat of pure
// literal operands and applies the x+0/0+x, x-0, x*1/1*x algebraic
// identities, checking both operand positions (spec.md P6 rules 3 and 4).
func simplifyBinary(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	opNode := n.ChildByFieldName("operator")
	if left == nil || right == nil || opNode == nil {
		return
	}
	op := opNode.Content(src)

	if lv, lok := numberLiteralValue(left, src); lok {
		if rv, rok := numberLiteralValue(right, src); rok {
			if folded, ok := foldNumeric(op, lv, rv); ok {
				edits.ReplaceText(n, folded)
				ctx.Report.RecordRewrite()
				return
			}
		}
	}
	if ls, lok := stringLiteralValue(left, src); lok && op == "+" {
		if rs, rok := stringLiteralValue(right, src); rok {
			edits.ReplaceText(n, strconv.Quote(ls+rs))
			ctx.Report.RecordRewrite()
			return
		}
	}

	// x + 0, x - 0, x * 1, and their commuted forms 0 + x, 1 * x (subtraction
	// has no commuted identity: 0 - x negates x, it isn't a no-op).
	if rv, ok := numberLiteralValue(right, src); ok {
		switch {
		case op == "+" && rv == 0:
			edits.ReplaceText(n, left.Content(src))
			ctx.Report.RecordRewrite()
			return
		case op == "-" && rv == 0:
			edits.ReplaceText(n, left.Content(src))
			ctx.Report.RecordRewrite()
			return
		case op == "*" && rv == 1:
			edits.ReplaceText(n, left.Content(src))
			ctx.Report.RecordRewrite()
			return
		}
	}
	if lv, ok := numberLiteralValue(left, src); ok {
		switch {
		case op == "+" && lv == 0:
			edits.ReplaceText(n, right.Content(src))
			ctx.Report.RecordRewrite()
		case op == "*" && lv == 1:
			edits.ReplaceText(n, right.Content(src))
			ctx.Report.RecordRewrite()
		}
	}
}

func foldNumeric(op string, l, r float64) (string, bool) {
	switch op {
	case "+":
		return formatNumber(l + r), true
	case "-":
		return formatNumber(l - r), true
	case "*":
		return formatNumber(l * r), true
	case "/":
		return formatNumber(l / r), true
	case "%":
		return formatNumber(float64(int64(l) % int64(r))), true
	case "==", "===":
		return formatBool(l == r), true
	case "!=", "!==":
		return formatBool(l != r), true
	case "<":
		return formatBool(l < r), true
	case ">":
		return formatBool(l > r), true
	case "<=":
		return formatBool(l <= r), true
	case ">=":
		return formatBool(l >= r), true
	}
	return "", false
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatNumber renders a float64 the way the JS printer would: integral
// values without a trailing ".0", "Infinity"/"-Infinity" for division by
// zero (seed scenario 4: `1/0` -> `Infinity`).
func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%g", v)
}

// simplifyMathPow rewrites Math.pow(x, 2) -> x * x when x is side-effect
// free (spec.md P6 rule 5).
func simplifyMathPow(n *sitter.Node, src []byte, edits *jsast.EditSet, ctx *pipeline.Context) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil || args == nil || fn.Type() != jsast.KindMemberExpression {
		return
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	if obj == nil || prop == nil || obj.Content(src) != "Math" || prop.Content(src) != "pow" {
		return
	}
	if int(args.NamedChildCount()) != 2 {
		return
	}
	x := args.NamedChild(0)
	exp := args.NamedChild(1)
	ev, ok := numberLiteralValue(exp, src)
	if !ok || ev != 2 {
		skip(ctx, true)
		return
	}
	if !isPure(x) {
		skip(ctx, true)
		return
	}
	xt := x.Content(src)
	edits.ReplaceText(n, xt+" * "+xt)
	ctx.Report.RecordRewrite()
}
