package ast

import sitter "github.com/smacker/go-tree-sitter"

// Node type names as produced by tree-sitter-javascript. Grounded on the
// node-type vocabulary the teacher's language providers use to classify
// syntax (function/class/variable/call/assignment/condition/loop kinds),
// generalized here to the flat set jsdeobf's passes match against directly.
const (
	KindProgram                    = "program"
	KindFunctionDeclaration        = "function_declaration"
	KindFunctionExpression         = "function"
	KindArrowFunction              = "arrow_function"
	KindGeneratorFunctionDecl      = "generator_function_declaration"
	KindClassDeclaration           = "class_declaration"
	KindClass                      = "class"
	KindMethodDefinition           = "method_definition"
	KindVariableDeclarator         = "variable_declarator"
	KindVariableDeclaration        = "variable_declaration"
	KindLexicalDeclaration         = "lexical_declaration"
	KindImportStatement            = "import_statement"
	KindFieldDefinition             = "field_definition"
	KindPublicFieldDefinition      = "public_field_definition"
	KindCallExpression             = "call_expression"
	KindNewExpression              = "new_expression"
	KindAssignmentExpression       = "assignment_expression"
	KindAugmentedAssignment        = "augmented_assignment_expression"
	KindIfStatement                = "if_statement"
	KindTernaryExpression          = "ternary_expression"
	KindSwitchStatement            = "switch_statement"
	KindSwitchCase                 = "switch_case"
	KindSwitchDefault              = "switch_default"
	KindForStatement               = "for_statement"
	KindForInStatement              = "for_in_statement"
	KindWhileStatement             = "while_statement"
	KindDoStatement                = "do_statement"
	KindStatementBlock              = "statement_block"
	KindComment                    = "comment"
	KindDecorator                  = "decorator"
	KindTypeAnnotation             = "type_annotation"
	KindTypeIdentifier             = "type_identifier"
	KindIdentifier                 = "identifier"
	KindPropertyIdentifier         = "property_identifier"
	KindShorthandPropertyIdentifier = "shorthand_property_identifier"
	KindNumber                      = "number"
	KindString                     = "string"
	KindStringFragment             = "string_fragment"
	KindTemplateString             = "template_string"
	KindRegex                      = "regex"
	KindTrue                       = "true"
	KindFalse                      = "false"
	KindNull                       = "null"
	KindUndefined                  = "undefined"
	KindArray                      = "array"
	KindObject                     = "object"
	KindPair                       = "pair"
	KindMemberExpression           = "member_expression"
	KindSubscriptExpression        = "subscript_expression"
	KindBinaryExpression           = "binary_expression"
	KindUnaryExpression            = "unary_expression"
	KindLogicalExpression          = "logical_expression"
	KindSequenceExpression         = "sequence_expression"
	KindParenthesizedExpression    = "parenthesized_expression"
	KindExpressionStatement        = "expression_statement"
	KindReturnStatement            = "return_statement"
	KindThrowStatement             = "throw_statement"
	KindBreakStatement             = "break_statement"
	KindContinueStatement          = "continue_statement"
	KindEmptyStatement             = "empty_statement"
	KindLabeledStatement           = "labeled_statement"
	KindTryStatement               = "try_statement"
	KindCatchClause                = "catch_clause"
	KindFinallyClause              = "finally_clause"
	KindArguments                  = "arguments"
	KindFormalParameters           = "formal_parameters"
	KindSpreadElement              = "spread_element"
	KindRestPattern                = "rest_pattern"
	KindUpdateExpression           = "update_expression"
)

// Operator-kind sets used across the expression-simplification, proxy, and
// short-circuit passes.
var ArithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "**": true}
var ComparisonOps = map[string]bool{"==": true, "!=": true, "===": true, "!==": true, "<": true, ">": true, "<=": true, ">=": true}
var LogicalOps = map[string]bool{"&&": true, "||": true, "??": true}
var BitwiseOps = map[string]bool{"&": true, "|": true, "^": true, "<<": true, ">>": true, ">>>": true}

// IsPureLiteral reports whether n is a literal with no side effects when
// evaluated: numbers, strings, booleans, null/undefined, regex.
func IsPureLiteral(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case KindNumber, KindString, KindTrue, KindFalse, KindNull, KindUndefined, KindRegex:
		return true
	}
	return false
}

// IsFunctionLike reports whether n introduces a function scope.
func IsFunctionLike(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case KindFunctionDeclaration, KindFunctionExpression, KindArrowFunction, KindGeneratorFunctionDecl, KindMethodDefinition:
		return true
	}
	return false
}

// FindChild returns the first direct child of n with the given type, or nil.
func FindChild(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

// ChildrenByType returns every direct child of n with the given type, in
// document order.
func ChildrenByType(n *sitter.Node, typ string) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Type() == typ {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns every named child of n in document order.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}
