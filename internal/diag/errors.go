// Package diag implements the five-member error taxonomy (spec.md §7) and
// the per-pass diagnostics counters (spec.md §2's "Diagnostics" component).
// Grounded on termfx-morfx's internal/core/errorfmt.go CLIError/Wrap shape,
// generalized from one CLI-facing error code to the five semantically
// distinct kinds the pipeline needs: only ParseError and InvariantViolation
// implement error in a way that is meant to propagate out of a pipeline
// run; PatternMismatch, SemanticGuardFailure, and BudgetExceeded are
// internal diagnostics, never returned as errors.
package diag

import "fmt"

// Kind names one of the five error taxonomy members.
type Kind int

const (
	KindParseError Kind = iota
	KindPatternMismatch
	KindSemanticGuardFailure
	KindInvariantViolation
	KindBudgetExceeded
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindPatternMismatch:
		return "PatternMismatch"
	case KindSemanticGuardFailure:
		return "SemanticGuardFailure"
	case KindInvariantViolation:
		return "InvariantViolation"
	case KindBudgetExceeded:
		return "BudgetExceeded"
	default:
		return "Unknown"
	}
}

// Error wraps a taxonomy Kind with a message and optional pass name and
// location, mirroring core.CLIError{Code,Message,Detail}.
type Error struct {
	Kind    Kind
	Pass    string
	Message string
	Detail  error
}

func (e *Error) Error() string {
	if e.Pass != "" {
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Pass, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Detail }

// Wrap constructs an Error, mirroring core.Wrap(code, msg, inner).
func Wrap(kind Kind, pass, msg string, inner error) *Error {
	return &Error{Kind: kind, Pass: pass, Message: msg, Detail: inner}
}

// NewParseError builds a propagating ParseError.
func NewParseError(msg string, inner error) *Error {
	return Wrap(KindParseError, "", msg, inner)
}

// NewInvariantViolation builds a propagating, fatal InvariantViolation:
// "a pass produced a malformed AST" (spec.md §7.4).
func NewInvariantViolation(pass, msg string) *Error {
	return Wrap(KindInvariantViolation, pass, msg, nil)
}
