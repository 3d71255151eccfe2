package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/exprtrace/internal/eval"
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/trace"
)

// Validation error codes (E200-E299).
const (
	ErrRootNotLambda = "E201" // tree root must be a lambda
	ErrFreeParameter = "E202" // parameter referenced outside any lambda binding it
	ErrTooDeep       = "E203" // nesting exceeds MaxDepth
	ErrUnhandledKind = "E204" // node kind with no trace handler
	ErrDuplicateName = "E205" // two trees share a name
	ErrEmptyName     = "E206" // tree name is empty
)

// MaxDepth is the deepest nesting Validate accepts. It matches the
// parser's default limit so every valid tree can be written as source.
const MaxDepth = 100

// ValidationError is a rule violation found in a compiled tree.
type ValidationError struct {
	Tree    string `json:"tree"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Tree, e.Field, e.Message)
}

// Validate checks every tree and returns all violations, not just the
// first.
func Validate(trees []Tree) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(trees))
	for _, t := range trees {
		if t.Name == "" {
			errs = append(errs, ValidationError{Field: "name", Message: "tree name is required", Code: ErrEmptyName})
		} else if seen[t.Name] {
			errs = append(errs, ValidationError{
				Tree:    t.Name,
				Field:   "name",
				Message: fmt.Sprintf("duplicate tree name %q", t.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[t.Name] = true
		errs = append(errs, ValidateTree(t)...)
	}
	return errs
}

// ValidateTree checks a single tree.
func ValidateTree(t Tree) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Tree: t.Name, Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if t.Node == nil {
		add("tree", ErrRootNotLambda, "tree is empty")
		return errs
	}
	if t.Node.Kind() != expr.KindLambda {
		add("kind", ErrRootNotLambda, "tree root must be a Lambda, got %s", t.Node.Kind())
	}
	for _, p := range eval.FreeParameters(t.Node) {
		add("params", ErrFreeParameter, "parameter %s is not bound by any lambda", p.Name)
	}
	if d := Depth(t.Node); d > MaxDepth {
		add("tree", ErrTooDeep, "nesting depth %d exceeds %d", d, MaxDepth)
	}
	for _, k := range UnhandledKinds(t.Node) {
		add("kind", ErrUnhandledKind, "%s nodes are not traced", k)
	}
	return errs
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func Depth(n expr.Node) int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range expr.Children(n) {
		deepest = max(deepest, Depth(c))
	}
	return deepest + 1
}

// UnhandledKinds traces n with the default handlers and returns the
// distinct kinds the tracer reported as not processed, in visit order.
func UnhandledKinds(n expr.Node) []expr.Kind {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stats, _ := trace.New(io.Discard, trace.WithLogger(logger)).Trace(n, "")

	var kinds []expr.Kind
	for _, k := range stats.Unhandled {
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
