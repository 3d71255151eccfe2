package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/exprtrace/internal/expr"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Trace    string // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Trace != "" {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, line := range strings.SplitAfter(strings.TrimSuffix(e.Trace, "\n"), "\n") {
			fmt.Fprintf(&buf, "  | %s", line)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result, a)
	case AssertNodeCount:
		return assertNodeCount(result, a)
	case AssertUnhandledCount:
		return assertUnhandledCount(result, a)
	case AssertLineCount:
		return assertCount(result, a, "trace lines", result.Lines)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertTraceContains(result *Result, a Assertion) error {
	if strings.Contains(result.Trace, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("trace containing %q", a.Text),
		Actual:   "not found in trace",
		Trace:    result.Trace,
	}
}

func assertNodeCount(result *Result, a Assertion) error {
	if a.Kind == "" {
		return assertCount(result, a, "traced nodes", result.Nodes)
	}
	kind, ok := expr.ParseKind(a.Kind)
	if !ok {
		return fmt.Errorf("unknown node kind %q", a.Kind)
	}
	return assertCount(result, a, a.Kind+" nodes", result.kinds[kind])
}

func assertUnhandledCount(result *Result, a Assertion) error {
	if a.Kind == "" {
		return assertCount(result, a, "unhandled nodes", len(result.Unhandled))
	}
	n := 0
	for _, k := range result.Unhandled {
		if k == a.Kind {
			n++
		}
	}
	return assertCount(result, a, "unhandled "+a.Kind+" nodes", n)
}

func assertCount(result *Result, a Assertion, what string, got int) error {
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", got, what),
		Trace:    result.Trace,
	}
}
