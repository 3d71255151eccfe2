package harness

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprtrace/internal/ir"
	"github.com/roach88/exprtrace/internal/parser"
)

func TestRun_Addition(t *testing.T) {
	scenario := &Scenario{
		Name:        "add",
		Description: "adds",
		Source:      "(a, b) => a + b",
		Cases:       []Case{{Args: []string{"2", "3"}, Expect: "5"}},
		Assertions: []Assertion{
			{Type: AssertNodeCount, Count: 6},
			{Type: AssertLineCount, Count: 16},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 6, result.Nodes)
	assert.Equal(t, 16, result.Lines)
	assert.Equal(t, []string{}, result.Unhandled)
	assert.Equal(t, []CaseResult{{Args: []string{"2", "3"}, Value: "5"}}, result.Cases)

	n, err := parser.Parse(scenario.Source)
	require.NoError(t, err)
	assert.Equal(t, ir.MustFingerprint(n), result.Fingerprint)
	assert.Equal(t, ir.TraceDigest(result.Fingerprint, result.Trace), result.Digest)
	assert.Equal(t, "run-1", result.RunID)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "det",
		Description: "same result twice",
		Source:      "(x) => x > 0 ? x : -x",
		Assertions:  []Assertion{{Type: AssertLineCount, Count: 25}},
	}
	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_CaseFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "every case is wrong",
		Source:      "(a, b) => a / b",
		Cases: []Case{
			{Args: []string{"6", "3"}, Expect: "3"},
			{Args: []string{"1", "0"}, Expect: "0"},
			{Args: []string{"1", "1"}, ExpectError: "division"},
			{Args: []string{"1", "0"}, ExpectError: "overflow"},
			{Args: []string{"1"}, Expect: "1"},
		},
		Assertions: []Assertion{{Type: AssertNodeCount, Count: 6}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"cases[0]: expected 3, got 2",
		"cases[1]: division by zero",
		`cases[2]: expected error containing "division", got 1`,
		`cases[3]: expected error containing "overflow", got "division by zero"`,
		"cases[4]: want 2 argument(s), got 1",
	}, result.Errors)
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "every assertion is wrong",
		Source:      "() => 7",
		Assertions: []Assertion{
			{Type: AssertTraceContains, Text: "Multiply"},
			{Type: AssertNodeCount, Count: 3},
			{Type: AssertNodeCount, Kind: "Constant", Count: 2},
			{Type: AssertUnhandledCount, Count: 1},
			{Type: AssertLineCount, Count: 7},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], `Expected: trace containing "Multiply"`)
	assert.Contains(t, result.Errors[1], "Actual: 2 traced nodes")
	assert.Contains(t, result.Errors[2], "Actual: 1 Constant nodes")
	assert.Contains(t, result.Errors[3], "Actual: 0 unhandled nodes")
	assert.Contains(t, result.Errors[4], "Actual: 8 trace lines")
	assert.Contains(t, result.Errors[4], "  |   The value of the constant value is 7\n")
}

func TestRun_Fold(t *testing.T) {
	scenario := &Scenario{
		Name:        "fold",
		Description: "folds",
		Source:      "(x) => x + 2 * 3",
		Fold:        true,
		Cases:       []Case{{Args: []string{"1"}, Expect: "7"}},
		Assertions: []Assertion{
			{Type: AssertNodeCount, Kind: "Multiply", Count: 0},
			{Type: AssertTraceContains, Text: "The value of the constant value is 6"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ParseError(t *testing.T) {
	_, err := Run(&Scenario{Name: "bad", Source: "1 + 2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse source")
}

func TestRun_Logger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(&Scenario{
		Name:       "logged",
		Source:     "() => 1",
		Assertions: []Assertion{{Type: AssertLineCount, Count: 8}},
	}, WithLogger(logger))
	require.NoError(t, err)
	assert.True(t, strings.Contains(logs.String(), "scenario=logged"), logs.String())
}
