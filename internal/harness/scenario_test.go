package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Test scenario for validation"
source: "(x) => x * 2"
cases:
  - args: ["4"]
    expect: "8"
assertions:
  - type: node_count
    kind: Multiply
    count: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "(x) => x * 2", scenario.Source)
	assert.Equal(t, []Case{{Args: []string{"4"}, Expect: "8"}}, scenario.Cases)
	assert.Equal(t, Assertion{Type: AssertNodeCount, Kind: "Multiply", Count: 1}, scenario.Assertions[0])
	assert.Equal(t, "  ", scenario.IndentString())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := "name: s\ndescription: d\nsource: \"() => 1\"\n"
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "description: d\nsource: x\nassertions: [{type: line_count}]\n", "name is required"},
		{"missing description", "name: s\nsource: x\nassertions: [{type: line_count}]\n", "description is required"},
		{"missing source", "name: s\ndescription: d\nassertions: [{type: line_count}]\n", "source is required"},
		{"no assertions", base, "assertions list is required"},
		{"unknown field", base + "assertion: []\n", "field assertion not found"},
		{"unknown type", base + "assertions: [{type: final_state}]\n", `unknown assertion type "final_state"`},
		{"contains without text", base + "assertions: [{type: trace_contains}]\n", "text is required for trace_contains"},
		{"negative count", base + "assertions: [{type: node_count, count: -1}]\n", "count must be non-negative"},
		{"unknown kind", base + "assertions: [{type: node_count, kind: Loop}]\n", `unknown node kind "Loop"`},
		{"kind on line_count", base + "assertions: [{type: line_count, kind: Add}]\n", "kind is not allowed"},
		{"negative indent", base + "indent: -2\nassertions: [{type: line_count}]\n", "indent must be non-negative"},
		{
			"case with both expectations",
			base + "cases: [{args: [], expect: \"1\", expect_error: \"x\"}]\nassertions: [{type: line_count}]\n",
			"cases[0]: exactly one of expect and expect_error",
		},
		{
			"case with neither expectation",
			base + "cases: [{args: []}]\nassertions: [{type: line_count}]\n",
			"cases[0]: exactly one of expect and expect_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarios_Testdata(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"addition", "contains", "divide", "factorial", "fold"}, names)
}

func TestLoadScenarios_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	content := []byte("name: same\ndescription: d\nsource: \"() => 1\"\nassertions: [{type: line_count, count: 8}]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), content, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), content, 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "same" already used by a.yaml`)
}

func TestLoadScenarios_EmptyDir(t *testing.T) {
	_, err := LoadScenarios(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files")
}
