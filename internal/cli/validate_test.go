package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprtrace/internal/compiler"
)

func TestValidateValidTrees(t *testing.T) {
	dir := writeFiles(t, map[string]string{"trees.cue": validTrees})

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ All 2 tree(s) valid\n", out)
}

func TestValidateValidTreesJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"trees.cue": validTrees})

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Trees)
}

func TestValidateRuleViolations(t *testing.T) {
	dir := writeFiles(t, map[string]string{"trees.cue": `package trees

tree: sum: source: "1 + 2"
tree: ok: source: "() => 1 + 2"
`})

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "tree sum\n  E201: kind: tree root must be a Lambda, got Add")
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
}

func TestValidateCompileErrorsJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"trees.cue": `package trees

tree: bad: source: "(x) => y"
tree: sum: source: "1 + 2"
`})

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, ErrCodeParse, resp.Data.Errors[0].Code)
	assert.Equal(t, "load", resp.Data.Errors[0].Field)
	assert.Equal(t, compiler.ErrRootNotLambda, resp.Data.Errors[1].Code)
}

func TestValidateMissingDir(t *testing.T) {
	_, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/trees")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateTreesDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{"trees.cue": validTrees})
	errs, err := ValidateTreesDir(dir)
	require.NoError(t, err)
	assert.Empty(t, errs)

	_, err = ValidateTreesDir("/nonexistent/trees")
	assert.ErrorContains(t, err, "trees directory not found")
}
