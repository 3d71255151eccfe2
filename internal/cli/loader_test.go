package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprtrace/internal/compiler"
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
)

func TestLoadTrees(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.cue": "package trees\n\ntree: zeta: source: \"() => 1\"\n",
		"b.cue": "package trees\n\ntree: alpha: source: \"(s string) => s.Length()\"\n",
	})

	result, errs := LoadTrees(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Trees, 2)
	assert.Equal(t, "alpha", result.Trees[0].Name)
	assert.Equal(t, "zeta", result.Trees[1].Name)
}

func TestLoadTreesFailFast(t *testing.T) {
	dir := writeFiles(t, map[string]string{"trees.cue": `package trees

tree: a: source: "(x) => y"
tree: b: source: "(x) => z"
`})

	_, errs := LoadTrees(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)

	_, errs = LoadTrees(dir, LoadModeCollectAll)
	assert.Len(t, errs, 2)
}

func TestLoadTreesNoTrees(t *testing.T) {
	dir := writeFiles(t, map[string]string{"empty.cue": "package trees\n\nother: 1\n"})

	result, errs := LoadTrees(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no trees found")
}

func TestLoadTreesBuildError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.cue": "package trees\n\nx: missingRef\n"})

	result, errs := LoadTrees(dir, LoadModeCollectAll)
	assert.Nil(t, result)
	require.Len(t, errs, 1)
	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeBuildFailed, loadErr.Code)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		err  *compiler.CompileError
		want string
	}{
		{&compiler.CompileError{Field: "tree.f.kind"}, ErrCodeUnknownKind},
		{&compiler.CompileError{Field: "tree.f.params[0].type"}, ErrCodeInvalidType},
		{&compiler.CompileError{Field: "tree.f.body.method"}, ErrCodeUnknownMethod},
		{&compiler.CompileError{Field: "tree.f.source"}, ErrCodeParse},
		{&compiler.CompileError{Field: "tree.f.body", Message: "floats are not supported; use int"}, ErrCodeInvalidType},
		{&compiler.CompileError{Field: "tree.f.body", Message: "body is required"}, ErrCodeInvalidNode},
		{&compiler.CompileError{Field: "tree.f", Err: &parser.Error{Message: "undefined: y"}}, ErrCodeParse},
		{&compiler.CompileError{Field: "tree.f.body", Err: expr.ErrTypeMismatch}, ErrCodeInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.err.Field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.err))
		})
	}
}

func TestReadSource(t *testing.T) {
	src, err := readSource("(a) => a", strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "(a) => a", src)

	src, err = readSource("-", strings.NewReader("  (a) => a\n"))
	require.NoError(t, err)
	assert.Equal(t, "(a) => a", src)
}
