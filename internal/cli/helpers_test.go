package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const additionTrace = `This expression is a Lambda expression type
The name of the lambda is <null>
The return type is int
The expression has 2 argument(s). They are:
  This is a Parameter expression type
  Type: int, Name: a, ByRef: false
  This is a Parameter expression type
  Type: int, Name: b, ByRef: false
The expression body is:
  This binary expression is a Add expression
  The Left argument is:
    This is a Parameter expression type
    Type: int, Name: a, ByRef: false
  The Right argument is:
    This is a Parameter expression type
    Type: int, Name: b, ByRef: false
`

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeFiles writes name -> content pairs into a fresh temporary directory.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

const validTrees = `package trees

tree: add: source: "(a, b) => a + b"
tree: inc: {
	kind: "Lambda"
	params: [{name: "x"}]
	body: {kind: "Add", left: {kind: "Parameter", name: "x"}, right: 1}
}
`
