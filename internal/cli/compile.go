package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/exprtrace/internal/compiler"
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledTree summarizes one compiled tree.
type CompiledTree struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
	Nodes       int    `json:"nodes"`
}

// CompilationResult holds the compiled trees.
type CompilationResult struct {
	IRVersion string         `json:"ir_version"`
	Trees     []CompiledTree `json:"trees"`
	Output    string         `json:"output,omitempty"`

	document ir.IRObject
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <trees-dir>",
		Short: "Compile CUE tree definitions to canonical IR",
		Long: `Compile the "tree" struct of a CUE package to canonical IR.

Trees are given either as lambda source text or as structural nodes.
Every error in the package is reported, not just the first. With -o the
canonical JSON document is written to a file:

  {"ir_version":"1","trees":{"<name>":<tree>,...}}`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, treesDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadTrees(treesDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, treesDir)
	for _, t := range loadResult.Trees {
		formatter.VerboseLog("Compiling tree: %s", t.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result, err := buildCompilationResult(loadResult.Trees)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidNode, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result.document, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		result.Output = opts.Output
	}

	return outputCompileSuccess(formatter, result)
}

// buildCompilationResult encodes every tree into one IR document.
func buildCompilationResult(trees []compiler.Tree) (*CompilationResult, error) {
	result := &CompilationResult{
		IRVersion: ir.IRVersion,
		Trees:     make([]CompiledTree, 0, len(trees)),
	}
	encoded := make(ir.IRObject, len(trees))
	for _, t := range trees {
		obj, err := ir.Encode(t.Node)
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", t.Name, err)
		}
		fp, err := ir.FingerprintObject(obj)
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", t.Name, err)
		}
		encoded[t.Name] = obj
		result.Trees = append(result.Trees, CompiledTree{
			Name:        t.Name,
			Source:      t.Source,
			Fingerprint: fp,
			Nodes:       expr.Count(t.Node),
		})
	}
	result.document = ir.IRObject{
		"ir_version": ir.IRString(ir.IRVersion),
		"trees":      encoded,
	}
	return result, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d tree(s)\n\n", len(result.Trees))
	for _, t := range result.Trees {
		fmt.Fprintf(formatter.Writer, "  %s: %s (%d node(s))\n", t.Name, t.Source, t.Nodes)
	}
	fmt.Fprintln(formatter.Writer)

	if result.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical IR to %s\n", result.Output)
	}
	return nil
}

// outputCompileErrors outputs every compilation error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := parseCompileError(err)
		cliErrors[i] = CLIError{Code: code, Message: message}
	}

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for i, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", cliErrors[i].Code, cliErrors[i].Message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes doc to filename as canonical JSON.
func writeIRToFile(doc ir.IRObject, filename string) error {
	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
