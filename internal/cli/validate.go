package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprtrace/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Trees  int                        `json:"trees"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <trees-dir>",
		Short: "Check CUE tree definitions without writing IR",
		Long: `Compile the trees of a CUE package and check them: every root must
be a lambda, parameters must be bound, nesting must stay within the depth
limit, and every node kind must have a trace handler.

Exit codes:
  0 - All trees valid
  1 - One or more trees invalid
  2 - Command error (directory not found, CUE does not load)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, treesDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadTrees(treesDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, treesDir)

	for _, t := range loadResult.Trees {
		formatter.VerboseLog("Validating tree: %s", t.Name)
	}
	validationErrors := collectValidationErrors(loadResult, loadErrors)

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter, len(loadResult.Trees))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, trees int) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Trees: trees})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d tree(s) valid\n", trees)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Tree != "" {
			fmt.Fprintf(formatter.Writer, "tree %s\n", err.Tree)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateTreesDir loads and validates the trees in dir.
func ValidateTreesDir(dir string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadTrees(dir, LoadModeCollectAll)
	if loadResult == nil {
		return nil, errors.Join(loadErrors...)
	}
	return collectValidationErrors(loadResult, loadErrors), nil
}

// collectValidationErrors reports compile errors as validation errors
// ahead of the rule violations of the trees that compiled.
func collectValidationErrors(result *LoadResult, loadErrors []error) []compiler.ValidationError {
	var errs []compiler.ValidationError
	for _, err := range loadErrors {
		code, message := parseCompileError(err)
		errs = append(errs, compiler.ValidationError{Field: "load", Message: message, Code: code})
	}
	return append(errs, compiler.Validate(result.Trees)...)
}
