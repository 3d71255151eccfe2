package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprtrace/internal/eval"
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Fold bool
}

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Tree  string   `json:"tree"`
	Args  []string `json:"args"`
	Value string   `json:"value"`
	Type  string   `json:"type"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <source> [args...]",
		Short: "Compile a lambda and invoke it",
		Long: `Compile a lambda expression and invoke it with one argument per
parameter. Arguments are parsed by parameter type; sequences are comma
separated.

Exit codes:
  0 - Evaluation succeeded
  1 - Evaluation failed (division by zero, wrong arguments)
  2 - Source does not parse

Examples:
  exprtrace eval "(a, b) => a + b" 2 3
  exprtrace eval "(s string) => s.Length()" hello
  exprtrace eval "(xs seq[int]) => xs.Sum()" 1,2,3`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Fold, "fold", false, "fold constant subtrees before compiling")

	return cmd
}

func runEval(opts *EvalOptions, source string, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	src, err := readSource(source, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read source", err)
	}
	lambda, err := parser.ParseLambda(src)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeParse, err.Error(), nil)
	}

	if opts.Fold {
		folded, err := eval.Fold(lambda)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeEval, err.Error(), nil)
		}
		lambda = folded.(*expr.Lambda)
		formatter.VerboseLog("Folded: %s", expr.Format(lambda))
	}

	fn, err := eval.Compile(lambda)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeEval, err.Error(), nil)
	}
	values, err := eval.ParseArgs(lambda, args)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeEval, err.Error(), nil)
	}
	v, err := fn.Invoke(values...)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeEval, err.Error(), nil)
	}

	if args == nil {
		args = []string{}
	}
	result := EvalResult{
		Tree:  fn.String(),
		Args:  args,
		Value: v.String(),
		Type:  v.Type().String(),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Value)
	return nil
}
