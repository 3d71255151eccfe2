package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/exprtrace/internal/eval"
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/ir"
	"github.com/roach88/exprtrace/internal/parser"
	"github.com/roach88/exprtrace/internal/store"
	"github.com/roach88/exprtrace/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Fold     bool
	Indent   int    // spaces per level; 0 means a tab
	Prefix   string // written before every line
	Strict   bool
	Skip     []string // kinds whose handler is removed
	Database string
	Name     string
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	Name        string   `json:"name,omitempty"`
	Tree        string   `json:"tree"`
	Trace       string   `json:"trace"`
	Nodes       int      `json:"nodes"`
	Lines       int      `json:"lines"`
	Unhandled   []string `json:"unhandled"`
	Fingerprint string   `json:"fingerprint"`
	RunID       string   `json:"run_id,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [<source>|-]",
		Short: "Print a pre-order description of an expression tree",
		Long: `Parse an expression and print one block of lines per node,
children indented under their parent.

Node kinds without a handler print "Node not processed yet: <Kind>" on
stderr and tracing continues; with --strict they also fail the command.

With --db and --name the tree is saved to the catalog and the run is
recorded. A tree that is already stored keeps its original name, which
is reported. Give --db and --name without a source to trace a stored tree.

Examples:
  exprtrace trace "(a, b) => a + b"
  exprtrace trace --fold "() => 1 + 2 * 3"
  exprtrace trace --skip Add --strict "(a, b) => a + b"
  echo "(n) => n * n" | exprtrace trace -
  exprtrace trace --db ./trees.db --name square "(n) => n * n"
  exprtrace trace --db ./trees.db --name square --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Fold, "fold", false, "fold constant subtrees before tracing")
	cmd.Flags().IntVar(&opts.Indent, "indent", 2, "spaces per nesting level (0 for a tab)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "text written before every line")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when a node kind has no handler")
	cmd.Flags().StringSliceVar(&opts.Skip, "skip", nil, "node kinds to leave unprocessed (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite catalog")
	cmd.Flags().StringVar(&opts.Name, "name", "", "tree name in the catalog")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	if opts.Indent < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--indent must be non-negative", nil)
	}
	if (opts.Database == "") != (opts.Name == "") {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--db and --name must be given together", nil)
	}

	traceOpts := []trace.Option{
		trace.WithLogger(logger),
		trace.WithStrict(opts.Strict),
	}
	for _, name := range opts.Skip {
		k, ok := expr.ParseKind(name)
		if !ok {
			return formatter.Fail(ExitCommandError, ErrCodeUnknownKind, fmt.Sprintf("unknown kind %q", name), nil)
		}
		traceOpts = append(traceOpts, trace.WithoutHandler(k))
	}

	var st *store.Store
	if opts.Database != "" {
		var err error
		if st, err = store.Open(opts.Database); err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	var (
		n   expr.Node
		rec store.TreeRecord
		err error
	)
	switch {
	case len(args) == 1:
		src, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read source", err)
		}
		if n, err = parser.Parse(src); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeParse, err.Error(), nil)
		}
		if st != nil {
			var inserted bool
			if rec, inserted, err = st.SaveTree(ctx, opts.Name, src, n); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}
			if !inserted && rec.Name != opts.Name {
				fmt.Fprintf(formatter.GetErrWriter(), "warning: tree already stored as %s; %s not saved\n", rec.Name, opts.Name)
			}
		}
	case st != nil:
		if rec, err = st.GetTreeByName(ctx, opts.Name); err != nil {
			return formatter.Fail(ExitCommandError, storeErrorCode(err), err.Error(), nil)
		}
		if n, err = rec.Node(); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	default:
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "a source argument or --db with --name is required", nil)
	}

	fingerprint, err := ir.Fingerprint(n)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Fold {
		if n, err = eval.Fold(n); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeEval, err.Error(), nil)
		}
		logger.Debug("folded tree", "tree", expr.Format(n))
	}

	var out strings.Builder
	tracer := trace.New(&out, append(traceOpts,
		trace.WithIndent(indentUnit(opts.Indent)),
		trace.WithDiagnostics(formatter.GetErrWriter()),
	)...)
	stats, traceErr := tracer.Trace(n, opts.Prefix)
	if traceErr != nil && !errors.Is(traceErr, trace.ErrUnhandledKind) {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, traceErr.Error(), nil)
	}

	result := TraceResult{
		Name:        rec.Name,
		Tree:        expr.Format(n),
		Trace:       out.String(),
		Nodes:       stats.Nodes,
		Lines:       stats.Lines,
		Unhandled:   kindNames(stats.Unhandled),
		Fingerprint: fingerprint,
	}

	if st != nil {
		run, err := st.WriteTraceRun(ctx, rec.ID, result.Trace, stats)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result.RunID = run.ID
		formatter.VerboseLog("Recorded run %s for %s", run.ID, rec.Name)
	}

	if traceErr != nil {
		if !formatter.JSON() {
			fmt.Fprint(formatter.Writer, result.Trace)
		}
		return formatter.Fail(ExitFailure, ErrCodeUnhandled, traceErr.Error(), result)
	}

	formatter.VerboseLog("%d node(s), %d line(s), %d unhandled", result.Nodes, result.Lines, len(result.Unhandled))
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprint(formatter.Writer, result.Trace)
	return nil
}

func indentUnit(n int) string {
	if n == 0 {
		return "\t"
	}
	return strings.Repeat(" ", n)
}

func kindNames(kinds []expr.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

func storeErrorCode(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return ErrCodeNotFound
	}
	return ErrCodeStore
}
