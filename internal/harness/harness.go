package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/exprtrace/internal/eval"
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
	"github.com/roach88/exprtrace/internal/store"
	"github.com/roach88/exprtrace/internal/testutil"
	"github.com/roach88/exprtrace/internal/trace"
)

// Harness runs scenarios against a scratch store.
type Harness struct {
	store  *store.Store
	ids    *testutil.SequentialIDGenerator
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger for the harness and the tracer. By default
// logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Parse the source as a lambda and fold it if requested
//  2. Trace it, recording the tree and the trace run in the store
//  3. Invoke every case
//  4. Evaluate assertions
//
// Case and assertion failures are reported in Result.Errors; the returned
// error is for scenarios that cannot run at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		ids:    testutil.NewSequentialIDGenerator("run"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(h.ids))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	log := h.logger.With("scenario", s.Name)

	l, err := parser.ParseLambda(s.Source)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	if s.Fold {
		folded, err := eval.Fold(l)
		if err != nil {
			return nil, fmt.Errorf("fold: %w", err)
		}
		l = folded.(*expr.Lambda)
		log.Debug("folded", "tree", expr.Format(l))
	}

	result := NewResult(s.Name)
	var buf, diag strings.Builder
	tracer := trace.New(&buf,
		trace.WithIndent(s.IndentString()),
		trace.WithDiagnostics(&diag),
		trace.WithLogger(log),
	)
	stats, err := tracer.Trace(l, "")
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	result.Trace = buf.String()
	result.Diagnostics = diag.String()
	result.setStats(stats)
	result.kinds = expr.CountKinds(l)

	rec, _, err := h.store.SaveTree(ctx, s.Name, s.Source, l)
	if err != nil {
		return nil, err
	}
	run, err := h.store.WriteTraceRun(ctx, rec.ID, result.Trace, stats)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = rec.ID
	result.Digest = run.Digest
	result.RunID = run.ID

	h.runCases(l, s.Cases, result)

	for _, errMsg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(errMsg)
	}

	log.Debug("scenario finished", "pass", result.Pass, "nodes", result.Nodes, "errors", len(result.Errors))
	return result, nil
}

// runCases invokes the lambda once per case and records mismatches.
func (h *Harness) runCases(l *expr.Lambda, cases []Case, result *Result) {
	if len(cases) == 0 {
		return
	}
	f, err := eval.Compile(l)
	if err != nil {
		result.AddError(fmt.Sprintf("cases: %v", err))
		return
	}

	for i, c := range cases {
		cr := CaseResult{Args: c.Args}
		v, err := invoke(f, l, c.Args)
		if err != nil {
			cr.Error = err.Error()
		} else {
			cr.Value = v.String()
		}
		result.Cases = append(result.Cases, cr)

		switch {
		case c.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("cases[%d]: expected error containing %q, got %s", i, c.ExpectError, cr.Value))
		case c.ExpectError != "" && !strings.Contains(cr.Error, c.ExpectError):
			result.AddError(fmt.Sprintf("cases[%d]: expected error containing %q, got %q", i, c.ExpectError, cr.Error))
		case c.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("cases[%d]: %v", i, err))
		case c.ExpectError == "" && cr.Value != c.Expect:
			result.AddError(fmt.Sprintf("cases[%d]: expected %s, got %s", i, c.Expect, cr.Value))
		}
	}
}

func invoke(f *eval.Func, l *expr.Lambda, args []string) (expr.Value, error) {
	vals, err := eval.ParseArgs(l, args)
	if err != nil {
		return nil, err
	}
	return f.Invoke(vals...)
}
