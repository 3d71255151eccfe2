package harness

import (
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/trace"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true if every case and assertion held.
	Pass bool `json:"pass"`

	// Trace is the trace text. Diagnostics has one line per unhandled node.
	Trace       string `json:"trace"`
	Diagnostics string `json:"diagnostics,omitempty"`

	Nodes     int      `json:"nodes"`
	Lines     int      `json:"lines"`
	Unhandled []string `json:"unhandled"`

	// Fingerprint identifies the traced tree; Digest identifies the trace.
	Fingerprint string `json:"fingerprint"`
	Digest      string `json:"digest"`
	RunID       string `json:"run_id"`

	Cases []CaseResult `json:"cases,omitempty"`

	// Errors contains case and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	stats trace.Stats
	kinds map[expr.Kind]int
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Args  []string `json:"args"`
	Value string   `json:"value,omitempty"`
	Error string   `json:"error,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:      name,
		Pass:      true,
		Unhandled: []string{},
		Errors:    []string{},
		kinds:     make(map[expr.Kind]int),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// setStats records the trace statistics.
func (r *Result) setStats(stats trace.Stats) {
	r.stats = stats
	r.Nodes = stats.Nodes
	r.Lines = stats.Lines
	r.Unhandled = make([]string, len(stats.Unhandled))
	for i, k := range stats.Unhandled {
		r.Unhandled[i] = k.String()
	}
}
