// Package harness runs YAML trace scenarios.
//
// A scenario names a lambda, optionally folds it, traces it, evaluates it
// against argument cases, and checks assertions over the trace.
//
// # Scenario Format
//
//	name: factorial
//	description: "factorial of n via an aggregated range"
//	source: "(n) => n == 0 ? 1 : Enumerable.Range(1, n).Aggregate((a, b) => a * b)"
//	fold: false
//	indent: 2
//	cases:
//	  - args: ["5"]
//	    expect: "120"
//	  - args: ["x"]
//	    expect_error: "as int"
//	assertions:
//	  - type: trace_contains
//	    text: "The method name is Enumerable.Range"
//	  - type: node_count
//	    count: 17
//	  - type: node_count
//	    kind: Call
//	    count: 2
//
// # Assertion Types
//
//   - trace_contains: the trace text contains text
//   - node_count: number of traced nodes, or of nodes of kind
//   - unhandled_count: number of unhandled nodes, or of unhandled nodes of kind
//   - line_count: number of trace lines
//
// # Deterministic Testing
//
// Every run records the tree and its trace in a fresh in-memory store with
// sequential run IDs, so the same scenario always yields the same result.
// Golden files hold the exact trace text under testdata/golden.
package harness
