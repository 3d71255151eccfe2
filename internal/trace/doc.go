// Package trace implements the tracing visitor: given a tree root it writes
// an indented, pre-order textual description of every node.
//
// Dispatch is table driven. Each node kind maps to a Handler that prints
// the node's own fields and then visits its children one indentation unit
// deeper. A kind with no handler is a coverage gap, not a failure: it
// produces exactly one diagnostic line, is recorded in Stats.Unhandled, and
// is treated as terminal (its children are not visited). Strict mode turns
// the gap into an error once traversal has finished.
//
// Example output for (a, b) => a + b with the default tab indent:
//
//	This expression is a Lambda expression type
//	The name of the lambda is <null>
//	The return type is int
//	The expression has 2 argument(s). They are:
//		This is a Parameter expression type
//		Type: int, Name: a, ByRef: false
//		...
//	The expression body is:
//		This binary expression is a Add expression
//		...
//
// A Tracer is not safe for concurrent use by multiple goroutines.
package trace
