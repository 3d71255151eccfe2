// Package parser turns lambda source text into expression trees.
//
//	(n) => n == 0 ? 1 : Enumerable.Range(1, n).Aggregate((a, b) => a * b)
//
// Lexing follows the state-function scanner style; parsing is a Pratt
// parser over the token slice. Every node is built through the checked
// constructors in package expr, so a successful parse is well typed.
package parser
