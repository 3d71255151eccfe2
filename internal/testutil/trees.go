// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"github.com/roach88/exprtrace/internal/expr"
)

// Source text of the sample trees.
const (
	AdditionSource  = "(a, b) => a + b"
	FactorialSource = "(n) => n == 0 ? 1 : Enumerable.Range(1, n).Aggregate((a, b) => a * b)"
)

// Addition builds (a, b) => a + b over ints.
func Addition() *expr.Lambda {
	a := expr.Must(expr.NewParameter("a", expr.IntType))
	b := expr.Must(expr.NewParameter("b", expr.IntType))
	return expr.Must(expr.NewLambda("", expr.Must(expr.Add(a, b)), a, b))
}

// Factorial builds the lambda in FactorialSource.
func Factorial() *expr.Lambda {
	cat := expr.DefaultCatalog()
	rng, _ := cat.LookupFullName("Enumerable.Range")
	agg, _ := cat.LookupFullName("Enumerable.Aggregate")

	n := expr.Must(expr.NewParameter("n", expr.IntType))
	a := expr.Must(expr.NewParameter("a", expr.IntType))
	b := expr.Must(expr.NewParameter("b", expr.IntType))

	product := expr.Must(expr.NewLambda("", expr.Must(expr.Multiply(a, b)), a, b))
	seq := expr.Must(expr.NewStaticCall(rng, Int(1), n))
	body := expr.Must(expr.NewConditional(
		expr.Must(expr.Equal(n, Int(0))),
		Int(1),
		expr.Must(expr.NewStaticCall(agg, seq, product)),
	))
	return expr.Must(expr.NewLambda("", body, n))
}

// Int builds an int constant.
func Int(v int64) *expr.Constant {
	return expr.Must(expr.NewConstant(expr.Int(v)))
}

// Opaque builds an Extension node that the default tracer does not handle.
func Opaque() *expr.Extension {
	return expr.Must(expr.NewExtension("Opaque", expr.IntType, nil))
}
