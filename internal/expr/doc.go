// Package expr provides the immutable expression-tree model for exprtrace.
//
// A tree is built once from leaf nodes upward, walked, and discarded.
// Every node carries a discriminant (Kind) and kind-specific attributes:
//
//	Constant     literal int, bool or string value
//	Parameter    named, typed lambda parameter (identity is the pointer)
//	Binary       arithmetic, comparison and logical operators
//	Unary        Negate, Not
//	Conditional  test ? ifTrue : ifFalse
//	Lambda       parameters and a body
//	Call         static or instance method call from a Catalog
//	Extension    opaque node supplied by library users
//
// Node is a sealed interface: only this package implements it, so type
// switches over node types are exhaustive. Builders (NewConstant, Add,
// NewLambda, NewCall, ...) check operand types and return errors; the
// resulting nodes must not be modified afterwards.
//
// This package imports nothing internal. All other internal packages
// import expr.
package expr
