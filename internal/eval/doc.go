// Package eval executes expression trees.
//
// Compile turns a lambda into a callable Func. Evaluate runs any node
// against an environment of parameter bindings. Fold replaces closed
// scalar subtrees with constants.
package eval
