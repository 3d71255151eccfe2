package compiler

import (
	"errors"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
)

// Tree is a named expression tree compiled from CUE.
type Tree struct {
	Name        string
	Description string
	Source      string // lambda source text; expr.Format of Node for structural trees
	Node        expr.Node
	Pos         token.Pos
}

// CompileTrees compiles every entry of the "tree" struct in v, ordered by
// name:
//
//	tree: add: source: "(a, b) => a + b"
//	tree: inc: {
//		kind: "Lambda"
//		params: [{name: "x"}]
//		body: {kind: "Add", left: {kind: "Parameter", name: "x"}, right: 1}
//	}
func CompileTrees(v cue.Value) ([]Tree, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	treesVal := v.LookupPath(cue.ParsePath("tree"))
	if !treesVal.Exists() {
		return nil, &CompileError{Field: "tree", Message: "no trees defined", Pos: v.Pos()}
	}

	iter, err := treesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var trees []Tree
	for iter.Next() {
		t, err := CompileNamedTree(iter.Selector().String(), iter.Value())
		if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
	sort.Slice(trees, func(i, j int) bool { return trees[i].Name < trees[j].Name })
	return trees, nil
}

// CompileNamedTree compiles one tree entry and its optional description.
func CompileNamedTree(name string, v cue.Value) (Tree, error) {
	n, err := CompileTree(v)
	if err != nil {
		return Tree{}, err
	}
	t := Tree{Name: name, Node: n, Pos: v.Pos()}
	if d := v.LookupPath(cue.ParsePath("description")); d.Exists() {
		if t.Description, err = d.String(); err != nil {
			return Tree{}, formatCUEError(err)
		}
	}
	if s := v.LookupPath(cue.ParsePath("source")); s.Exists() {
		t.Source, _ = s.String()
	} else {
		t.Source = expr.Format(n)
	}
	return t, nil
}

// CompileTree builds an expression tree from a CUE value holding either
// {source: "<lambda text>"} or a structural node.
func CompileTree(v cue.Value, opts ...Option) (expr.Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	c := &compiler{catalog: expr.DefaultCatalog(), free: make(map[string]*expr.Parameter)}
	for _, opt := range opts {
		opt(c)
	}

	if src := v.LookupPath(cue.ParsePath("source")); src.Exists() {
		return c.source(src)
	}
	return c.node(v)
}

// Option configures CompileTree.
type Option func(*compiler)

// WithCatalog sets the method catalog used to resolve calls.
func WithCatalog(cat *expr.Catalog) Option {
	return func(c *compiler) { c.catalog = cat }
}

type compiler struct {
	catalog *expr.Catalog
	scopes  []map[string]*expr.Parameter
	free    map[string]*expr.Parameter
}

func (c *compiler) source(v cue.Value) (expr.Node, error) {
	s, err := v.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	n, err := parser.Parse(s, parser.WithCatalog(c.catalog))
	if err != nil {
		var perr *parser.Error
		if errors.As(err, &perr) {
			return nil, &CompileError{Field: fieldOf(v), Message: perr.Error(), Pos: v.Pos(), Err: err}
		}
		return nil, err
	}
	return n, nil
}

// node compiles a structural node. Bare int, bool and string values are
// constants.
func (c *compiler) node(v cue.Value) (expr.Node, error) {
	switch v.IncompleteKind() {
	case cue.IntKind, cue.BoolKind, cue.StringKind:
		val, err := constantValue(v)
		if err != nil {
			return nil, err
		}
		return c.build(v, func() (expr.Node, error) { return expr.NewConstant(val) })
	case cue.StructKind:
	case cue.FloatKind, cue.NumberKind:
		return nil, errorAt(v, "floats are not supported; use int")
	default:
		return nil, errorAt(v, fmt.Sprintf("expected a node struct, got %v", v.IncompleteKind()))
	}

	ks, err := c.requiredString(v, "kind")
	if err != nil {
		return nil, err
	}
	kind, ok := expr.ParseKind(ks)
	if !ok {
		return nil, errorAt(v.LookupPath(cue.ParsePath("kind")), fmt.Sprintf("unknown kind %q", ks))
	}

	switch {
	case kind == expr.KindConstant:
		return c.constant(v)
	case kind == expr.KindParameter:
		return c.paramRef(v)
	case kind == expr.KindLambda:
		return c.lambda(v)
	case kind == expr.KindCall:
		return c.call(v)
	case kind == expr.KindConditional:
		test, err := c.child(v, "test")
		if err != nil {
			return nil, err
		}
		ifTrue, err := c.child(v, "if_true")
		if err != nil {
			return nil, err
		}
		ifFalse, err := c.child(v, "if_false")
		if err != nil {
			return nil, err
		}
		return c.build(v, func() (expr.Node, error) { return expr.NewConditional(test, ifTrue, ifFalse) })
	case kind.IsBinary():
		left, err := c.child(v, "left")
		if err != nil {
			return nil, err
		}
		right, err := c.child(v, "right")
		if err != nil {
			return nil, err
		}
		return c.build(v, func() (expr.Node, error) { return expr.NewBinary(kind, left, right) })
	case kind.IsUnary():
		operand, err := c.child(v, "operand")
		if err != nil {
			return nil, err
		}
		return c.build(v, func() (expr.Node, error) { return expr.NewUnary(kind, operand) })
	}
	return nil, errorAt(v, fmt.Sprintf("%s nodes cannot be written in CUE", kind))
}

// build runs an expr builder and attaches v's position to its error.
func (c *compiler) build(v cue.Value, f func() (expr.Node, error)) (expr.Node, error) {
	n, err := f()
	if err != nil {
		return nil, &CompileError{Field: fieldOf(v), Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return n, nil
}

func (c *compiler) child(v cue.Value, field string) (expr.Node, error) {
	cv := v.LookupPath(cue.ParsePath(field))
	if !cv.Exists() {
		return nil, &CompileError{Field: join(fieldOf(v), field), Message: field + " is required", Pos: v.Pos()}
	}
	return c.node(cv)
}

func (c *compiler) requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: join(fieldOf(v), field), Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func (c *compiler) optionalType(v cue.Value) (expr.Type, error) {
	tv := v.LookupPath(cue.ParsePath("type"))
	if !tv.Exists() {
		return nil, nil
	}
	s, err := tv.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	t, err := expr.ParseType(s)
	if err != nil {
		return nil, &CompileError{Field: fieldOf(tv), Message: err.Error(), Pos: tv.Pos(), Err: err}
	}
	return t, nil
}

func constantValue(v cue.Value) (expr.Value, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return expr.Int(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return expr.Bool(b), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return expr.Str(s), nil
	}
	return nil, errorAt(v, fmt.Sprintf("constant value must be int, bool or string, got %v", v.IncompleteKind()))
}

func (c *compiler) constant(v cue.Value) (expr.Node, error) {
	vv := v.LookupPath(cue.ParsePath("value"))
	if !vv.Exists() {
		return nil, &CompileError{Field: join(fieldOf(v), "value"), Message: "value is required", Pos: v.Pos()}
	}
	val, err := constantValue(vv)
	if err != nil {
		return nil, err
	}
	t, err := c.optionalType(v)
	if err != nil {
		return nil, err
	}
	if t != nil && !expr.Identical(t, val.Type()) {
		return nil, errorAt(vv, fmt.Sprintf("value %s is not of type %s", val, t))
	}
	return c.build(v, func() (expr.Node, error) { return expr.NewConstant(val) })
}

// declare builds a lambda parameter. type defaults to int.
func (c *compiler) declare(v cue.Value) (*expr.Parameter, error) {
	name, err := c.requiredString(v, "name")
	if err != nil {
		return nil, err
	}
	t, err := c.optionalType(v)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = expr.IntType
	}
	p, err := expr.NewParameter(name, t)
	if err != nil {
		return nil, &CompileError{Field: fieldOf(v), Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	if br := v.LookupPath(cue.ParsePath("by_ref")); br.Exists() {
		if p.ByRef, err = br.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	return p, nil
}

// paramRef resolves a parameter reference against the enclosing lambdas.
// Unbound names become free parameters shared by every use.
func (c *compiler) paramRef(v cue.Value) (expr.Node, error) {
	name, err := c.requiredString(v, "name")
	if err != nil {
		return nil, err
	}
	t, err := c.optionalType(v)
	if err != nil {
		return nil, err
	}

	p := c.lookup(name)
	if p == nil {
		p = c.free[name]
	}
	if p == nil {
		if t == nil {
			return nil, errorAt(v, fmt.Sprintf("undefined parameter %s (free parameters need a type)", name))
		}
		p = &expr.Parameter{Name: name, Typ: t}
		c.free[name] = p
	}
	if t != nil && !expr.Identical(t, p.Typ) {
		return nil, errorAt(v, fmt.Sprintf("parameter %s is %s, referenced as %s", name, p.Typ, t))
	}
	return p, nil
}

func (c *compiler) lookup(name string) *expr.Parameter {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if p, ok := c.scopes[i][name]; ok {
			return p
		}
	}
	return nil
}

func (c *compiler) lambda(v cue.Value) (expr.Node, error) {
	var params []*expr.Parameter
	scope := make(map[string]*expr.Parameter)
	if pv := v.LookupPath(cue.ParsePath("params")); pv.Exists() {
		iter, err := pv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			p, err := c.declare(iter.Value())
			if err != nil {
				return nil, err
			}
			params = append(params, p)
			scope[p.Name] = p
		}
	}

	c.scopes = append(c.scopes, scope)
	body, err := c.child(v, "body")
	c.scopes = c.scopes[:len(c.scopes)-1]
	if err != nil {
		return nil, err
	}

	var name string
	if nv := v.LookupPath(cue.ParsePath("name")); nv.Exists() {
		if name, err = nv.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	return c.build(v, func() (expr.Node, error) { return expr.NewLambda(name, body, params...) })
}

func (c *compiler) call(v cue.Value) (expr.Node, error) {
	full, err := c.requiredString(v, "method")
	if err != nil {
		return nil, err
	}
	m, ok := c.catalog.LookupFullName(full)
	if !ok {
		return nil, errorAt(v.LookupPath(cue.ParsePath("method")), fmt.Sprintf("unknown method %s", full))
	}

	var object expr.Node
	if ov := v.LookupPath(cue.ParsePath("object")); ov.Exists() {
		if object, err = c.node(ov); err != nil {
			return nil, err
		}
	}

	var args []expr.Node
	if av := v.LookupPath(cue.ParsePath("args")); av.Exists() {
		iter, err := av.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			a, err := c.node(iter.Value())
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
	}
	return c.build(v, func() (expr.Node, error) { return expr.NewCall(object, m, args...) })
}

// CompileError is a compilation error with the CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

func errorAt(v cue.Value, msg string) *CompileError {
	return &CompileError{Field: fieldOf(v), Message: msg, Pos: v.Pos()}
}

func fieldOf(v cue.Value) string {
	if p := v.Path().String(); p != "" {
		return p
	}
	return "tree"
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// formatCUEError turns the first CUE error into a positioned CompileError.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0], Err: err}
	}
	return err
}
