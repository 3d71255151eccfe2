package ir

import (
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
)

// DecodeError reports where in the encoded tree decoding failed.
type DecodeError struct {
	Path    string // e.g. "body.if_false.args[1]"
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "decode: " + e.Message
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode rebuilds a tree from its IR object form using the default
// method catalog.
func Decode(obj IRObject) (expr.Node, error) {
	return DecodeWith(obj, expr.DefaultCatalog())
}

// DecodeWith is Decode with an explicit catalog.
//
// Parameter references resolve by name to the innermost enclosing lambda
// parameter. References no lambda binds become free parameters, one per
// name, shared by every use.
func DecodeWith(obj IRObject, catalog *expr.Catalog) (expr.Node, error) {
	d := &decoder{catalog: catalog, free: make(map[string]*expr.Parameter)}
	return d.node(obj, "")
}

// UnmarshalTree decodes canonical (or any valid) JSON into a tree.
func UnmarshalTree(data []byte) (expr.Node, error) {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return nil, &DecodeError{Message: err.Error(), Err: err}
	}
	obj, ok := v.(IRObject)
	if !ok {
		return nil, &DecodeError{Message: fmt.Sprintf("expected object, got %T", v)}
	}
	return Decode(obj)
}

type decoder struct {
	catalog *expr.Catalog
	scopes  []map[string]*expr.Parameter
	free    map[string]*expr.Parameter
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func (d *decoder) errorf(path string, err error, format string, args ...any) error {
	return &DecodeError{Path: path, Message: fmt.Sprintf(format, args...), Err: err}
}

func (d *decoder) child(obj IRObject, path, field string) (expr.Node, error) {
	c, ok := obj.Object(field)
	if !ok {
		return nil, d.errorf(path, nil, "missing object field %q", field)
	}
	return d.node(c, join(path, field))
}

func (d *decoder) typ(obj IRObject, path string) (expr.Type, error) {
	s, ok := obj.String(FieldType)
	if !ok {
		return nil, d.errorf(path, nil, "missing string field %q", FieldType)
	}
	t, err := expr.ParseType(s)
	if err != nil {
		return nil, d.errorf(path, err, "%v", err)
	}
	return t, nil
}

func (d *decoder) node(obj IRObject, path string) (expr.Node, error) {
	ks, ok := obj.String(FieldKind)
	if !ok {
		return nil, d.errorf(path, nil, "missing string field %q", FieldKind)
	}
	kind, ok := expr.ParseKind(ks)
	if !ok {
		return nil, d.errorf(path, nil, "unknown kind %q", ks)
	}

	var n expr.Node
	var err error
	switch {
	case kind == expr.KindConstant:
		n, err = d.constant(obj, path)
	case kind == expr.KindParameter:
		n, err = d.paramRef(obj, path)
	case kind == expr.KindLambda:
		n, err = d.lambda(obj, path)
	case kind == expr.KindCall:
		n, err = d.call(obj, path)
	case kind == expr.KindConditional:
		n, err = d.conditional(obj, path)
	case kind.IsBinary():
		n, err = d.binary(kind, obj, path)
	case kind.IsUnary():
		n, err = d.unary(kind, obj, path)
	default:
		return nil, d.errorf(path, ErrNotEncodable, "%s nodes cannot be decoded", kind)
	}
	if err != nil {
		if _, ok := err.(*DecodeError); ok {
			return nil, err
		}
		return nil, d.errorf(path, err, "%v", err)
	}
	return n, nil
}

func (d *decoder) constant(obj IRObject, path string) (expr.Node, error) {
	t, err := d.typ(obj, path)
	if err != nil {
		return nil, err
	}
	var v expr.Value
	switch raw := obj[FieldValue].(type) {
	case IRInt:
		v = expr.Int(raw)
	case IRBool:
		v = expr.Bool(raw)
	case IRString:
		v = expr.Str(raw)
	default:
		return nil, d.errorf(path, nil, "constant value must be int, bool or string")
	}
	if !expr.Identical(v.Type(), t) {
		return nil, d.errorf(path, expr.ErrTypeMismatch, "constant value %s is not of type %s", v, t)
	}
	return expr.NewConstant(v)
}

// declare builds a lambda parameter from its IR form.
func (d *decoder) declare(obj IRObject, path string) (*expr.Parameter, error) {
	name, ok := obj.String(FieldName)
	if !ok {
		return nil, d.errorf(path, nil, "missing string field %q", FieldName)
	}
	t, err := d.typ(obj, path)
	if err != nil {
		return nil, err
	}
	p, err := expr.NewParameter(name, t)
	if err != nil {
		return nil, d.errorf(path, err, "%v", err)
	}
	if byRef, ok := obj[FieldByRef].(IRBool); ok {
		p.ByRef = bool(byRef)
	}
	return p, nil
}

func (d *decoder) paramRef(obj IRObject, path string) (expr.Node, error) {
	ref, err := d.declare(obj, path)
	if err != nil {
		return nil, err
	}
	p := d.lookup(ref.Name)
	if p == nil {
		if p = d.free[ref.Name]; p == nil {
			d.free[ref.Name] = ref
			return ref, nil
		}
	}
	if !expr.Identical(p.Typ, ref.Typ) {
		return nil, d.errorf(path, expr.ErrTypeMismatch, "parameter %s is %s, referenced as %s", p.Name, p.Typ, ref.Typ)
	}
	return p, nil
}

func (d *decoder) lookup(name string) *expr.Parameter {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if p, ok := d.scopes[i][name]; ok {
			return p
		}
	}
	return nil
}

func (d *decoder) lambda(obj IRObject, path string) (expr.Node, error) {
	raw, ok := obj.Array(FieldParams)
	if !ok {
		return nil, d.errorf(path, nil, "missing array field %q", FieldParams)
	}
	params := make([]*expr.Parameter, len(raw))
	scope := make(map[string]*expr.Parameter, len(raw))
	for i, r := range raw {
		ppath := fmt.Sprintf("%s[%d]", join(path, FieldParams), i)
		po, ok := r.(IRObject)
		if !ok {
			return nil, d.errorf(ppath, nil, "parameter must be an object")
		}
		p, err := d.declare(po, ppath)
		if err != nil {
			return nil, err
		}
		params[i] = p
		scope[p.Name] = p
	}

	d.scopes = append(d.scopes, scope)
	body, err := d.child(obj, path, FieldBody)
	d.scopes = d.scopes[:len(d.scopes)-1]
	if err != nil {
		return nil, err
	}
	name, _ := obj.String(FieldName)
	return expr.NewLambda(name, body, params...)
}

func (d *decoder) binary(kind expr.Kind, obj IRObject, path string) (expr.Node, error) {
	left, err := d.child(obj, path, FieldLeft)
	if err != nil {
		return nil, err
	}
	right, err := d.child(obj, path, FieldRight)
	if err != nil {
		return nil, err
	}
	return expr.NewBinary(kind, left, right)
}

func (d *decoder) unary(kind expr.Kind, obj IRObject, path string) (expr.Node, error) {
	operand, err := d.child(obj, path, FieldOperand)
	if err != nil {
		return nil, err
	}
	return expr.NewUnary(kind, operand)
}

func (d *decoder) conditional(obj IRObject, path string) (expr.Node, error) {
	test, err := d.child(obj, path, FieldTest)
	if err != nil {
		return nil, err
	}
	ifTrue, err := d.child(obj, path, FieldIfTrue)
	if err != nil {
		return nil, err
	}
	ifFalse, err := d.child(obj, path, FieldIfFalse)
	if err != nil {
		return nil, err
	}
	return expr.NewConditional(test, ifTrue, ifFalse)
}

func (d *decoder) call(obj IRObject, path string) (expr.Node, error) {
	name, ok := obj.String(FieldMethod)
	if !ok {
		return nil, d.errorf(path, nil, "missing string field %q", FieldMethod)
	}
	m, ok := d.catalog.LookupFullName(name)
	if !ok {
		return nil, d.errorf(path, nil, "unknown method %s", name)
	}

	var object expr.Node
	if _, has := obj[FieldObject]; has {
		o, err := d.child(obj, path, FieldObject)
		if err != nil {
			return nil, err
		}
		object = o
	}

	raw, _ := obj.Array(FieldArgs)
	args := make([]expr.Node, len(raw))
	for i, r := range raw {
		apath := fmt.Sprintf("%s[%d]", join(path, FieldArgs), i)
		ao, ok := r.(IRObject)
		if !ok {
			return nil, d.errorf(apath, nil, "argument must be an object")
		}
		a, err := d.node(ao, apath)
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	return expr.NewCall(object, m, args...)
}
