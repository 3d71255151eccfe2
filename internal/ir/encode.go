package ir

import (
	"errors"
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
)

// ErrNotEncodable is returned for trees containing extension nodes.
var ErrNotEncodable = errors.New("node has no canonical form")

// Field names used in encoded nodes.
const (
	FieldKind    = "kind"
	FieldType    = "type"
	FieldValue   = "value"
	FieldName    = "name"
	FieldByRef   = "by_ref"
	FieldParams  = "params"
	FieldBody    = "body"
	FieldLeft    = "left"
	FieldRight   = "right"
	FieldOperand = "operand"
	FieldTest    = "test"
	FieldIfTrue  = "if_true"
	FieldIfFalse = "if_false"
	FieldMethod  = "method"
	FieldObject  = "object"
	FieldArgs    = "args"
)

// Encode converts n to its IR object form. Parameters are encoded by
// name and type at every occurrence.
func Encode(n expr.Node) (IRObject, error) {
	switch n := n.(type) {
	case nil:
		return nil, errors.New("encode: nil node")

	case *expr.Constant:
		v, err := encodeValue(n.Value)
		if err != nil {
			return nil, err
		}
		return IRObject{FieldKind: kindString(n), FieldType: IRString(n.Type().String()), FieldValue: v}, nil

	case *expr.Parameter:
		return encodeParam(n), nil

	case *expr.Lambda:
		params := make(IRArray, len(n.Params))
		for i, p := range n.Params {
			params[i] = encodeParam(p)
		}
		body, err := Encode(n.Body)
		if err != nil {
			return nil, err
		}
		obj := IRObject{FieldKind: kindString(n), FieldParams: params, FieldBody: body}
		if n.Name != "" {
			obj[FieldName] = IRString(n.Name)
		}
		return obj, nil

	case *expr.Binary:
		left, err := Encode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Encode(n.Right)
		if err != nil {
			return nil, err
		}
		return IRObject{FieldKind: kindString(n), FieldLeft: left, FieldRight: right}, nil

	case *expr.Unary:
		operand, err := Encode(n.Operand)
		if err != nil {
			return nil, err
		}
		return IRObject{FieldKind: kindString(n), FieldOperand: operand}, nil

	case *expr.Conditional:
		obj := IRObject{FieldKind: kindString(n)}
		for field, c := range map[string]expr.Node{FieldTest: n.Test, FieldIfTrue: n.IfTrue, FieldIfFalse: n.IfFalse} {
			enc, err := Encode(c)
			if err != nil {
				return nil, err
			}
			obj[field] = enc
		}
		return obj, nil

	case *expr.Call:
		args := make(IRArray, len(n.Args))
		for i, a := range n.Args {
			enc, err := Encode(a)
			if err != nil {
				return nil, err
			}
			args[i] = enc
		}
		obj := IRObject{FieldKind: kindString(n), FieldMethod: IRString(n.Method.FullName()), FieldArgs: args}
		if n.Object != nil {
			recv, err := Encode(n.Object)
			if err != nil {
				return nil, err
			}
			obj[FieldObject] = recv
		}
		return obj, nil

	case *expr.Extension:
		return nil, fmt.Errorf("encode %s: %w", n.Name, ErrNotEncodable)
	}
	return nil, fmt.Errorf("encode: unsupported node %T", n)
}

// MarshalTree encodes n as canonical JSON.
func MarshalTree(n expr.Node) ([]byte, error) {
	obj, err := Encode(n)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(obj)
}

func kindString(n expr.Node) IRString {
	return IRString(n.Kind().String())
}

func encodeParam(p *expr.Parameter) IRObject {
	obj := IRObject{
		FieldKind: kindString(p),
		FieldName: IRString(p.Name),
		FieldType: IRString(p.Typ.String()),
	}
	if p.ByRef {
		obj[FieldByRef] = IRBool(true)
	}
	return obj
}

func encodeValue(v expr.Value) (IRValue, error) {
	switch v := v.(type) {
	case expr.Int:
		return IRInt(v), nil
	case expr.Bool:
		return IRBool(v), nil
	case expr.Str:
		return IRString(v), nil
	}
	return nil, fmt.Errorf("encode: constant of type %s", v.Type())
}
