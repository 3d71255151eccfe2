package expr

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch is wrapped by builder errors caused by operand types.
var ErrTypeMismatch = errors.New("type mismatch")

// NewConstant creates a constant node. Only Int, Bool and Str are allowed.
func NewConstant(v Value) (*Constant, error) {
	if v == nil || !IsScalarValue(v) {
		return nil, fmt.Errorf("constant: unsupported value %T", v)
	}
	return &Constant{Value: v}, nil
}

// NewParameter creates a parameter node.
func NewParameter(name string, t Type) (*Parameter, error) {
	if name == "" {
		return nil, errors.New("parameter: name is required")
	}
	if t == nil {
		return nil, fmt.Errorf("parameter %s: type is required", name)
	}
	return &Parameter{Name: name, Typ: t}, nil
}

// NewBinary creates a binary node after checking operand types:
//   - arithmetic: int, int -> int (Add also string, string -> string)
//   - Equal, NotEqual: identical scalar types -> bool
//   - ordering: identical int or string types -> bool
//   - AndAlso, OrElse: bool, bool -> bool
func NewBinary(op Kind, left, right Node) (*Binary, error) {
	if !op.IsBinary() {
		return nil, fmt.Errorf("binary: %s is not a binary kind", op)
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("binary %s: missing operand", op)
	}
	t, err := binaryResult(op, left.Type(), right.Type())
	if err != nil {
		return nil, err
	}
	return &Binary{Op: op, Left: left, Right: right, Typ: t}, nil
}

func binaryResult(op Kind, l, r Type) (Type, error) {
	mismatch := func() error {
		return fmt.Errorf("%w: %s is not defined for %s and %s", ErrTypeMismatch, op, l, r)
	}
	switch {
	case op.isArithmetic():
		if l == IntType && r == IntType {
			return IntType, nil
		}
		if op == KindAdd && l == StringType && r == StringType {
			return StringType, nil
		}
		return nil, mismatch()
	case op.isEquality():
		if IsScalar(l) && Identical(l, r) {
			return BoolType, nil
		}
		return nil, mismatch()
	case op.isOrdering():
		if (l == IntType || l == StringType) && Identical(l, r) {
			return BoolType, nil
		}
		return nil, mismatch()
	case op.isLogical():
		if l == BoolType && r == BoolType {
			return BoolType, nil
		}
		return nil, mismatch()
	}
	return nil, mismatch()
}

// Convenience constructors for each binary kind.

func Add(l, r Node) (*Binary, error)                { return NewBinary(KindAdd, l, r) }
func Subtract(l, r Node) (*Binary, error)           { return NewBinary(KindSubtract, l, r) }
func Multiply(l, r Node) (*Binary, error)           { return NewBinary(KindMultiply, l, r) }
func Divide(l, r Node) (*Binary, error)             { return NewBinary(KindDivide, l, r) }
func Modulo(l, r Node) (*Binary, error)             { return NewBinary(KindModulo, l, r) }
func Equal(l, r Node) (*Binary, error)              { return NewBinary(KindEqual, l, r) }
func NotEqual(l, r Node) (*Binary, error)           { return NewBinary(KindNotEqual, l, r) }
func LessThan(l, r Node) (*Binary, error)           { return NewBinary(KindLessThan, l, r) }
func LessThanOrEqual(l, r Node) (*Binary, error)    { return NewBinary(KindLessThanOrEqual, l, r) }
func GreaterThan(l, r Node) (*Binary, error)        { return NewBinary(KindGreaterThan, l, r) }
func GreaterThanOrEqual(l, r Node) (*Binary, error) { return NewBinary(KindGreaterThanOrEqual, l, r) }
func AndAlso(l, r Node) (*Binary, error)            { return NewBinary(KindAndAlso, l, r) }
func OrElse(l, r Node) (*Binary, error)             { return NewBinary(KindOrElse, l, r) }

// NewUnary creates a Negate (int -> int) or Not (bool -> bool) node.
func NewUnary(op Kind, operand Node) (*Unary, error) {
	if operand == nil {
		return nil, fmt.Errorf("unary %s: missing operand", op)
	}
	switch op {
	case KindNegate:
		if operand.Type() != IntType {
			return nil, fmt.Errorf("%w: Negate is not defined for %s", ErrTypeMismatch, operand.Type())
		}
		return &Unary{Op: op, Operand: operand, Typ: IntType}, nil
	case KindNot:
		if operand.Type() != BoolType {
			return nil, fmt.Errorf("%w: Not is not defined for %s", ErrTypeMismatch, operand.Type())
		}
		return &Unary{Op: op, Operand: operand, Typ: BoolType}, nil
	default:
		return nil, fmt.Errorf("unary: %s is not a unary kind", op)
	}
}

// NewConditional creates test ? ifTrue : ifFalse.
func NewConditional(test, ifTrue, ifFalse Node) (*Conditional, error) {
	if test == nil || ifTrue == nil || ifFalse == nil {
		return nil, errors.New("conditional: missing operand")
	}
	if test.Type() != BoolType {
		return nil, fmt.Errorf("%w: conditional test must be bool, got %s", ErrTypeMismatch, test.Type())
	}
	if !Identical(ifTrue.Type(), ifFalse.Type()) {
		return nil, fmt.Errorf("%w: conditional branches differ: %s and %s", ErrTypeMismatch, ifTrue.Type(), ifFalse.Type())
	}
	return &Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}, nil
}

// NewLambda creates a lambda. name may be empty. Parameter names must be unique.
func NewLambda(name string, body Node, params ...*Parameter) (*Lambda, error) {
	if body == nil {
		return nil, errors.New("lambda: body is required")
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p == nil {
			return nil, errors.New("lambda: nil parameter")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("lambda: duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
	}
	return &Lambda{Name: name, Params: params, Body: body}, nil
}

// NewCall creates a method call. object must be nil exactly when m is static.
func NewCall(object Node, m *Method, args ...Node) (*Call, error) {
	if m == nil {
		return nil, errors.New("call: method is required")
	}
	if m.Static && object != nil {
		return nil, fmt.Errorf("call %s: static method called with a receiver", m.FullName())
	}
	if !m.Static && object == nil {
		return nil, fmt.Errorf("call %s: instance method called without a receiver", m.FullName())
	}
	var recv Type
	if object != nil {
		recv = object.Type()
	}
	argTypes := make([]Type, len(args))
	for i, a := range args {
		if a == nil {
			return nil, fmt.Errorf("call %s: argument %d is nil", m.FullName(), i)
		}
		argTypes[i] = a.Type()
	}
	t, err := m.Check(recv, argTypes)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", m.FullName(), err)
	}
	return &Call{Object: object, Method: m, Args: args, Typ: t}, nil
}

// NewStaticCall is NewCall with no receiver.
func NewStaticCall(m *Method, args ...Node) (*Call, error) {
	return NewCall(nil, m, args...)
}

// NewExtension creates an opaque node. reduce may be nil.
func NewExtension(name string, t Type, reduce func() (Node, error)) (*Extension, error) {
	if name == "" || t == nil {
		return nil, errors.New("extension: name and type are required")
	}
	return &Extension{Name: name, Typ: t, Reduce: reduce}, nil
}

// Must panics if err is non-nil. Use only in tests and fixtures.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
