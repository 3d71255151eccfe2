package eval

import (
	"errors"
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
)

var (
	// ErrDivideByZero is returned by Divide and Modulo with a zero divisor.
	ErrDivideByZero = errors.New("division by zero")

	// ErrIrreducible is returned when an extension node has no Reduce.
	ErrIrreducible = errors.New("extension node cannot be reduced")

	// ErrUnbound is returned when a parameter has no value in scope.
	ErrUnbound = errors.New("unbound parameter")
)

// Env binds parameters to values. Parameters are matched by identity.
type Env map[*expr.Parameter]expr.Value

func (e Env) with(params []*expr.Parameter, args []expr.Value) Env {
	out := make(Env, len(e)+len(params))
	for p, v := range e {
		out[p] = v
	}
	for i, p := range params {
		out[p] = args[i]
	}
	return out
}

// Evaluate computes the value of n. Free parameters are read from env.
func Evaluate(n expr.Node, env Env) (expr.Value, error) {
	switch n := n.(type) {
	case nil:
		return nil, errors.New("evaluate: nil node")

	case *expr.Constant:
		return n.Value, nil

	case *expr.Parameter:
		v, ok := env[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnbound, n.Name)
		}
		return v, nil

	case *expr.Lambda:
		return &Func{lambda: n, env: env}, nil

	case *expr.Unary:
		v, err := Evaluate(n.Operand, env)
		if err != nil {
			return nil, err
		}
		if n.Op == expr.KindNegate {
			return -v.(expr.Int), nil
		}
		return !v.(expr.Bool), nil

	case *expr.Binary:
		return evalBinary(n, env)

	case *expr.Conditional:
		test, err := Evaluate(n.Test, env)
		if err != nil {
			return nil, err
		}
		if test.(expr.Bool) {
			return Evaluate(n.IfTrue, env)
		}
		return Evaluate(n.IfFalse, env)

	case *expr.Call:
		return evalCall(n, env)

	case *expr.Extension:
		if n.Reduce == nil {
			return nil, fmt.Errorf("%w: %s", ErrIrreducible, n.Name)
		}
		reduced, err := n.Reduce()
		if err != nil {
			return nil, fmt.Errorf("reduce %s: %w", n.Name, err)
		}
		return Evaluate(reduced, env)
	}
	return nil, fmt.Errorf("evaluate: unsupported node %T", n)
}

func evalBinary(n *expr.Binary, env Env) (expr.Value, error) {
	left, err := Evaluate(n.Left, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case expr.KindAndAlso:
		if !left.(expr.Bool) {
			return expr.Bool(false), nil
		}
		return Evaluate(n.Right, env)
	case expr.KindOrElse:
		if left.(expr.Bool) {
			return expr.Bool(true), nil
		}
		return Evaluate(n.Right, env)
	}

	right, err := Evaluate(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case expr.KindEqual:
		return expr.Bool(expr.ValuesEqual(left, right)), nil
	case expr.KindNotEqual:
		return expr.Bool(!expr.ValuesEqual(left, right)), nil
	}

	if ls, ok := left.(expr.Str); ok {
		rs := right.(expr.Str)
		switch n.Op {
		case expr.KindAdd:
			return ls + rs, nil
		case expr.KindLessThan:
			return expr.Bool(ls < rs), nil
		case expr.KindLessThanOrEqual:
			return expr.Bool(ls <= rs), nil
		case expr.KindGreaterThan:
			return expr.Bool(ls > rs), nil
		case expr.KindGreaterThanOrEqual:
			return expr.Bool(ls >= rs), nil
		}
		return nil, fmt.Errorf("evaluate: %s on strings", n.Op)
	}

	l, r := left.(expr.Int), right.(expr.Int)
	switch n.Op {
	case expr.KindAdd:
		return l + r, nil
	case expr.KindSubtract:
		return l - r, nil
	case expr.KindMultiply:
		return l * r, nil
	case expr.KindDivide:
		if r == 0 {
			return nil, ErrDivideByZero
		}
		return l / r, nil
	case expr.KindModulo:
		if r == 0 {
			return nil, ErrDivideByZero
		}
		return l % r, nil
	case expr.KindLessThan:
		return expr.Bool(l < r), nil
	case expr.KindLessThanOrEqual:
		return expr.Bool(l <= r), nil
	case expr.KindGreaterThan:
		return expr.Bool(l > r), nil
	case expr.KindGreaterThanOrEqual:
		return expr.Bool(l >= r), nil
	}
	return nil, fmt.Errorf("evaluate: unsupported operator %s", n.Op)
}

func evalCall(n *expr.Call, env Env) (expr.Value, error) {
	if n.Method.Impl == nil {
		return nil, fmt.Errorf("call %s: method has no implementation", n.Method.FullName())
	}
	var recv expr.Value
	if n.Object != nil {
		v, err := Evaluate(n.Object, env)
		if err != nil {
			return nil, err
		}
		recv = v
	}
	args := make([]expr.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Evaluate(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := n.Method.Impl(recv, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", n.Method.FullName(), err)
	}
	return v, nil
}
