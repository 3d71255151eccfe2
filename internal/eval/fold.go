package eval

import (
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
)

// Fold returns a copy of n in which every closed subtree of scalar type
// is replaced by a constant holding its value. A subtree is closed when it
// has no free parameters and no extension nodes. Subtrees that fail to
// evaluate, such as a division by zero, are kept as they are so the
// failure still happens at run time.
func Fold(n expr.Node) (expr.Node, error) {
	if n == nil {
		return nil, fmt.Errorf("fold: nil node")
	}
	return fold(n)
}

func fold(n expr.Node) (expr.Node, error) {
	rebuilt, err := rebuild(n)
	if err != nil {
		return nil, err
	}
	if _, isConst := rebuilt.(*expr.Constant); isConst || !expr.IsScalar(rebuilt.Type()) || !closed(rebuilt) {
		return rebuilt, nil
	}
	v, err := Evaluate(rebuilt, nil)
	if err != nil {
		return rebuilt, nil
	}
	return expr.NewConstant(v)
}

// rebuild folds the children of n and reassembles it.
func rebuild(n expr.Node) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.Binary:
		l, err := fold(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := fold(n.Right)
		if err != nil {
			return nil, err
		}
		return expr.NewBinary(n.Op, l, r)
	case *expr.Unary:
		o, err := fold(n.Operand)
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(n.Op, o)
	case *expr.Conditional:
		parts := make([]expr.Node, 3)
		for i, c := range []expr.Node{n.Test, n.IfTrue, n.IfFalse} {
			f, err := fold(c)
			if err != nil {
				return nil, err
			}
			parts[i] = f
		}
		return expr.NewConditional(parts[0], parts[1], parts[2])
	case *expr.Lambda:
		body, err := fold(n.Body)
		if err != nil {
			return nil, err
		}
		return expr.NewLambda(n.Name, body, n.Params...)
	case *expr.Call:
		var obj expr.Node
		if n.Object != nil {
			o, err := fold(n.Object)
			if err != nil {
				return nil, err
			}
			obj = o
		}
		args := make([]expr.Node, len(n.Args))
		for i, a := range n.Args {
			f, err := fold(a)
			if err != nil {
				return nil, err
			}
			args[i] = f
		}
		return expr.NewCall(obj, n.Method, args...)
	default:
		return n, nil
	}
}

func closed(n expr.Node) bool {
	hasExtension := false
	expr.Inspect(n, func(c expr.Node) bool {
		if c.Kind() == expr.KindExtension {
			hasExtension = true
		}
		return !hasExtension
	})
	return !hasExtension && len(FreeParameters(n)) == 0
}
