package eval

import (
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
)

// Func is a callable lambda together with the bindings it closes over.
// It implements expr.Invoker.
type Func struct {
	lambda *expr.Lambda
	env    Env
}

// Compile checks that l has no free parameters and returns it as a Func.
func Compile(l *expr.Lambda) (*Func, error) {
	if l == nil {
		return nil, fmt.Errorf("compile: nil lambda")
	}
	if free := FreeParameters(l); len(free) > 0 {
		return nil, fmt.Errorf("compile: %w: %s", ErrUnbound, free[0].Name)
	}
	return &Func{lambda: l}, nil
}

// Lambda returns the compiled lambda.
func (f *Func) Lambda() *expr.Lambda { return f.lambda }

func (f *Func) Type() expr.Type { return f.lambda.Type() }

func (f *Func) String() string { return expr.Format(f.lambda) }

// Invoke calls the function. Arguments must match the parameter types.
func (f *Func) Invoke(args ...expr.Value) (expr.Value, error) {
	params := f.lambda.Params
	if len(args) != len(params) {
		return nil, fmt.Errorf("invoke: want %d argument(s), got %d", len(params), len(args))
	}
	for i, p := range params {
		if args[i] == nil || !expr.Identical(args[i].Type(), p.Typ) {
			return nil, fmt.Errorf("invoke: %w: argument %s must be %s", expr.ErrTypeMismatch, p.Name, p.Typ)
		}
	}
	return Evaluate(f.lambda.Body, f.env.with(params, args))
}

// FreeParameters returns the parameters referenced in n that no lambda
// inside n binds, in first-use order.
func FreeParameters(n expr.Node) []*expr.Parameter {
	bound := make(map[*expr.Parameter]bool)
	expr.Inspect(n, func(c expr.Node) bool {
		if l, ok := c.(*expr.Lambda); ok {
			for _, p := range l.Params {
				bound[p] = true
			}
		}
		return true
	})

	var free []*expr.Parameter
	seen := make(map[*expr.Parameter]bool)
	expr.Inspect(n, func(c expr.Node) bool {
		if p, ok := c.(*expr.Parameter); ok && !bound[p] && !seen[p] {
			seen[p] = true
			free = append(free, p)
		}
		return true
	})
	return free
}
