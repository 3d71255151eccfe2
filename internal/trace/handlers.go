package trace

import (
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
)

// DefaultHandlers returns a fresh dispatch table covering lambda, binary,
// unary, parameter, constant, conditional and call nodes. Extension nodes
// are left unhandled.
func DefaultHandlers() map[expr.Kind]Handler {
	h := map[expr.Kind]Handler{
		expr.KindLambda:      traceLambda,
		expr.KindParameter:   traceParameter,
		expr.KindConstant:    traceConstant,
		expr.KindConditional: traceConditional,
		expr.KindCall:        traceCall,
		expr.KindNegate:      traceUnary,
		expr.KindNot:         traceUnary,
	}
	for _, k := range expr.Kinds() {
		if k.IsBinary() {
			h[k] = traceBinary
		}
	}
	return h
}

func mismatch(n expr.Node) error {
	return fmt.Errorf("trace: %s node has unexpected type %T", n.Kind(), n)
}

func traceLambda(w *Walker, n expr.Node, prefix string) error {
	l, ok := n.(*expr.Lambda)
	if !ok {
		return mismatch(n)
	}
	name := l.Name
	if name == "" {
		name = "<null>"
	}
	if err := w.Printf(prefix, "This expression is a %s expression type", n.Kind()); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The name of the lambda is %s", name); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The return type is %s", l.ReturnType()); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The expression has %d argument(s). They are:", len(l.Params)); err != nil {
		return err
	}
	for _, p := range l.Params {
		if err := w.VisitChild(p, prefix); err != nil {
			return err
		}
	}
	if err := w.Printf(prefix, "The expression body is:"); err != nil {
		return err
	}
	return w.VisitChild(l.Body, prefix)
}

func traceBinary(w *Walker, n expr.Node, prefix string) error {
	b, ok := n.(*expr.Binary)
	if !ok {
		return mismatch(n)
	}
	if err := w.Printf(prefix, "This binary expression is a %s expression", b.Op); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The Left argument is:"); err != nil {
		return err
	}
	if err := w.VisitChild(b.Left, prefix); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The Right argument is:"); err != nil {
		return err
	}
	return w.VisitChild(b.Right, prefix)
}

func traceUnary(w *Walker, n expr.Node, prefix string) error {
	u, ok := n.(*expr.Unary)
	if !ok {
		return mismatch(n)
	}
	if err := w.Printf(prefix, "This unary expression is a %s expression", u.Op); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The Operand is:"); err != nil {
		return err
	}
	return w.VisitChild(u.Operand, prefix)
}

func traceParameter(w *Walker, n expr.Node, prefix string) error {
	p, ok := n.(*expr.Parameter)
	if !ok {
		return mismatch(n)
	}
	if err := w.Printf(prefix, "This is a %s expression type", n.Kind()); err != nil {
		return err
	}
	return w.Printf(prefix, "Type: %s, Name: %s, ByRef: %t", p.Typ, p.Name, p.ByRef)
}

func traceConstant(w *Walker, n expr.Node, prefix string) error {
	c, ok := n.(*expr.Constant)
	if !ok {
		return mismatch(n)
	}
	if err := w.Printf(prefix, "This is a %s expression type", n.Kind()); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The type of the constant value is %s", c.Type()); err != nil {
		return err
	}
	return w.Printf(prefix, "The value of the constant value is %s", c.Value)
}

func traceConditional(w *Walker, n expr.Node, prefix string) error {
	c, ok := n.(*expr.Conditional)
	if !ok {
		return mismatch(n)
	}
	if err := w.Printf(prefix, "This expression is a %s expression", n.Kind()); err != nil {
		return err
	}
	clauses := []struct {
		label string
		node  expr.Node
	}{
		{"The Test for this expression is:", c.Test},
		{"The True clause for this expression is:", c.IfTrue},
		{"The False clause for this expression is:", c.IfFalse},
	}
	for _, cl := range clauses {
		if err := w.Printf(prefix, "%s", cl.label); err != nil {
			return err
		}
		if err := w.VisitChild(cl.node, prefix); err != nil {
			return err
		}
	}
	return nil
}

func traceCall(w *Walker, n expr.Node, prefix string) error {
	c, ok := n.(*expr.Call)
	if !ok {
		return mismatch(n)
	}
	if err := w.Printf(prefix, "This expression is a %s expression", n.Kind()); err != nil {
		return err
	}
	if c.IsStatic() {
		if err := w.Printf(prefix, "This is a static method call"); err != nil {
			return err
		}
	} else {
		if err := w.Printf(prefix, "The receiver (this) is:"); err != nil {
			return err
		}
		if err := w.VisitChild(c.Object, prefix); err != nil {
			return err
		}
	}
	if err := w.Printf(prefix, "The method name is %s", c.Method.FullName()); err != nil {
		return err
	}
	if err := w.Printf(prefix, "The Arguments are:"); err != nil {
		return err
	}
	for _, a := range c.Args {
		if err := w.VisitChild(a, prefix); err != nil {
			return err
		}
	}
	return nil
}
