package expr

// Node is a sealed interface implemented by every expression-tree node.
//
// Kind is the discriminant; dispatch on it (or on the concrete type)
// to reach the kind-specific attributes.
type Node interface {
	Kind() Kind
	Type() Type
	node() // Sealed - only this package implements Node
}

// Constant is a literal int, bool or string value.
type Constant struct {
	Value Value
}

func (*Constant) Kind() Kind   { return KindConstant }
func (c *Constant) Type() Type { return c.Value.Type() }
func (*Constant) node()        {}

// Parameter is a lambda parameter. The same *Parameter appears in the
// lambda's parameter list and at every reference inside its body.
type Parameter struct {
	Name  string
	Typ   Type
	ByRef bool
}

func (*Parameter) Kind() Kind   { return KindParameter }
func (p *Parameter) Type() Type { return p.Typ }
func (*Parameter) node()        {}

// Binary is an arithmetic, comparison or logical operator node.
// Op is one of the binary kinds.
type Binary struct {
	Op    Kind
	Left  Node
	Right Node
	Typ   Type
}

func (b *Binary) Kind() Kind { return b.Op }
func (b *Binary) Type() Type { return b.Typ }
func (*Binary) node()        {}

// Unary is a Negate or Not node.
type Unary struct {
	Op      Kind
	Operand Node
	Typ     Type
}

func (u *Unary) Kind() Kind { return u.Op }
func (u *Unary) Type() Type { return u.Typ }
func (*Unary) node()        {}

// Conditional is the ternary test ? ifTrue : ifFalse.
type Conditional struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
}

func (*Conditional) Kind() Kind   { return KindConditional }
func (c *Conditional) Type() Type { return c.IfTrue.Type() }
func (*Conditional) node()        {}

// Lambda is a function literal. Name is optional.
type Lambda struct {
	Name   string
	Params []*Parameter
	Body   Node
}

func (*Lambda) Kind() Kind { return KindLambda }

// Type returns the lambda's FuncType.
func (l *Lambda) Type() Type {
	params := make([]Type, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.Typ
	}
	return FuncOf(l.Body.Type(), params...)
}

// ReturnType is the type of the body.
func (l *Lambda) ReturnType() Type { return l.Body.Type() }

func (*Lambda) node() {}

// Call invokes a catalog method. Object is nil for static calls.
type Call struct {
	Object Node
	Method *Method
	Args   []Node
	Typ    Type
}

func (*Call) Kind() Kind   { return KindCall }
func (c *Call) Type() Type { return c.Typ }
func (*Call) node()        {}

// IsStatic reports whether the call has no receiver.
func (c *Call) IsStatic() bool { return c.Object == nil }

// Extension is an opaque node supplied by library users. Consumers that
// do not recognize it may ask it to Reduce into known node kinds.
type Extension struct {
	Name   string
	Typ    Type
	Reduce func() (Node, error) // Optional
}

func (*Extension) Kind() Kind   { return KindExtension }
func (e *Extension) Type() Type { return e.Typ }
func (*Extension) node()        {}
