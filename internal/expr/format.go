package expr

import (
	"strconv"
	"strings"
)

// Format renders n as lambda source text. Binary and conditional nodes
// are fully parenthesized, so the output parses back to the same tree
// shape. Lambda names and ByRef flags have no source form and are dropped.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Constant:
		if s, ok := n.Value.(Str); ok {
			b.WriteString(strconv.Quote(string(s)))
			return
		}
		b.WriteString(n.Value.String())
	case *Parameter:
		b.WriteString(n.Name)
	case *Binary:
		b.WriteByte('(')
		format(b, n.Left)
		b.WriteString(" " + n.Op.Symbol() + " ")
		format(b, n.Right)
		b.WriteByte(')')
	case *Unary:
		b.WriteString(n.Op.Symbol())
		format(b, n.Operand)
	case *Conditional:
		b.WriteByte('(')
		format(b, n.Test)
		b.WriteString(" ? ")
		format(b, n.IfTrue)
		b.WriteString(" : ")
		format(b, n.IfFalse)
		b.WriteByte(')')
	case *Lambda:
		b.WriteByte('(')
		for i, p := range n.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			if p.Typ != IntType {
				b.WriteString(" " + p.Typ.String())
			}
		}
		b.WriteString(") => ")
		format(b, n.Body)
	case *Call:
		if n.Object != nil {
			format(b, n.Object)
		} else {
			b.WriteString(n.Method.DeclaringType)
		}
		b.WriteString("." + n.Method.Name + "(")
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, a)
		}
		b.WriteByte(')')
	case *Extension:
		b.WriteString("<" + n.Name + ">")
	}
}
