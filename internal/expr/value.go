package expr

import (
	"strconv"
	"strings"
)

// Value is a runtime value. Int, Bool, Str and Seq are declared here;
// function values come from the executor and also implement Invoker.
type Value interface {
	Type() Type
	String() string
}

// Invoker is a callable function value.
type Invoker interface {
	Value
	Invoke(args ...Value) (Value, error)
}

// Int is an integer value with int64 semantics.
type Int int64

func (Int) Type() Type       { return IntType }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Bool is a boolean value.
type Bool bool

func (Bool) Type() Type       { return BoolType }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Str is a string value. String returns the raw text, unquoted.
type Str string

func (Str) Type() Type       { return StringType }
func (s Str) String() string { return string(s) }

// Seq is a typed, finite sequence of values.
type Seq struct {
	Elem  Type
	Items []Value
}

func (s Seq) Type() Type { return SeqOf(s.Elem) }

func (s Seq) String() string {
	parts := make([]string, len(s.Items))
	for i, item := range s.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// IsScalarValue reports whether v is an Int, Bool or Str.
func IsScalarValue(v Value) bool {
	switch v.(type) {
	case Int, Bool, Str:
		return true
	}
	return false
}

// ValuesEqual compares scalars and sequences structurally.
// Function values are never equal.
func ValuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Seq:
		bv, ok := b.(Seq)
		if !ok || !Identical(av.Elem, bv.Elem) || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !ValuesEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
