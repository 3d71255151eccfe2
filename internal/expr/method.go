package expr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Method describes a callable catalog entry.
type Method struct {
	DeclaringType string
	Name          string
	Static        bool

	// Check validates the receiver (nil for static methods) and argument
	// types and returns the result type.
	Check func(recv Type, args []Type) (Type, error)

	// Impl computes the call. Function-typed arguments implement Invoker.
	Impl func(recv Value, args []Value) (Value, error)

	// Extends reports whether a static method may be called with
	// receiver syntax (recv.Name(rest...)), passing recv as the first
	// argument. Nil means never.
	Extends func(recv Type) bool
}

// FullName returns "DeclaringType.Name".
func (m *Method) FullName() string {
	return m.DeclaringType + "." + m.Name
}

// Catalog is a read-only set of methods keyed by full name.
type Catalog struct {
	methods map[string]*Method
	names   []string
}

// NewCatalog builds a catalog. Later duplicates replace earlier ones.
func NewCatalog(methods ...*Method) *Catalog {
	c := &Catalog{methods: make(map[string]*Method, len(methods))}
	for _, m := range methods {
		if _, dup := c.methods[m.FullName()]; !dup {
			c.names = append(c.names, m.FullName())
		}
		c.methods[m.FullName()] = m
	}
	sort.Strings(c.names)
	return c
}

// Lookup finds a method by declaring type and name.
func (c *Catalog) Lookup(declaringType, name string) (*Method, bool) {
	m, ok := c.methods[declaringType+"."+name]
	return m, ok
}

// LookupFullName finds a method by "DeclaringType.Name".
func (c *Catalog) LookupFullName(fullName string) (*Method, bool) {
	m, ok := c.methods[fullName]
	return m, ok
}

// HasType reports whether any method is declared on the named type.
func (c *Catalog) HasType(declaringType string) bool {
	prefix := declaringType + "."
	for _, n := range c.names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// Resolve finds the method called by recv.name(...). Instance methods
// declared on recv's type win; otherwise the first static method (by full
// name) whose Extends accepts recv is returned with extension=true.
func (c *Catalog) Resolve(recv Type, name string) (m *Method, extension bool, ok bool) {
	if m, ok := c.Lookup(declaringTypeOf(recv), name); ok && !m.Static {
		return m, false, true
	}
	for _, n := range c.names {
		cand := c.methods[n]
		if cand.Name == name && cand.Static && cand.Extends != nil && cand.Extends(recv) {
			return cand, true, true
		}
	}
	return nil, false, false
}

// Methods returns all methods ordered by full name.
func (c *Catalog) Methods() []*Method {
	out := make([]*Method, len(c.names))
	for i, n := range c.names {
		out[i] = c.methods[n]
	}
	return out
}

// declaringTypeOf maps a receiver type to the catalog type that declares
// its instance methods.
func declaringTypeOf(t Type) string {
	switch t.(type) {
	case SeqType:
		return "Seq"
	case FuncType:
		return "Func"
	}
	switch t {
	case IntType:
		return "Int"
	case BoolType:
		return "Bool"
	case StringType:
		return "String"
	}
	return ""
}

// ErrEmptySequence is returned by aggregations over empty sequences.
var ErrEmptySequence = errors.New("sequence contains no elements")

// MaxRange bounds Enumerable.Range to keep evaluation memory finite.
const MaxRange = 1 << 20

var defaultCatalog = NewCatalog(
	&Method{
		DeclaringType: "Enumerable", Name: "Range", Static: true,
		Check: signature(SeqOf(IntType), IntType, IntType),
		Impl: func(_ Value, args []Value) (Value, error) {
			start, count := int64(args[0].(Int)), int64(args[1].(Int))
			if count < 0 || count > MaxRange {
				return nil, fmt.Errorf("Enumerable.Range: count %d out of range [0, %d]", count, MaxRange)
			}
			items := make([]Value, count)
			for i := range items {
				items[i] = Int(start + int64(i))
			}
			return Seq{Elem: IntType, Items: items}, nil
		},
	},
	&Method{
		DeclaringType: "Enumerable", Name: "Aggregate", Static: true, Extends: isSeq,
		Check: func(_ Type, args []Type) (Type, error) {
			elem, err := seqArg(args, 2)
			if err != nil {
				return nil, err
			}
			if err := funcArg(args[1], elem, elem, elem); err != nil {
				return nil, err
			}
			return elem, nil
		},
		Impl: func(_ Value, args []Value) (Value, error) {
			seq, fn := args[0].(Seq), args[1].(Invoker)
			if len(seq.Items) == 0 {
				return nil, fmt.Errorf("Enumerable.Aggregate: %w", ErrEmptySequence)
			}
			acc := seq.Items[0]
			for _, item := range seq.Items[1:] {
				next, err := fn.Invoke(acc, item)
				if err != nil {
					return nil, err
				}
				acc = next
			}
			return acc, nil
		},
	},
	&Method{
		DeclaringType: "Enumerable", Name: "Sum", Static: true, Extends: isSeq,
		Check: signature(IntType, SeqOf(IntType)),
		Impl: func(_ Value, args []Value) (Value, error) {
			var sum Int
			for _, item := range args[0].(Seq).Items {
				sum += item.(Int)
			}
			return sum, nil
		},
	},
	&Method{
		DeclaringType: "Enumerable", Name: "Count", Static: true, Extends: isSeq,
		Check: func(_ Type, args []Type) (Type, error) {
			if _, err := seqArg(args, 1); err != nil {
				return nil, err
			}
			return IntType, nil
		},
		Impl: func(_ Value, args []Value) (Value, error) {
			return Int(len(args[0].(Seq).Items)), nil
		},
	},
	&Method{
		DeclaringType: "Enumerable", Name: "Select", Static: true, Extends: isSeq,
		Check: func(_ Type, args []Type) (Type, error) {
			elem, err := seqArg(args, 2)
			if err != nil {
				return nil, err
			}
			ft, ok := args[1].(FuncType)
			if !ok || len(ft.Params) != 1 || !Identical(ft.Params[0], elem) {
				return nil, fmt.Errorf("%w: selector must be func(%s) T, got %s", ErrTypeMismatch, elem, args[1])
			}
			return SeqOf(ft.Result), nil
		},
		Impl: func(_ Value, args []Value) (Value, error) {
			seq, fn := args[0].(Seq), args[1].(Invoker)
			result := fn.Type().(FuncType).Result
			items := make([]Value, len(seq.Items))
			for i, item := range seq.Items {
				v, err := fn.Invoke(item)
				if err != nil {
					return nil, err
				}
				items[i] = v
			}
			return Seq{Elem: result, Items: items}, nil
		},
	},
	&Method{
		DeclaringType: "Enumerable", Name: "Where", Static: true, Extends: isSeq,
		Check: func(_ Type, args []Type) (Type, error) {
			elem, err := seqArg(args, 2)
			if err != nil {
				return nil, err
			}
			if err := funcArg(args[1], BoolType, elem); err != nil {
				return nil, err
			}
			return SeqOf(elem), nil
		},
		Impl: func(_ Value, args []Value) (Value, error) {
			seq, fn := args[0].(Seq), args[1].(Invoker)
			items := []Value{}
			for _, item := range seq.Items {
				keep, err := fn.Invoke(item)
				if err != nil {
					return nil, err
				}
				if keep.(Bool) {
					items = append(items, item)
				}
			}
			return Seq{Elem: seq.Elem, Items: items}, nil
		},
	},
	&Method{
		DeclaringType: "Math", Name: "Abs", Static: true,
		Check: signature(IntType, IntType),
		Impl: func(_ Value, args []Value) (Value, error) {
			n := args[0].(Int)
			if n < 0 {
				return -n, nil
			}
			return n, nil
		},
	},
	&Method{
		DeclaringType: "Math", Name: "Max", Static: true,
		Check: signature(IntType, IntType, IntType),
		Impl: func(_ Value, args []Value) (Value, error) {
			return max(args[0].(Int), args[1].(Int)), nil
		},
	},
	&Method{
		DeclaringType: "Math", Name: "Min", Static: true,
		Check: signature(IntType, IntType, IntType),
		Impl: func(_ Value, args []Value) (Value, error) {
			return min(args[0].(Int), args[1].(Int)), nil
		},
	},
	&Method{
		DeclaringType: "String", Name: "Length",
		Check: instanceSignature(StringType, IntType),
		Impl: func(recv Value, _ []Value) (Value, error) {
			return Int(len([]rune(string(recv.(Str))))), nil
		},
	},
	&Method{
		DeclaringType: "String", Name: "ToUpper",
		Check: instanceSignature(StringType, StringType),
		Impl: func(recv Value, _ []Value) (Value, error) {
			return Str(strings.ToUpper(string(recv.(Str)))), nil
		},
	},
	&Method{
		DeclaringType: "String", Name: "Contains",
		Check: instanceSignature(StringType, BoolType, StringType),
		Impl: func(recv Value, args []Value) (Value, error) {
			return Bool(strings.Contains(string(recv.(Str)), string(args[0].(Str)))), nil
		},
	},
)

// DefaultCatalog returns the built-in method catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func isSeq(t Type) bool {
	_, ok := t.(SeqType)
	return ok
}

// signature checks a static method with fixed parameter types.
func signature(result Type, params ...Type) func(Type, []Type) (Type, error) {
	return func(_ Type, args []Type) (Type, error) {
		if err := matchArgs(args, params); err != nil {
			return nil, err
		}
		return result, nil
	}
}

// instanceSignature checks an instance method on recv.
func instanceSignature(recv, result Type, params ...Type) func(Type, []Type) (Type, error) {
	return func(got Type, args []Type) (Type, error) {
		if !Identical(got, recv) {
			return nil, fmt.Errorf("%w: receiver must be %s, got %s", ErrTypeMismatch, recv, got)
		}
		if err := matchArgs(args, params); err != nil {
			return nil, err
		}
		return result, nil
	}
}

func matchArgs(args, params []Type) error {
	if len(args) != len(params) {
		return fmt.Errorf("want %d argument(s), got %d", len(params), len(args))
	}
	for i := range params {
		if !Identical(args[i], params[i]) {
			return fmt.Errorf("%w: argument %d must be %s, got %s", ErrTypeMismatch, i, params[i], args[i])
		}
	}
	return nil
}

func seqArg(args []Type, n int) (Type, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d argument(s), got %d", n, len(args))
	}
	st, ok := args[0].(SeqType)
	if !ok {
		return nil, fmt.Errorf("%w: argument 0 must be a sequence, got %s", ErrTypeMismatch, args[0])
	}
	return st.Elem, nil
}

func funcArg(t Type, result Type, params ...Type) error {
	want := FuncOf(result, params...)
	if !Identical(t, want) {
		return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, t)
	}
	return nil
}
