package expr

import (
	"fmt"
	"strings"
)

// Type is the static type of a node or value.
// Only the types declared in this package implement it.
type Type interface {
	String() string
	isType()
}

type basicType string

func (b basicType) String() string { return string(b) }
func (basicType) isType()          {}

// Basic types. int has int64 semantics.
var (
	IntType    Type = basicType("int")
	BoolType   Type = basicType("bool")
	StringType Type = basicType("string")
)

// SeqType is a finite sequence of Elem values.
type SeqType struct {
	Elem Type
}

func (s SeqType) String() string { return "seq[" + s.Elem.String() + "]" }
func (SeqType) isType()          {}

// FuncType is the type of a lambda or function value.
type FuncType struct {
	Params []Type
	Result Type
}

func (f FuncType) String() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") ")
	b.WriteString(f.Result.String())
	return b.String()
}

func (FuncType) isType() {}

// SeqOf returns the sequence type with the given element type.
func SeqOf(elem Type) SeqType {
	return SeqType{Elem: elem}
}

// FuncOf returns the function type with the given result and parameters.
func FuncOf(result Type, params ...Type) FuncType {
	return FuncType{Params: params, Result: result}
}

// Identical reports whether a and b denote the same type.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IsScalar reports whether t is int, bool or string.
func IsScalar(t Type) bool {
	_, ok := t.(basicType)
	return ok
}

// ParseType parses the textual form produced by Type.String,
// e.g. "int", "seq[int]" or "func(int, int) bool".
func ParseType(s string) (Type, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) parse() (Type, error) {
	p.skipSpace()
	switch {
	case p.consume("int"):
		return IntType, nil
	case p.consume("bool"):
		return BoolType, nil
	case p.consume("string"):
		return StringType, nil
	case p.consume("seq["):
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if !p.consume("]") {
			return nil, p.errorf("expected ]")
		}
		return SeqOf(elem), nil
	case p.consume("func("):
		var params []Type
		if !p.consume(")") {
			for {
				param, err := p.parse()
				if err != nil {
					return nil, err
				}
				params = append(params, param)
				if p.consume(")") {
					break
				}
				if !p.consume(",") {
					return nil, p.errorf("expected , or )")
				}
			}
		}
		result, err := p.parse()
		if err != nil {
			return nil, err
		}
		return FuncOf(result, params...), nil
	default:
		return nil, p.errorf("unknown type")
	}
}

func (p *typeParser) errorf(msg string) error {
	return fmt.Errorf("parse type %q: %s at offset %d", p.src, msg, p.pos)
}
