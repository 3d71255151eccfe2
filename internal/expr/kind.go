package expr

import "fmt"

// Kind is the node discriminant.
type Kind int

const (
	KindInvalid Kind = iota
	KindConstant
	KindParameter
	KindLambda
	KindCall
	KindConditional

	// Binary arithmetic.
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindModulo

	// Binary comparison.
	KindEqual
	KindNotEqual
	KindLessThan
	KindLessThanOrEqual
	KindGreaterThan
	KindGreaterThanOrEqual

	// Binary logical (short-circuit).
	KindAndAlso
	KindOrElse

	// Unary.
	KindNegate
	KindNot

	KindExtension

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:            "Invalid",
	KindConstant:           "Constant",
	KindParameter:          "Parameter",
	KindLambda:             "Lambda",
	KindCall:               "Call",
	KindConditional:        "Conditional",
	KindAdd:                "Add",
	KindSubtract:           "Subtract",
	KindMultiply:           "Multiply",
	KindDivide:             "Divide",
	KindModulo:             "Modulo",
	KindEqual:              "Equal",
	KindNotEqual:           "NotEqual",
	KindLessThan:           "LessThan",
	KindLessThanOrEqual:    "LessThanOrEqual",
	KindGreaterThan:        "GreaterThan",
	KindGreaterThanOrEqual: "GreaterThanOrEqual",
	KindAndAlso:            "AndAlso",
	KindOrElse:             "OrElse",
	KindNegate:             "Negate",
	KindNot:                "Not",
	KindExtension:          "Extension",
}

var kindSymbols = map[Kind]string{
	KindAdd:                "+",
	KindSubtract:           "-",
	KindMultiply:           "*",
	KindDivide:             "/",
	KindModulo:             "%",
	KindEqual:              "==",
	KindNotEqual:           "!=",
	KindLessThan:           "<",
	KindLessThanOrEqual:    "<=",
	KindGreaterThan:        ">",
	KindGreaterThanOrEqual: ">=",
	KindAndAlso:            "&&",
	KindOrElse:             "||",
	KindNegate:             "-",
	KindNot:                "!",
}

// String returns the kind name, e.g. "Add" or "Conditional".
func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Symbol returns the source operator for binary and unary kinds, or "".
func (k Kind) Symbol() string {
	return kindSymbols[k]
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k := KindConstant; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindConstant; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// IsBinary reports whether k is a binary operator kind.
func (k Kind) IsBinary() bool {
	return k >= KindAdd && k <= KindOrElse
}

// IsUnary reports whether k is a unary operator kind.
func (k Kind) IsUnary() bool {
	return k == KindNegate || k == KindNot
}

func (k Kind) isArithmetic() bool {
	return k >= KindAdd && k <= KindModulo
}

func (k Kind) isEquality() bool {
	return k == KindEqual || k == KindNotEqual
}

func (k Kind) isOrdering() bool {
	return k >= KindLessThan && k <= KindGreaterThanOrEqual
}

func (k Kind) isLogical() bool {
	return k == KindAndAlso || k == KindOrElse
}
