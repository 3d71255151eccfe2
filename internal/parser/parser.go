package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/exprtrace/internal/expr"
)

// DefaultMaxDepth bounds expression nesting.
const DefaultMaxDepth = 100

// Option configures Parse.
type Option func(*parser)

// WithCatalog sets the method catalog used to resolve calls.
func WithCatalog(c *expr.Catalog) Option {
	return func(p *parser) { p.catalog = c }
}

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(n int) Option {
	return func(p *parser) { p.maxDepth = n }
}

type binding struct {
	power int
	kind  expr.Kind
}

// binary operator binding powers; higher binds tighter.
var binaryOps = map[tokenType]binding{
	tokOr:      {1, expr.KindOrElse},
	tokAnd:     {2, expr.KindAndAlso},
	tokEq:      {3, expr.KindEqual},
	tokNeq:     {3, expr.KindNotEqual},
	tokLt:      {4, expr.KindLessThan},
	tokLe:      {4, expr.KindLessThanOrEqual},
	tokGt:      {4, expr.KindGreaterThan},
	tokGe:      {4, expr.KindGreaterThanOrEqual},
	tokPlus:    {5, expr.KindAdd},
	tokMinus:   {5, expr.KindSubtract},
	tokStar:    {6, expr.KindMultiply},
	tokSlash:   {6, expr.KindDivide},
	tokPercent: {6, expr.KindModulo},
}

type parser struct {
	toks     []token
	i        int
	catalog  *expr.Catalog
	maxDepth int
	depth    int
	scopes   []map[string]*expr.Parameter
}

// Parse parses src as a single expression, usually a lambda.
func Parse(src string, opts ...Option) (expr.Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks:     toks,
		catalog:  expr.DefaultCatalog(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}

	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok().typ != tokEOF {
		return nil, p.errorf(p.tok(), "unexpected %s after expression", p.tok())
	}
	return n, nil
}

// ParseLambda parses src and requires the result to be a lambda.
func ParseLambda(src string, opts ...Option) (*expr.Lambda, error) {
	n, err := Parse(src, opts...)
	if err != nil {
		return nil, err
	}
	l, ok := n.(*expr.Lambda)
	if !ok {
		return nil, &Error{Pos: 0, Message: fmt.Sprintf("expected a lambda, got %s expression", n.Kind())}
	}
	return l, nil
}

func (p *parser) tok() token {
	return p.toks[p.i]
}

func (p *parser) peekAt(offset int) token {
	if j := p.i + offset; j < len(p.toks) {
		return p.toks[j]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() token {
	t := p.toks[p.i]
	if t.typ != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) accept(typ tokenType) bool {
	if p.tok().typ == typ {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(typ tokenType) (token, error) {
	t := p.tok()
	if t.typ != typ {
		return t, p.errorf(t, "expected %s, found %s", typ, t)
	}
	return p.advance(), nil
}

func (p *parser) errorf(at token, format string, args ...any) *Error {
	return &Error{Pos: at.pos, Message: fmt.Sprintf(format, args...)}
}

// wrap turns an expr builder error into a positioned Error.
func (p *parser) wrap(at token, err error) *Error {
	return &Error{Pos: at.pos, Message: err.Error(), Err: err}
}

func (p *parser) enter(at token) error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorf(at, "expression nested deeper than %d", p.maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// parseExpr parses a lambda or a conditional expression.
func (p *parser) parseExpr() (expr.Node, error) {
	start := p.tok()
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.atLambda() {
		return p.parseLambda()
	}
	return p.parseConditional()
}

// atLambda reports whether the tokens at the cursor begin a lambda:
// "x =>" or a balanced parenthesized list followed by "=>".
func (p *parser) atLambda() bool {
	switch p.tok().typ {
	case tokIdent:
		return p.peekAt(1).typ == tokArrow
	case tokLParen:
		depth := 0
		for j := p.i; j < len(p.toks); j++ {
			switch p.toks[j].typ {
			case tokLParen:
				depth++
			case tokRParen:
				depth--
				if depth == 0 {
					return j+1 < len(p.toks) && p.toks[j+1].typ == tokArrow
				}
			case tokEOF:
				return false
			}
		}
	}
	return false
}

func (p *parser) parseLambda() (expr.Node, error) {
	start := p.tok()
	var params []*expr.Parameter

	if start.typ == tokIdent {
		p.advance()
		params = append(params, &expr.Parameter{Name: start.val, Typ: expr.IntType})
	} else {
		p.advance() // (
		for p.tok().typ != tokRParen {
			if len(params) > 0 {
				if _, err := p.expect(tokComma); err != nil {
					return nil, err
				}
			}
			name, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			typ := expr.IntType
			if p.tok().typ != tokComma && p.tok().typ != tokRParen {
				if typ, err = p.parseType(); err != nil {
					return nil, err
				}
			}
			param, err := expr.NewParameter(name.val, typ)
			if err != nil {
				return nil, p.wrap(name, err)
			}
			params = append(params, param)
		}
		p.advance() // )
	}
	if _, err := p.expect(tokArrow); err != nil {
		return nil, err
	}

	scope := make(map[string]*expr.Parameter, len(params))
	for _, param := range params {
		scope[param.Name] = param
	}
	p.scopes = append(p.scopes, scope)
	body, err := p.parseExpr()
	p.scopes = p.scopes[:len(p.scopes)-1]
	if err != nil {
		return nil, err
	}

	l, err := expr.NewLambda("", body, params...)
	if err != nil {
		return nil, p.wrap(start, err)
	}
	return l, nil
}

// parseType parses int, bool, string, seq[T] and func(T, ...) R.
func (p *parser) parseType() (expr.Type, error) {
	t, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	switch t.val {
	case "int":
		return expr.IntType, nil
	case "bool":
		return expr.BoolType, nil
	case "string":
		return expr.StringType, nil
	case "seq":
		if _, err := p.expect(tokLBracket); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		return expr.SeqOf(elem), nil
	case "func":
		if _, err := p.expect(tokLParen); err != nil {
			return nil, err
		}
		var params []expr.Type
		for p.tok().typ != tokRParen {
			if len(params) > 0 {
				if _, err := p.expect(tokComma); err != nil {
					return nil, err
				}
			}
			pt, err := p.parseType()
			if err != nil {
				return nil, err
			}
			params = append(params, pt)
		}
		p.advance() // )
		result, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return expr.FuncOf(result, params...), nil
	}
	return nil, p.errorf(t, "unknown type %s", t.val)
}

func (p *parser) parseConditional() (expr.Node, error) {
	test, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	q := p.tok()
	if !p.accept(tokQuestion) {
		return test, nil
	}
	ifTrue, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	ifFalse, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	c, err := expr.NewConditional(test, ifTrue, ifFalse)
	if err != nil {
		return nil, p.wrap(q, err)
	}
	return c, nil
}

// parseBinary parses left-associative operators binding at least minPower.
func (p *parser) parseBinary(minPower int) (expr.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.tok()
		b, ok := binaryOps[op.typ]
		if !ok || b.power < minPower {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(b.power + 1)
		if err != nil {
			return nil, err
		}
		n, err := expr.NewBinary(b.kind, left, right)
		if err != nil {
			return nil, p.wrap(op, err)
		}
		left = n
	}
}

func (p *parser) parseUnary() (expr.Node, error) {
	op := p.tok()
	var kind expr.Kind
	switch op.typ {
	case tokMinus:
		if p.atMinInt() {
			p.advance()
			p.advance()
			return expr.NewConstant(expr.Int(math.MinInt64))
		}
		kind = expr.KindNegate
	case tokBang:
		kind = expr.KindNot
	default:
		return p.parsePostfix()
	}

	if err := p.enter(op); err != nil {
		return nil, err
	}
	defer p.leave()

	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	n, err := expr.NewUnary(kind, operand)
	if err != nil {
		return nil, p.wrap(op, err)
	}
	return n, nil
}

// atMinInt reports whether the minus at the cursor starts the literal
// -9223372036854775808, whose magnitude alone overflows int64. A method call
// on the literal binds tighter than the minus, so that form is left alone.
func (p *parser) atMinInt() bool {
	lit := p.peekAt(1)
	return lit.typ == tokInt && lit.val == "9223372036854775808" && p.peekAt(2).typ != tokDot
}

// parsePostfix parses a primary followed by any number of .Method(args).
func (p *parser) parsePostfix() (expr.Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.tok().typ == tokDot {
		p.advance()
		name, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		m, extension, ok := p.catalog.Resolve(n.Type(), name.val)
		if !ok {
			return nil, p.errorf(name, "no method %s on %s", name.val, n.Type())
		}
		var call *expr.Call
		if extension {
			call, err = expr.NewStaticCall(m, append([]expr.Node{n}, args...)...)
		} else {
			call, err = expr.NewCall(n, m, args...)
		}
		if err != nil {
			return nil, p.wrap(name, err)
		}
		n = call
	}
	return n, nil
}

func (p *parser) parseArgs() ([]expr.Node, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var args []expr.Node
	for p.tok().typ != tokRParen {
		if len(args) > 0 {
			if _, err := p.expect(tokComma); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	p.advance() // )
	return args, nil
}

func (p *parser) parsePrimary() (expr.Node, error) {
	t := p.tok()
	switch t.typ {
	case tokInt:
		p.advance()
		v, err := strconv.ParseInt(t.val, 10, 64)
		if err != nil {
			return nil, p.errorf(t, "integer %s out of range", t.val)
		}
		return expr.NewConstant(expr.Int(v))
	case tokString:
		p.advance()
		return expr.NewConstant(expr.Str(t.val))
	case tokLParen:
		p.advance()
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tokIdent:
		return p.parseIdent()
	}
	return nil, p.errorf(t, "unexpected %s", t)
}

func (p *parser) parseIdent() (expr.Node, error) {
	t := p.advance()
	if param := p.lookup(t.val); param != nil {
		return param, nil
	}
	switch t.val {
	case "true":
		return expr.NewConstant(expr.Bool(true))
	case "false":
		return expr.NewConstant(expr.Bool(false))
	}

	if p.tok().typ == tokDot && p.catalog.HasType(t.val) {
		p.advance()
		name, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		m, ok := p.catalog.Lookup(t.val, name.val)
		if !ok || !m.Static {
			return nil, p.errorf(name, "no static method %s.%s", t.val, name.val)
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		call, err := expr.NewStaticCall(m, args...)
		if err != nil {
			return nil, p.wrap(name, err)
		}
		return call, nil
	}
	return nil, p.errorf(t, "undefined: %s", t.val)
}

// lookup finds the innermost lambda parameter named name.
func (p *parser) lookup(name string) *expr.Parameter {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if param, ok := p.scopes[i][name]; ok {
			return param
		}
	}
	return nil
}
