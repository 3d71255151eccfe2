package parser

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

const eof = -1

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokInt
	tokString
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
	tokArrow
	tokQuestion
	tokColon
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokEq
	tokNeq
	tokLt
	tokLe
	tokGt
	tokGe
	tokAnd
	tokOr
	tokBang
)

var tokenNames = map[tokenType]string{
	tokEOF:      "end of input",
	tokIdent:    "identifier",
	tokInt:      "integer",
	tokString:   "string",
	tokLParen:   "(",
	tokRParen:   ")",
	tokLBracket: "[",
	tokRBracket: "]",
	tokComma:    ",",
	tokDot:      ".",
	tokArrow:    "=>",
	tokQuestion: "?",
	tokColon:    ":",
	tokPlus:     "+",
	tokMinus:    "-",
	tokStar:     "*",
	tokSlash:    "/",
	tokPercent:  "%",
	tokEq:       "==",
	tokNeq:      "!=",
	tokLt:       "<",
	tokLe:       "<=",
	tokGt:       ">",
	tokGe:       ">=",
	tokAnd:      "&&",
	tokOr:       "||",
	tokBang:     "!",
}

func (t tokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type token struct {
	typ tokenType
	val string // identifier name, integer digits or unquoted string
	pos int    // byte offset of the first character
}

func (t token) String() string {
	switch t.typ {
	case tokIdent, tokInt:
		return t.val
	case tokString:
		return strconv.Quote(t.val)
	}
	return t.typ.String()
}

// two-character operators, keyed by their first rune.
var symbols2 = map[rune][]struct {
	next rune
	typ  tokenType
}{
	'=': {{'>', tokArrow}, {'=', tokEq}},
	'!': {{'=', tokNeq}},
	'<': {{'=', tokLe}},
	'>': {{'=', tokGe}},
	'&': {{'&', tokAnd}},
	'|': {{'|', tokOr}},
}

var symbols1 = map[rune]tokenType{
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBracket,
	']': tokRBracket,
	',': tokComma,
	'.': tokDot,
	'?': tokQuestion,
	':': tokColon,
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'%': tokPercent,
	'<': tokLt,
	'>': tokGt,
	'!': tokBang,
}

type lexer struct {
	input   string
	start   int // start of the current token
	current int // next rune to read
	width   int // width of the last rune read
}

// lex tokenizes src completely. The returned slice always ends with tokEOF.
func lex(src string) ([]token, error) {
	l := &lexer{input: src}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.typ == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipWhitespace()
	l.start = l.current

	ch := l.nextRune()
	if ch == eof {
		return l.emit(tokEOF, ""), nil
	}

	for _, s := range symbols2[ch] {
		if l.acceptRune(s.next) {
			return l.emit(s.typ, ""), nil
		}
	}
	if typ, ok := symbols1[ch]; ok {
		return l.emit(typ, ""), nil
	}

	switch {
	case ch == '"':
		return l.scanString()
	case isDigit(ch):
		return l.scanInt(), nil
	case isIdentStart(ch):
		return l.scanIdent(), nil
	}
	return token{}, l.errorf("unexpected character %q", ch)
}

func (l *lexer) scanString() (token, error) {
	for {
		switch l.nextRune() {
		case eof, '\n':
			return token{}, l.errorf("string literal not terminated")
		case '\\':
			if l.nextRune() == eof {
				return token{}, l.errorf("string literal not terminated")
			}
		case '"':
			raw := l.input[l.start:l.current]
			s, err := strconv.Unquote(raw)
			if err != nil {
				return token{}, l.errorf("invalid string literal %s", raw)
			}
			return l.emit(tokString, s), nil
		}
	}
}

func (l *lexer) scanInt() token {
	for isDigit(l.peek()) {
		l.nextRune()
	}
	return l.emit(tokInt, l.input[l.start:l.current])
}

func (l *lexer) scanIdent() token {
	for r := l.peek(); isIdentStart(r) || isDigit(r); r = l.peek() {
		l.nextRune()
	}
	return l.emit(tokIdent, l.input[l.start:l.current])
}

func (l *lexer) emit(typ tokenType, val string) token {
	return token{typ: typ, val: val, pos: l.start}
}

func (l *lexer) errorf(format string, args ...any) *Error {
	return &Error{Pos: l.start, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) nextRune() rune {
	if l.current >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *lexer) backup() {
	l.current -= l.width
}

func (l *lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *lexer) acceptRune(r rune) bool {
	if l.nextRune() == r {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.peek()) {
		l.nextRune()
	}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
