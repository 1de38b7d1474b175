package expr

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes value expressions.
//
// The '/' character is context sensitive: after an operand it is the
// division operator, anywhere else it opens a /mask/.
type Lexer struct {
	source string
	pos    int
	tokens []Token
	last   TokenType
}

// NewLexer creates a lexer for the given expression text.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		tokens: make([]Token, 0, len(source)/3+2),
		last:   ILLEGAL,
	}
}

// ScanAll lexes the whole expression and returns the tokens, terminated by
// EOF. Malformed input produces an ILLEGAL token at the offending position.
func (l *Lexer) ScanAll() []Token {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.source) {
			break
		}
		tok := l.scanToken()
		l.tokens = append(l.tokens, tok)
		l.last = tok.Type
		if tok.Type == ILLEGAL {
			break
		}
	}

	l.tokens = append(l.tokens, Token{Type: EOF, Start: l.pos, End: l.pos, Column: l.pos + 1})
	return l.tokens
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		switch l.source[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.source) {
		return 0
	}
	return l.source[l.pos+offset]
}

func (l *Lexer) token(typ TokenType, start int) Token {
	return Token{Type: typ, Start: start, End: l.pos, Column: start + 1}
}

func (l *Lexer) scanToken() Token {
	start := l.pos
	ch := l.source[l.pos]

	switch {
	case isDigit(ch) || ch == '.' && isDigit(l.peekAt(1)):
		return l.scanNumber(start)
	case ch == '"' || ch == '\'':
		return l.scanString(start, ch)
	case ch == '[':
		return l.scanDate(start)
	case ch == '/' && !l.last.endsOperand():
		return l.scanMask(start)
	case isIdentStart(ch):
		return l.scanIdent(start)
	}

	if r, size := utf8.DecodeRuneInString(l.source[l.pos:]); isPrefixSymbol(r) {
		next := l.peekAt(size)
		if isDigit(next) || next == '-' && isDigit(l.peekAt(size+1)) {
			l.pos += size
			if next == '-' {
				l.pos++
			}
			l.skipNumber()
			return l.token(AMOUNT, start)
		}
	}

	l.pos++
	two := func(second byte, long, short TokenType) Token {
		if l.peekAt(0) == second {
			l.pos++
			return l.token(long, start)
		}
		return l.token(short, start)
	}

	switch ch {
	case '(':
		return l.token(LPAREN, start)
	case ')':
		return l.token(RPAREN, start)
	case '{':
		return l.token(LBRACE, start)
	case '}':
		return l.token(RBRACE, start)
	case ',':
		return l.token(COMMA, start)
	case ';':
		return l.token(SEMI, start)
	case '.':
		return l.token(DOT, start)
	case '?':
		return l.token(QUESTION, start)
	case ':':
		return l.token(COLON, start)
	case '+':
		return l.token(PLUS, start)
	case '-':
		return l.token(MINUS, start)
	case '*':
		return l.token(STAR, start)
	case '/':
		return l.token(SLASH, start)
	case '&':
		return two('&', AND, AND)
	case '|':
		return two('|', OR, OR)
	case '<':
		return two('=', LTE, LT)
	case '>':
		return two('=', GTE, GT)
	case '=':
		switch l.peekAt(0) {
		case '=':
			l.pos++
			return l.token(EQ, start)
		case '~':
			l.pos++
			return l.token(MATCH, start)
		}
		return l.token(ASSIGN, start)
	case '!':
		switch l.peekAt(0) {
		case '=':
			l.pos++
			return l.token(NEQ, start)
		case '~':
			l.pos++
			return l.token(NMATCH, start)
		}
		return l.token(NOT, start)
	}

	return l.token(ILLEGAL, start)
}

func (l *Lexer) skipNumber() {
	seenDot := false
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == '.' && !seenDot && isDigit(l.peekAt(1)) {
			seenDot = true
		} else if !isDigit(ch) {
			break
		}
		l.pos++
	}
}

// scanNumber reads an integer or decimal quantity. A quantity followed by an
// upper-case word ("10 EUR") becomes an amount of that commodity.
func (l *Lexer) scanNumber(start int) Token {
	l.skipNumber()
	typ := INT
	for i := start; i < l.pos; i++ {
		if l.source[i] == '.' {
			typ = AMOUNT
			break
		}
	}

	mark := l.pos
	if l.peekAt(0) == ' ' {
		l.pos++
	}
	symStart := l.pos
	for l.pos < len(l.source) && l.source[l.pos] >= 'A' && l.source[l.pos] <= 'Z' {
		l.pos++
	}
	if l.pos > symStart && (l.pos >= len(l.source) || !isIdentPart(l.source[l.pos])) {
		return l.token(AMOUNT, start)
	}
	l.pos = mark
	return l.token(typ, start)
}

func (l *Lexer) scanString(start int, quote byte) Token {
	l.pos++
	for l.pos < len(l.source) {
		switch l.source[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case quote:
			l.pos++
			return l.token(STRING, start)
		}
		l.pos++
	}
	l.pos = len(l.source)
	return l.token(ILLEGAL, start)
}

func (l *Lexer) scanDate(start int) Token {
	for l.pos < len(l.source) {
		if l.source[l.pos] == ']' {
			l.pos++
			return l.token(DATE, start)
		}
		l.pos++
	}
	return l.token(ILLEGAL, start)
}

func (l *Lexer) scanMask(start int) Token {
	l.pos++
	for l.pos < len(l.source) {
		switch l.source[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '/':
			l.pos++
			return l.token(MASK, start)
		}
		l.pos++
	}
	l.pos = len(l.source)
	return l.token(ILLEGAL, start)
}

func (l *Lexer) scanIdent(start int) Token {
	for l.pos < len(l.source) && isIdentPart(l.source[l.pos]) {
		l.pos++
	}
	if kw, ok := keywords[l.source[start:l.pos]]; ok {
		return l.token(kw, start)
	}
	return l.token(IDENT, start)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isPrefixSymbol(r rune) bool {
	return r == '$' || unicode.Is(unicode.Sc, r)
}
