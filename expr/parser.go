package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/interval"
)

// Expression grammar, lowest precedence first:
//
//   sequence   → cons (';' cons)*
//   cons       → assign (',' assign)*
//   assign     → query ('=' assign)?
//   query      → or ('?' query ':' query | 'if' or ('else' query)?)?
//   or         → and (('or' | '|') and)*
//   and        → compare (('and' | '&') compare)*
//   compare    → additive (('==' | '!=' | '<' | '<=' | '>' | '>=' | '=~' | '!~') additive)*
//   additive   → term (('+' | '-') term)*
//   term       → unary (('*' | '/') unary)*
//   unary      → ('!' | 'not' | '-') unary | postfix
//   postfix    → primary ('.' IDENT | '(' sequence? ')')*
//   primary    → literal | IDENT | '(' sequence ')' | '{' sequence '}'

// Parser builds an Op tree from expression text.
type Parser struct {
	source string
	tokens []Token
	pos    int
	pool   *amount.Pool
}

// NewParser creates a parser. Amount literals are registered in pool; a nil
// pool gets a private one.
func NewParser(source string, pool *amount.Pool) *Parser {
	if pool == nil {
		pool = amount.NewPool()
	}
	return &Parser{
		source: source,
		tokens: NewLexer(source).ScanAll(),
		pool:   pool,
	}
}

// Parse parses the entire source. Empty input yields a nil tree.
func (p *Parser) Parse() (*Op, error) {
	if p.check(EOF) {
		return nil, nil
	}
	op, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if !p.check(EOF) {
		return nil, p.unexpected()
	}
	return op, nil
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t TokenType) bool {
	return p.tokens[p.pos].Type == t
}

func (p *Parser) match(types ...TokenType) (Token, bool) {
	for _, t := range types {
		if p.check(t) {
			return p.advance(), true
		}
	}
	return Token{}, false
}

func (p *Parser) expect(t TokenType) error {
	if !p.check(t) {
		return p.errorf("expected '%s'", t)
	}
	p.advance()
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	tok := p.peek()
	return &errors.ParseError{
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...) + p.where(tok),
	}
}

func (p *Parser) unexpected() error {
	tok := p.peek()
	if tok.Type == EOF {
		return &errors.ParseError{Column: tok.Column, Message: "Unexpected end of expression"}
	}
	return &errors.ParseError{
		Column:  tok.Column,
		Message: fmt.Sprintf("Unexpected token '%s'", tok.Text(p.source)) + p.where(tok),
	}
}

func (p *Parser) where(tok Token) string {
	if tok.Type == EOF {
		return " at end of expression"
	}
	return fmt.Sprintf(" at column %d", tok.Column)
}

func (p *Parser) parseSequence() (*Op, error) {
	left, err := p.parseCons()
	if err != nil {
		return nil, err
	}
	if _, ok := p.match(SEMI); !ok {
		return left, nil
	}
	if p.check(EOF) || p.check(RPAREN) || p.check(RBRACE) {
		return left, nil
	}
	right, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	return NewOp(OpSeq, left, right), nil
}

func (p *Parser) parseCons() (*Op, error) {
	left, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, ok := p.match(COMMA); !ok {
		return left, nil
	}
	right, err := p.parseCons()
	if err != nil {
		return nil, err
	}
	return NewOp(OpCons, left, right), nil
}

func (p *Parser) parseAssign() (*Op, error) {
	left, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if !p.check(ASSIGN) {
		return left, nil
	}
	if !left.IsIdent() && !(left.Kind == OpCall && left.Left.IsIdent()) {
		return nil, p.errorf("cannot assign to this expression")
	}
	p.advance()
	right, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return NewOp(OpDefine, left, right), nil
}

func (p *Parser) parseQuery() (*Op, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	switch {
	case p.check(QUESTION):
		p.advance()
		then, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if err := p.expect(COLON); err != nil {
			return nil, err
		}
		otherwise, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		return NewOp(OpQuery, left, NewOp(OpColon, then, otherwise)), nil

	case p.check(IF):
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		var otherwise *Op
		if _, ok := p.match(ELSE); ok {
			otherwise, err = p.parseQuery()
			if err != nil {
				return nil, err
			}
		}
		return NewOp(OpQuery, cond, NewOp(OpColon, left, otherwise)), nil
	}

	return left, nil
}

func (p *Parser) parseOr() (*Op, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(OR); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = NewOp(OpOr, left, right)
	}
}

func (p *Parser) parseAnd() (*Op, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(AND); !ok {
			return left, nil
		}
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = NewOp(OpAnd, left, right)
	}
}

var compareOps = map[TokenType]OpKind{
	EQ:     OpEq,
	NEQ:    OpNeq,
	LT:     OpLt,
	LTE:    OpLte,
	GT:     OpGt,
	GTE:    OpGte,
	MATCH:  OpMatch,
	NMATCH: OpMatch,
}

func (p *Parser) parseCompare() (*Op, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		kind, ok := compareOps[tok.Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = NewOp(kind, left, right)
		if tok.Type == NMATCH {
			left = NewOp(OpNot, left, nil)
		}
	}
}

func (p *Parser) parseAdditive() (*Op, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.match(PLUS, MINUS)
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if tok.Type == PLUS {
			left = NewOp(OpAdd, left, right)
		} else {
			left = NewOp(OpSub, left, right)
		}
	}
}

func (p *Parser) parseTerm() (*Op, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.match(STAR, SLASH)
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.Type == STAR {
			left = NewOp(OpMul, left, right)
		} else {
			left = NewOp(OpDiv, left, right)
		}
	}
}

func (p *Parser) parseUnary() (*Op, error) {
	tok, ok := p.match(NOT, MINUS)
	if !ok {
		return p.parsePostfix()
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if tok.Type == NOT {
		return NewOp(OpNot, operand, nil), nil
	}
	return NewOp(OpNeg, operand, nil), nil
}

func (p *Parser) parsePostfix() (*Op, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(DOT):
			p.advance()
			if !p.check(IDENT) {
				return nil, p.errorf("expected an identifier after '.'")
			}
			name := p.advance().Text(p.source)
			left = NewOp(OpLookup, left, NewIdentOp(name))

		case p.check(LPAREN):
			p.advance()
			var args *Op
			if !p.check(RPAREN) {
				args, err = p.parseSequence()
				if err != nil {
					return nil, err
				}
			}
			if err := p.expect(RPAREN); err != nil {
				return nil, err
			}
			left = NewOp(OpCall, left, args)

		default:
			return left, nil
		}
	}
}

func (p *Parser) parsePrimary() (*Op, error) {
	tok := p.peek()
	text := tok.Text(p.source)

	switch tok.Type {
	case LPAREN:
		p.advance()
		inner, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	case LBRACE:
		p.advance()
		inner, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RBRACE); err != nil {
			return nil, err
		}
		return NewOp(OpScope, inner, nil), nil

	case IDENT:
		p.advance()
		return NewIdentOp(text), nil

	case INT:
		p.advance()
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &errors.ParseError{Column: tok.Column, Message: fmt.Sprintf("invalid integer %q", text), Underlying: err}
		}
		return NewValueOp(IntValue(n)), nil

	case AMOUNT:
		p.advance()
		a, err := p.pool.Parse(text)
		if err != nil {
			return nil, &errors.ParseError{Column: tok.Column, Message: fmt.Sprintf("invalid amount %q", text), Underlying: err}
		}
		return NewValueOp(AmountValue(a)), nil

	case STRING:
		p.advance()
		return NewValueOp(StringValue(unquote(text))), nil

	case DATE:
		p.advance()
		d, err := interval.ParseDate(strings.TrimSpace(text[1:len(text)-1]), 0)
		if err != nil {
			return nil, &errors.ParseError{Column: tok.Column, Message: err.Error(), Underlying: err}
		}
		return NewValueOp(DateValue(d)), nil

	case MASK:
		p.advance()
		m, err := NewMask(strings.ReplaceAll(text[1:len(text)-1], `\/`, "/"))
		if err != nil {
			return nil, &errors.ParseError{Column: tok.Column, Message: err.Error(), Underlying: err}
		}
		return NewValueOp(m), nil

	case TRUE, FALSE:
		p.advance()
		return NewValueOp(BoolValue(tok.Type == TRUE)), nil

	case NULL:
		p.advance()
		return NewValueOp(Null), nil

	case ILLEGAL:
		return nil, &errors.ParseError{Column: tok.Column, Message: fmt.Sprintf("Invalid token '%s'", text) + p.where(tok)}
	}

	return nil, p.unexpected()
}

func unquote(text string) string {
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 == len(body) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}
