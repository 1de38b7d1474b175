package expr

import "fmt"

// TokenType represents the type of token scanned from an expression.
type TokenType uint8

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // amount, payee, display_total
	INT    // 42
	AMOUNT // $10.00, 10 EUR, 1.5
	STRING // "text" or 'text'
	DATE   // [2024/01/31]
	MASK   // /regex/
	TRUE   // true
	FALSE  // false
	NULL   // null

	// Keywords
	AND  // and, &
	OR   // or, |
	NOT  // not, !
	IF   // if
	ELSE // else

	// Symbols
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	COMMA    // ,
	SEMI     // ;
	DOT      // .
	QUESTION // ?
	COLON    // :
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	ASSIGN   // =
	EQ       // ==
	NEQ      // !=
	LT       // <
	LTE      // <=
	GT       // >
	GTE      // >=
	MATCH    // =~
	NMATCH   // !~
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	INT:    "INT",
	AMOUNT: "AMOUNT",
	STRING: "STRING",
	DATE:   "DATE",
	MASK:   "MASK",
	TRUE:   "true",
	FALSE:  "false",
	NULL:   "null",

	AND:  "and",
	OR:   "or",
	NOT:  "not",
	IF:   "if",
	ELSE: "else",

	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	COMMA:    ",",
	SEMI:     ";",
	DOT:      ".",
	QUESTION: "?",
	COLON:    ":",
	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	ASSIGN:   "=",
	EQ:       "==",
	NEQ:      "!=",
	LT:       "<",
	LTE:      "<=",
	GT:       ">",
	GTE:      ">=",
	MATCH:    "=~",
	NMATCH:   "!~",
}

var keywords = map[string]TokenType{
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"if":    IF,
	"else":  ELSE,
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token is a lexed unit. Start and End are byte offsets into the source, so
// tokens never copy text.
type Token struct {
	Type   TokenType
	Start  int
	End    int
	Column int
}

// Text returns the token's source text.
func (t Token) Text(source string) string {
	return source[t.Start:t.End]
}

// endsOperand reports whether an operand can end with this token, in which
// case a following '/' divides rather than opening a mask.
func (t TokenType) endsOperand() bool {
	switch t {
	case IDENT, INT, AMOUNT, STRING, DATE, MASK, TRUE, FALSE, NULL, RPAREN, RBRACE:
		return true
	}
	return false
}
