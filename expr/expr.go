// Package expr implements the value-expression language: a lexer and
// recursive-descent parser producing Op trees, a tree-walking evaluator,
// a printer, and the lexical scope chain identifiers are resolved through.
//
// Evaluation is synchronous. Scopes are safe for concurrent lookups only
// while nobody defines new symbols in them.
package expr

import (
	"github.com/robinvdvleuten/ledger/amount"
)

// Expr is parsed expression text.
type Expr struct {
	Text string
	Op   *Op
}

// ParseOption configures parsing.
type ParseOption func(*options)

type options struct {
	pool *amount.Pool
}

// WithPool registers amount literals in the given commodity pool, so they
// share display styles with the journal.
func WithPool(pool *amount.Pool) ParseOption {
	return func(o *options) {
		o.pool = pool
	}
}

// Parse parses expression text.
func Parse(text string, opts ...ParseOption) (*Expr, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	op, err := NewParser(text, o.pool).Parse()
	if err != nil {
		return nil, err
	}
	return &Expr{Text: text, Op: op}, nil
}

// MustParse is like Parse but panics on error. Intended for built-in
// expressions known to be valid.
func MustParse(text string, opts ...ParseOption) *Expr {
	e, err := Parse(text, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// FromOp wraps an existing tree.
func FromOp(op *Op) *Expr {
	return &Expr{Text: Print(op), Op: op}
}

// Calc evaluates the expression. An empty expression is void.
func (e *Expr) Calc(scope Scope) (Value, error) {
	if e == nil {
		return Null, nil
	}
	return e.Op.Calc(scope)
}

// IsEmpty reports whether there is nothing to evaluate.
func (e *Expr) IsEmpty() bool {
	return e == nil || e.Op == nil
}

// Print renders the expression tree.
func (e *Expr) Print() string {
	if e == nil {
		return ""
	}
	return Print(e.Op)
}

func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.Text
}
