package expr

import "fmt"

// OpKind identifies an expression node. Kinds are ordered: everything below
// opTerminals is a leaf, everything between opTerminals and opUnaryOperators
// takes one operand, and the rest take two.
type OpKind uint8

const (
	OpValue OpKind = iota
	OpIdent
	OpFunction
	OpScope

	opTerminals

	OpNot
	OpNeg

	opUnaryOperators

	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpQuery
	OpColon
	OpCons
	OpSeq
	OpDefine
	OpLookup
	OpCall
	OpMatch
)

var opNames = map[OpKind]string{
	OpValue:    "VALUE",
	OpIdent:    "IDENT",
	OpFunction: "FUNCTION",
	OpScope:    "SCOPE",
	OpNot:      "O_NOT",
	OpNeg:      "O_NEG",
	OpEq:       "O_EQ",
	OpNeq:      "O_NEQ",
	OpLt:       "O_LT",
	OpLte:      "O_LTE",
	OpGt:       "O_GT",
	OpGte:      "O_GTE",
	OpAnd:      "O_AND",
	OpOr:       "O_OR",
	OpAdd:      "O_ADD",
	OpSub:      "O_SUB",
	OpMul:      "O_MUL",
	OpDiv:      "O_DIV",
	OpQuery:    "O_QUERY",
	OpColon:    "O_COLON",
	OpCons:     "O_CONS",
	OpSeq:      "O_SEQ",
	OpDefine:   "O_DEFINE",
	OpLookup:   "O_LOOKUP",
	OpCall:     "O_CALL",
	OpMatch:    "O_MATCH",
}

func (k OpKind) String() string {
	if name, ok := opNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// IsTerminal reports whether the kind is a leaf.
func (k OpKind) IsTerminal() bool { return k < opTerminals }

// IsUnary reports whether the kind takes exactly one operand.
func (k OpKind) IsUnary() bool { return k > opTerminals && k < opUnaryOperators }

// IsBinary reports whether the kind takes two operands.
func (k OpKind) IsBinary() bool { return k > opUnaryOperators }

// Functor is a host-side callable exposed to expressions.
type Functor func(call *CallScope) (Value, error)

// Op is a node of a parsed expression. Nodes are shared between evaluations
// and are not modified after parsing, except for SetIdent.
type Op struct {
	Kind  OpKind
	Left  *Op
	Right *Op

	value   Value
	ident   string
	functor Functor
}

// NewValueOp creates a literal node.
func NewValueOp(v Value) *Op {
	return &Op{Kind: OpValue, value: v}
}

// NewIdentOp creates an identifier node.
func NewIdentOp(name string) *Op {
	return &Op{Kind: OpIdent, ident: name}
}

// WrapFunctor wraps a host function so it can be defined in a scope.
func WrapFunctor(f Functor) *Op {
	return &Op{Kind: OpFunction, functor: f}
}

// WrapValue is shorthand for a literal node holding v.
func WrapValue(v Value) *Op {
	return NewValueOp(v)
}

// NewOp creates an operator node.
func NewOp(kind OpKind, left, right *Op) *Op {
	return &Op{Kind: kind, Left: left, Right: right}
}

// IsIdent reports whether the node is an identifier.
func (o *Op) IsIdent() bool { return o != nil && o.Kind == OpIdent }

// IsValue reports whether the node is a literal.
func (o *Op) IsValue() bool { return o != nil && o.Kind == OpValue }

// IsFunction reports whether the node wraps a host function.
func (o *Op) IsFunction() bool { return o != nil && o.Kind == OpFunction }

// IsScope reports whether the node is a scope block.
func (o *Op) IsScope() bool { return o != nil && o.Kind == OpScope }

// HasRight reports whether the node has a right operand.
func (o *Op) HasRight() bool { return o != nil && o.Right != nil }

// Ident returns the identifier name of an OpIdent node.
func (o *Op) Ident() string { return o.ident }

// SetIdent renames an identifier node in place.
func (o *Op) SetIdent(name string) { o.ident = name }

// Value returns the literal held by an OpValue node.
func (o *Op) Value() Value { return o.value }

// Functor returns the host function of an OpFunction node.
func (o *Op) Functor() Functor { return o.functor }

// Call invokes the wrapped function.
func (o *Op) Call(call *CallScope) (Value, error) {
	if o.functor == nil {
		return Null, fmt.Errorf("expression node %s is not callable", o.Kind)
	}
	return o.functor(call)
}

// Dump writes an indented tree of the node, for diagnostics.
func (o *Op) Dump() string {
	var b []byte
	o.dump(&b, 0)
	return string(b)
}

func (o *Op) dump(b *[]byte, depth int) {
	for i := 0; i < depth; i++ {
		*b = append(*b, ' ', ' ')
	}
	switch o.Kind {
	case OpValue:
		*b = fmt.Appendf(*b, "VALUE: %s (%s)\n", Print(o), o.value.Kind())
	case OpIdent:
		*b = fmt.Appendf(*b, "IDENT: %s\n", o.ident)
	default:
		*b = fmt.Appendf(*b, "%s\n", o.Kind)
	}
	if o.Left != nil {
		o.Left.dump(b, depth+1)
	}
	if o.Right != nil {
		o.Right.dump(b, depth+1)
	}
}

// SplitCons flattens a top-level comma list into its elements.
func SplitCons(o *Op) []*Op {
	if o == nil {
		return nil
	}
	var result []*Op
	for o != nil && o.Kind == OpCons {
		result = append(result, o.Left)
		o = o.Right
	}
	if o != nil {
		result = append(result, o)
	}
	return result
}
