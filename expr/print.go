package expr

import (
	"strings"

	"github.com/robinvdvleuten/ledger/interval"
)

// Binding strength of each operator, mirroring the parser's grammar levels.
const (
	precSeq = iota + 1
	precCons
	precAssign
	precQuery
	precOr
	precAnd
	precCompare
	precAdditive
	precTerm
	precUnary
	precPostfix
	precPrimary
)

var binarySymbols = map[OpKind]string{
	OpEq:    "==",
	OpNeq:   "!=",
	OpLt:    "<",
	OpLte:   "<=",
	OpGt:    ">",
	OpGte:   ">=",
	OpAnd:   "&",
	OpOr:    "|",
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMatch: "=~",
}

func precedence(o *Op) int {
	switch o.Kind {
	case OpSeq:
		return precSeq
	case OpCons:
		return precCons
	case OpDefine:
		return precAssign
	case OpQuery:
		return precQuery
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpMatch:
		return precCompare
	case OpAdd, OpSub:
		return precAdditive
	case OpMul, OpDiv:
		return precTerm
	case OpNot, OpNeg:
		return precUnary
	case OpLookup, OpCall:
		return precPostfix
	}
	return precPrimary
}

// Print renders an expression tree as text that parses back to an
// equivalent tree.
func Print(o *Op) string {
	var b strings.Builder
	printOp(&b, o, 0)
	return b.String()
}

func printOp(b *strings.Builder, o *Op, min int) {
	if o == nil {
		return
	}
	prec := precedence(o)
	if prec < min {
		b.WriteByte('(')
		defer b.WriteByte(')')
	}

	switch o.Kind {
	case OpValue:
		printValue(b, o.value)
	case OpIdent:
		b.WriteString(o.ident)
	case OpFunction:
		b.WriteString("<function>")
	case OpScope:
		b.WriteString("{ ")
		printOp(b, o.Left, 0)
		b.WriteString(" }")

	case OpNot:
		if o.Left != nil && o.Left.Kind == OpMatch {
			printOp(b, o.Left.Left, precCompare+1)
			b.WriteString(" !~ ")
			printOp(b, o.Left.Right, precCompare+1)
			return
		}
		b.WriteByte('!')
		printOp(b, o.Left, precUnary)
	case OpNeg:
		b.WriteByte('-')
		printOp(b, o.Left, precUnary)

	case OpQuery:
		colon := o.Right
		printOp(b, o.Left, precOr)
		b.WriteString(" ? ")
		printOp(b, colon.Left, precQuery)
		b.WriteString(" : ")
		if colon.Right == nil {
			b.WriteString("null")
		} else {
			printOp(b, colon.Right, precQuery)
		}

	case OpCons:
		printOp(b, o.Left, precAssign)
		b.WriteString(", ")
		printOp(b, o.Right, precCons)
	case OpSeq:
		printOp(b, o.Left, precCons)
		b.WriteString("; ")
		printOp(b, o.Right, precSeq)
	case OpDefine:
		printOp(b, o.Left, precQuery)
		b.WriteString(" = ")
		printOp(b, o.Right, precAssign)

	case OpLookup:
		printOp(b, o.Left, precPostfix)
		b.WriteByte('.')
		printOp(b, o.Right, precPrimary)
	case OpCall:
		printOp(b, o.Left, precPostfix)
		b.WriteByte('(')
		printOp(b, o.Right, 0)
		b.WriteByte(')')

	default:
		// left-associative binary operators
		printOp(b, o.Left, prec)
		b.WriteString(" " + binarySymbols[o.Kind] + " ")
		printOp(b, o.Right, prec+1)
	}
}

func printValue(b *strings.Builder, v Value) {
	switch v.Kind() {
	case Void:
		b.WriteString("null")
	case String:
		b.WriteString(quote(v.AsString()))
	case Date:
		t, _ := v.AsDate()
		b.WriteString("[" + interval.FormatDate(t) + "]")
	case Mask:
		b.WriteString("/" + strings.ReplaceAll(v.String(), "/", `\/`) + "/")
	case Sequence:
		b.WriteByte('(')
		for i, item := range v.AsSequence() {
			if i > 0 {
				b.WriteString(", ")
			}
			printValue(b, item)
		}
		b.WriteByte(')')
	default:
		b.WriteString(v.String())
	}
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
