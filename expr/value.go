package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/shopspring/decimal"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	Void Kind = iota
	Boolean
	Integer
	AmountKind
	BalanceKind
	String
	Date
	Mask
	Sequence
	ScopeKind
)

var kindNames = map[Kind]string{
	Void:        "void",
	Boolean:     "boolean",
	Integer:     "integer",
	AmountKind:  "amount",
	BalanceKind: "balance",
	String:      "string",
	Date:        "date",
	Mask:        "mask",
	Sequence:    "sequence",
	ScopeKind:   "scope",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Value is the result of evaluating an expression. The zero Value is void.
type Value struct {
	kind Kind
	data any
}

// Null is the void value.
var Null = Value{}

func BoolValue(b bool) Value {
	return Value{kind: Boolean, data: b}
}

func IntValue(n int64) Value {
	return Value{kind: Integer, data: n}
}

func AmountValue(a amount.Amount) Value {
	return Value{kind: AmountKind, data: a}
}

func StringValue(s string) Value {
	return Value{kind: String, data: s}
}

func DateValue(t time.Time) Value {
	return Value{kind: Date, data: t}
}

func MaskValue(re *regexp.Regexp) Value {
	return Value{kind: Mask, data: re}
}

func SequenceValue(items ...Value) Value {
	return Value{kind: Sequence, data: items}
}

func ScopeValue(s Scope) Value {
	return Value{kind: ScopeKind, data: s}
}

func BalanceValue(b *amount.Balance) Value {
	return Value{kind: BalanceKind, data: b}
}

// NewMask compiles a case-insensitive mask, as used for account and payee
// matching.
func NewMask(pattern string) (Value, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Null, fmt.Errorf("invalid mask /%s/: %w", pattern, err)
	}
	return MaskValue(re), nil
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is void.
func (v Value) IsNull() bool { return v.kind == Void }

// Truthy reports whether the value counts as true in a boolean context.
func (v Value) Truthy() bool {
	switch v.kind {
	case Boolean:
		return v.data.(bool)
	case Integer:
		return v.data.(int64) != 0
	case AmountKind:
		return !v.data.(amount.Amount).IsZero()
	case BalanceKind:
		return !v.data.(*amount.Balance).IsZero()
	case String:
		return v.data.(string) != ""
	case Date:
		return !v.data.(time.Time).IsZero()
	case Mask:
		return true
	case Sequence:
		for _, item := range v.data.([]Value) {
			if item.Truthy() {
				return true
			}
		}
		return false
	case ScopeKind:
		return v.data != nil
	}
	return false
}

// AsBool returns the truthiness of the value.
func (v Value) AsBool() bool { return v.Truthy() }

// AsInt converts the value to an integer.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case Void:
		return 0, nil
	case Boolean:
		if v.data.(bool) {
			return 1, nil
		}
		return 0, nil
	case Integer:
		return v.data.(int64), nil
	case AmountKind:
		return v.data.(amount.Amount).Quantity.IntPart(), nil
	case BalanceKind:
		if a, ok := v.data.(*amount.Balance).Single(); ok {
			return a.Quantity.IntPart(), nil
		}
		if v.data.(*amount.Balance).IsZero() {
			return 0, nil
		}
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.data.(string)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to an integer", v.data)
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot convert %s to an integer", v.kind)
}

// AsAmount converts the value to an amount.
func (v Value) AsAmount() (amount.Amount, error) {
	switch v.kind {
	case Void:
		return amount.FromInt(0), nil
	case Integer:
		return amount.FromInt(v.data.(int64)), nil
	case AmountKind:
		return v.data.(amount.Amount), nil
	case BalanceKind:
		b := v.data.(*amount.Balance)
		if b.IsZero() {
			return amount.FromInt(0), nil
		}
		if a, ok := b.Single(); ok {
			return a, nil
		}
		return amount.Amount{}, fmt.Errorf("cannot convert a balance with multiple commodities to an amount")
	case String:
		d, err := decimal.NewFromString(strings.TrimSpace(v.data.(string)))
		if err != nil {
			return amount.Amount{}, fmt.Errorf("cannot convert string %q to an amount", v.data)
		}
		return amount.Amount{Quantity: d}, nil
	}
	return amount.Amount{}, fmt.Errorf("cannot convert %s to an amount", v.kind)
}

// AsBalance converts the value to a balance.
func (v Value) AsBalance() (*amount.Balance, error) {
	switch v.kind {
	case Void:
		return amount.NewBalance(), nil
	case BalanceKind:
		return v.data.(*amount.Balance), nil
	case Sequence:
		b := amount.NewBalance()
		for _, item := range v.data.([]Value) {
			ib, err := item.AsBalance()
			if err != nil {
				return nil, err
			}
			b.AddBalance(ib)
		}
		return b, nil
	}
	a, err := v.AsAmount()
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to a balance", v.kind)
	}
	return amount.NewBalance(a), nil
}

// AsString converts the value to its string form.
func (v Value) AsString() string {
	if v.kind == String {
		return v.data.(string)
	}
	return v.String()
}

// AsDate converts the value to a date.
func (v Value) AsDate() (time.Time, error) {
	switch v.kind {
	case Date:
		return v.data.(time.Time), nil
	case Void:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("cannot convert %s to a date", v.kind)
}

// AsMask converts the value to a mask; strings are compiled.
func (v Value) AsMask() (*regexp.Regexp, error) {
	switch v.kind {
	case Mask:
		return v.data.(*regexp.Regexp), nil
	case String:
		m, err := NewMask(v.data.(string))
		if err != nil {
			return nil, err
		}
		return m.data.(*regexp.Regexp), nil
	}
	return nil, fmt.Errorf("cannot convert %s to a mask", v.kind)
}

// AsSequence returns the items of a sequence, or the value itself as a
// single item. Void is the empty sequence.
func (v Value) AsSequence() []Value {
	switch v.kind {
	case Sequence:
		return v.data.([]Value)
	case Void:
		return nil
	}
	return []Value{v}
}

// AsScope returns the scope held by the value.
func (v Value) AsScope() (Scope, error) {
	if v.kind == ScopeKind && v.data != nil {
		return v.data.(Scope), nil
	}
	return nil, fmt.Errorf("cannot convert %s to a scope", v.kind)
}

// Negate flips the sign of numeric values and the truth of booleans.
func (v Value) Negate() (Value, error) {
	switch v.kind {
	case Void:
		return v, nil
	case Boolean:
		return BoolValue(!v.data.(bool)), nil
	case Integer:
		return IntValue(-v.data.(int64)), nil
	case AmountKind:
		return AmountValue(v.data.(amount.Amount).Negate()), nil
	case BalanceKind:
		return BalanceValue(v.data.(*amount.Balance).Negate()), nil
	case Sequence:
		items := v.data.([]Value)
		out := make([]Value, len(items))
		for i, item := range items {
			n, err := item.Negate()
			if err != nil {
				return Null, err
			}
			out[i] = n
		}
		return SequenceValue(out...), nil
	}
	return Null, fmt.Errorf("cannot negate %s", v.kind)
}

// Add sums two values, widening integers to amounts and amounts of
// different commodities to balances.
func (v Value) Add(o Value) (Value, error) {
	switch {
	case v.kind == Void:
		return o, nil
	case o.kind == Void:
		return v, nil
	case v.kind == Sequence:
		return SequenceValue(append(append([]Value{}, v.AsSequence()...), o.AsSequence()...)...), nil
	case v.kind == String || o.kind == String:
		return StringValue(v.AsString() + o.AsString()), nil
	case v.kind == Date && o.kind == Integer:
		return DateValue(v.data.(time.Time).AddDate(0, 0, int(o.data.(int64)))), nil
	case v.kind == Integer && o.kind == Integer:
		return IntValue(v.data.(int64) + o.data.(int64)), nil
	case v.kind == BalanceKind || o.kind == BalanceKind:
		return v.addBalance(o)
	}

	a, err := v.AsAmount()
	if err != nil {
		return Null, fmt.Errorf("cannot add %s to %s", o.kind, v.kind)
	}
	b, err := o.AsAmount()
	if err != nil {
		return Null, fmt.Errorf("cannot add %s to %s", o.kind, v.kind)
	}
	if a.HasCommodity() && b.HasCommodity() && a.Symbol() != b.Symbol() {
		return BalanceValue(amount.NewBalance(a, b)), nil
	}
	sum, err := a.Add(b)
	if err != nil {
		return Null, err
	}
	return AmountValue(sum), nil
}

func (v Value) addBalance(o Value) (Value, error) {
	a, err := v.AsBalance()
	if err != nil {
		return Null, err
	}
	b, err := o.AsBalance()
	if err != nil {
		return Null, err
	}
	sum := a.Clone()
	sum.AddBalance(b)
	return BalanceValue(sum), nil
}

// Sub subtracts o from v.
func (v Value) Sub(o Value) (Value, error) {
	if v.kind == Date && o.kind == Date {
		days := v.data.(time.Time).Sub(o.data.(time.Time)).Hours() / 24
		return IntValue(int64(days)), nil
	}
	if v.kind == String || o.kind == String || v.kind == Sequence {
		return Null, fmt.Errorf("cannot subtract %s from %s", o.kind, v.kind)
	}
	neg, err := o.Negate()
	if err != nil {
		return Null, err
	}
	return v.Add(neg)
}

// Mul multiplies two numeric values.
func (v Value) Mul(o Value) (Value, error) {
	if v.kind == Integer && o.kind == Integer {
		return IntValue(v.data.(int64) * o.data.(int64)), nil
	}
	if v.kind == BalanceKind {
		f, err := o.AsAmount()
		if err != nil {
			return Null, err
		}
		out := amount.NewBalance()
		for _, a := range v.data.(*amount.Balance).Amounts() {
			out.Add(a.Mul(f.Number()))
		}
		return BalanceValue(out), nil
	}
	a, err := v.AsAmount()
	if err != nil {
		return Null, fmt.Errorf("cannot multiply %s by %s", v.kind, o.kind)
	}
	b, err := o.AsAmount()
	if err != nil {
		return Null, fmt.Errorf("cannot multiply %s by %s", v.kind, o.kind)
	}
	return AmountValue(a.Mul(b)), nil
}

// Div divides v by o.
func (v Value) Div(o Value) (Value, error) {
	a, err := v.AsAmount()
	if err != nil {
		return Null, fmt.Errorf("cannot divide %s by %s", v.kind, o.kind)
	}
	b, err := o.AsAmount()
	if err != nil {
		return Null, fmt.Errorf("cannot divide %s by %s", v.kind, o.kind)
	}
	q, err := a.Div(b)
	if err != nil {
		return Null, err
	}
	return AmountValue(q), nil
}

// Compare orders two values. Numeric kinds compare by quantity, strings
// lexically, dates chronologically.
func (v Value) Compare(o Value) (int, error) {
	switch {
	case v.kind == String && o.kind == String:
		return strings.Compare(v.data.(string), o.data.(string)), nil
	case v.kind == Date && o.kind == Date:
		return v.data.(time.Time).Compare(o.data.(time.Time)), nil
	case v.kind == Boolean && o.kind == Boolean:
		x, y := v.data.(bool), o.data.(bool)
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		}
		return 1, nil
	case v.kind == Integer && o.kind == Integer:
		x, y := v.data.(int64), o.data.(int64)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	case v.kind == Void || o.kind == Void:
		if v.kind == o.kind {
			return 0, nil
		}
	}

	if v.kind == BalanceKind || o.kind == BalanceKind {
		diff, err := v.Sub(o)
		if err != nil {
			return 0, err
		}
		b, _ := diff.AsBalance()
		sign := 0
		for _, a := range b.Amounts() {
			if s := a.Sign(); s != 0 {
				if sign != 0 && sign != s {
					return 0, fmt.Errorf("cannot order balances of mixed signs")
				}
				sign = s
			}
		}
		return sign, nil
	}

	a, err := v.AsAmount()
	if err != nil {
		return 0, fmt.Errorf("cannot compare %s to %s", v.kind, o.kind)
	}
	b, err := o.AsAmount()
	if err != nil {
		return 0, fmt.Errorf("cannot compare %s to %s", v.kind, o.kind)
	}
	return a.Compare(b)
}

// Equal reports whether two values are equal. Values of kinds that cannot be
// compared are unequal.
func (v Value) Equal(o Value) bool {
	if v.kind == Sequence || o.kind == Sequence {
		x, y := v.AsSequence(), o.AsSequence()
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !x[i].Equal(y[i]) {
				return false
			}
		}
		return true
	}
	if v.kind == Mask || o.kind == Mask || v.kind == ScopeKind || o.kind == ScopeKind {
		return v.kind == o.kind && v.data == o.data
	}
	if (v.kind == String) != (o.kind == String) {
		return false
	}
	c, err := v.Compare(o)
	return err == nil && c == 0
}

// Simplified reduces single-commodity balances to amounts and empty ones to
// zero.
func (v Value) Simplified() Value {
	if v.kind != BalanceKind {
		return v
	}
	b := v.data.(*amount.Balance)
	if b.IsZero() {
		return IntValue(0)
	}
	if a, ok := b.Single(); ok {
		return AmountValue(a)
	}
	return v
}

// Rounded rounds numeric values to their display precision.
func (v Value) Rounded() Value {
	switch v.kind {
	case AmountKind:
		return AmountValue(v.data.(amount.Amount).Rounded())
	case BalanceKind:
		return BalanceValue(v.data.(*amount.Balance).Rounded())
	case Sequence:
		items := v.data.([]Value)
		out := make([]Value, len(items))
		for i, item := range items {
			out[i] = item.Rounded()
		}
		return SequenceValue(out...)
	}
	return v
}

// Interface returns the underlying Go value.
func (v Value) Interface() any {
	return v.data
}

func (v Value) String() string {
	switch v.kind {
	case Void:
		return ""
	case Boolean:
		return strconv.FormatBool(v.data.(bool))
	case Integer:
		return strconv.FormatInt(v.data.(int64), 10)
	case AmountKind:
		return v.data.(amount.Amount).String()
	case BalanceKind:
		return v.data.(*amount.Balance).String()
	case String:
		return v.data.(string)
	case Date:
		return v.data.(time.Time).Format("2006/01/02")
	case Mask:
		return strings.TrimPrefix(v.data.(*regexp.Regexp).String(), "(?i)")
	case Sequence:
		items := v.data.([]Value)
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ScopeKind:
		if v.data == nil {
			return ""
		}
		return v.data.(Scope).Description()
	}
	return ""
}
