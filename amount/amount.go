package amount

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Amount is a quantity of a single commodity. A nil commodity denotes a
// plain number.
type Amount struct {
	Quantity  decimal.Decimal
	Commodity *Commodity
}

// New creates an amount of the given commodity.
func New(q decimal.Decimal, c *Commodity) Amount {
	return Amount{Quantity: q, Commodity: c}
}

// FromInt creates an uncommoditized amount.
func FromInt(n int64) Amount {
	return Amount{Quantity: decimal.NewFromInt(n)}
}

// Parse reads an amount such as "$1,000.00", "-10 EUR" or `5 "ACME X"`,
// registering the commodity in the pool and learning its display style.
func (p *Pool) Parse(text string) (Amount, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Amount{}, fmt.Errorf("no quantity specified for amount")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}

	var (
		symbol    string
		quantity  string
		prefix    bool
		separated bool
	)

	if startsQuantity(s) {
		quantity, s = readQuantity(s)
		rest := strings.TrimLeft(s, " \t")
		separated = len(rest) != len(s)
		if rest != "" {
			var err error
			symbol, rest, err = readSymbol(rest)
			if err != nil {
				return Amount{}, err
			}
			if strings.TrimSpace(rest) != "" {
				return Amount{}, fmt.Errorf("unexpected text after amount: %q", strings.TrimSpace(rest))
			}
		}
	} else {
		var err error
		symbol, s, err = readSymbol(s)
		if err != nil {
			return Amount{}, err
		}
		prefix = true
		rest := strings.TrimLeft(s, " \t")
		separated = len(rest) != len(s)
		if strings.HasPrefix(rest, "-") {
			negative = !negative
			rest = strings.TrimLeft(rest[1:], " \t")
		}
		if !startsQuantity(rest) {
			return Amount{}, fmt.Errorf("no quantity specified for amount %q", text)
		}
		quantity, rest = readQuantity(rest)
		if strings.TrimSpace(rest) != "" {
			return Amount{}, fmt.Errorf("unexpected text after amount: %q", strings.TrimSpace(rest))
		}
	}

	thousands := strings.Contains(quantity, ",")
	q, err := decimal.NewFromString(strings.ReplaceAll(quantity, ",", ""))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	if negative {
		q = q.Neg()
	}

	var precision int32
	if i := strings.IndexByte(quantity, '.'); i >= 0 {
		precision = int32(len(quantity) - i - 1)
	}

	if symbol == "" {
		return Amount{Quantity: q}, nil
	}

	c := p.FindOrCreate(symbol)
	p.learn(c, prefix, separated, thousands, precision)
	return Amount{Quantity: q, Commodity: c}, nil
}

func startsQuantity(s string) bool {
	return s != "" && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}

func readQuantity(s string) (string, string) {
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.' || s[i] == ',') {
		i++
	}
	return s[:i], s[i:]
}

func readSymbol(s string) (string, string, error) {
	if strings.HasPrefix(s, `"`) {
		end := strings.IndexByte(s[1:], '"')
		if end < 0 {
			return "", "", fmt.Errorf("quoted commodity symbol lacks closing quote")
		}
		return s[1 : end+1], s[end+2:], nil
	}
	i := 0
	for i < len(s) {
		r := rune(s[i])
		if r < 0x80 && (isInvalidSymbolRune(r) || unicode.IsSpace(r)) {
			break
		}
		i++
	}
	if i == 0 {
		return "", "", fmt.Errorf("expected commodity symbol at %q", s)
	}
	return s[:i], s[i:], nil
}

// Symbol returns the commodity symbol, or "" for plain numbers.
func (a Amount) Symbol() string {
	if a.Commodity == nil {
		return ""
	}
	return a.Commodity.Symbol
}

// HasCommodity reports whether the amount is commoditized.
func (a Amount) HasCommodity() bool {
	return a.Commodity != nil
}

// IsZero reports whether the quantity is zero.
func (a Amount) IsZero() bool {
	return a.Quantity.IsZero()
}

// Sign returns -1, 0 or 1.
func (a Amount) Sign() int {
	return a.Quantity.Sign()
}

// Negate returns the amount with its sign flipped.
func (a Amount) Negate() Amount {
	return Amount{Quantity: a.Quantity.Neg(), Commodity: a.Commodity}
}

// Abs returns the absolute amount.
func (a Amount) Abs() Amount {
	return Amount{Quantity: a.Quantity.Abs(), Commodity: a.Commodity}
}

func (a Amount) compatible(b Amount) bool {
	return a.Commodity == nil || b.Commodity == nil || a.Commodity.Symbol == b.Commodity.Symbol
}

func (a Amount) commodityOf(b Amount) *Commodity {
	if a.Commodity != nil {
		return a.Commodity
	}
	return b.Commodity
}

// Add sums two amounts of the same commodity.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.compatible(b) {
		return Amount{}, fmt.Errorf("adding amounts with different commodities: '%s' != '%s'", a.Symbol(), b.Symbol())
	}
	return Amount{Quantity: a.Quantity.Add(b.Quantity), Commodity: a.commodityOf(b)}, nil
}

// Sub subtracts two amounts of the same commodity.
func (a Amount) Sub(b Amount) (Amount, error) {
	return a.Add(b.Negate())
}

// Mul multiplies an amount by another; at most one may carry a commodity.
func (a Amount) Mul(b Amount) Amount {
	return Amount{Quantity: a.Quantity.Mul(b.Quantity), Commodity: a.commodityOf(b)}
}

// Div divides an amount by another.
func (a Amount) Div(b Amount) (Amount, error) {
	if b.Quantity.IsZero() {
		return Amount{}, fmt.Errorf("divide by zero")
	}
	return Amount{Quantity: a.Quantity.Div(b.Quantity), Commodity: a.commodityOf(b)}, nil
}

// Compare orders two amounts of the same commodity.
func (a Amount) Compare(b Amount) (int, error) {
	if !a.compatible(b) {
		return 0, fmt.Errorf("cannot compare amounts with different commodities: '%s' and '%s'", a.Symbol(), b.Symbol())
	}
	return a.Quantity.Cmp(b.Quantity), nil
}

// Equal reports whether both amounts have the same commodity and quantity.
func (a Amount) Equal(b Amount) bool {
	return a.Symbol() == b.Symbol() && a.Quantity.Equal(b.Quantity)
}

// Precision returns the display precision of the amount.
func (a Amount) Precision() int32 {
	if a.Commodity == nil {
		return max(-a.Quantity.Exponent(), 0)
	}
	return a.Commodity.Precision
}

// Rounded returns the amount rounded to its display precision.
func (a Amount) Rounded() Amount {
	return Amount{Quantity: a.Quantity.Round(a.Precision()), Commodity: a.Commodity}
}

// RoundTo returns the amount rounded to the given number of places.
func (a Amount) RoundTo(places int32) Amount {
	return Amount{Quantity: a.Quantity.Round(places), Commodity: a.Commodity}
}

// Number strips the commodity.
func (a Amount) Number() Amount {
	return Amount{Quantity: a.Quantity}
}

// String formats the amount in its commodity's learned style.
func (a Amount) String() string {
	q := a.Quantity.StringFixed(a.Precision())
	if a.Commodity != nil && a.Commodity.ThousandsMarks {
		q = insertThousands(q)
	}
	if a.Commodity == nil {
		return q
	}

	sym := a.Commodity.QualifiedSymbol()
	sep := ""
	if a.Commodity.Separated {
		sep = " "
	}
	if a.Commodity.Prefix {
		return sym + sep + q
	}
	return q + sep + sym
}

func insertThousands(q string) string {
	sign := ""
	if strings.HasPrefix(q, "-") {
		sign, q = "-", q[1:]
	}
	intPart, frac := q, ""
	if i := strings.IndexByte(q, '.'); i >= 0 {
		intPart, frac = q[:i], q[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

func sortCommodities(cs []*Commodity) {
	slices.SortFunc(cs, func(a, b *Commodity) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
}
