package amount

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Balance holds amounts of several commodities at once.
type Balance struct {
	amounts map[string]Amount
}

// NewBalance creates a balance holding the given amounts.
func NewBalance(amounts ...Amount) *Balance {
	b := &Balance{amounts: make(map[string]Amount)}
	for _, a := range amounts {
		b.Add(a)
	}
	return b
}

// Add accumulates an amount into the balance. Zero results are dropped.
func (b *Balance) Add(a Amount) {
	key := a.Symbol()
	cur, ok := b.amounts[key]
	if !ok {
		if !a.IsZero() {
			b.amounts[key] = a
		}
		return
	}
	sum := Amount{Quantity: cur.Quantity.Add(a.Quantity), Commodity: cur.commodityOf(a)}
	if sum.IsZero() {
		delete(b.amounts, key)
		return
	}
	b.amounts[key] = sum
}

// AddBalance accumulates another balance.
func (b *Balance) AddBalance(o *Balance) {
	if o == nil {
		return
	}
	for _, a := range o.amounts {
		b.Add(a)
	}
}

// Negate returns a new balance with every amount negated.
func (b *Balance) Negate() *Balance {
	n := NewBalance()
	for k, a := range b.amounts {
		n.amounts[k] = a.Negate()
	}
	return n
}

// Clone returns an independent copy.
func (b *Balance) Clone() *Balance {
	n := NewBalance()
	for k, a := range b.amounts {
		n.amounts[k] = a
	}
	return n
}

// IsZero reports whether the balance holds nothing.
func (b *Balance) IsZero() bool {
	return b == nil || len(b.amounts) == 0
}

// Len returns the number of commodities held.
func (b *Balance) Len() int {
	if b == nil {
		return 0
	}
	return len(b.amounts)
}

// Single returns the only amount when the balance has exactly one commodity.
func (b *Balance) Single() (Amount, bool) {
	if b.Len() != 1 {
		return Amount{}, false
	}
	for _, a := range b.amounts {
		return a, true
	}
	return Amount{}, false
}

// Amounts returns the held amounts ordered by commodity symbol.
func (b *Balance) Amounts() []Amount {
	if b == nil {
		return nil
	}
	result := make([]Amount, 0, len(b.amounts))
	for _, a := range b.amounts {
		result = append(result, a)
	}
	slices.SortFunc(result, func(x, y Amount) int {
		return strings.Compare(x.Symbol(), y.Symbol())
	})
	return result
}

// Rounded rounds every amount to its display precision, dropping amounts
// that become zero.
func (b *Balance) Rounded() *Balance {
	n := NewBalance()
	for _, a := range b.Amounts() {
		n.Add(a.Rounded())
	}
	return n
}

// Lines formats each amount separately.
func (b *Balance) Lines() []string {
	amounts := b.Amounts()
	if len(amounts) == 0 {
		return []string{"0"}
	}
	lines := make([]string, len(amounts))
	for i, a := range amounts {
		lines[i] = a.String()
	}
	return lines
}

func (b *Balance) String() string {
	return strings.Join(b.Lines(), "\n")
}
