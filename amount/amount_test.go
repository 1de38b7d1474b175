package amount

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		symbol string
		qty    string
		want   string
	}{
		{name: "prefix dollar", input: "$100.00", symbol: "$", qty: "100", want: "$100.00"},
		{name: "prefix negative after symbol", input: "$-12.50", symbol: "$", qty: "-12.5", want: "$-12.50"},
		{name: "negative before symbol", input: "-$7", symbol: "$", qty: "-7", want: "$-7"},
		{name: "suffix separated", input: "10 EUR", symbol: "EUR", qty: "10", want: "10 EUR"},
		{name: "quoted symbol", input: `5 "ACME X"`, symbol: "ACME X", qty: "5", want: `5 "ACME X"`},
		{name: "plain number", input: "42", symbol: "", qty: "42", want: "42"},
		{name: "thousands marks", input: "$1,234.5", symbol: "$", qty: "1234.5", want: "$1,234.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool()
			a, err := pool.Parse(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.symbol, a.Symbol())
			assert.True(t, a.Quantity.Equal(decimal.RequireFromString(tt.qty)))
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestParseAmountErrors(t *testing.T) {
	pool := NewPool()
	for _, input := range []string{"", "$", `10 "ACME`, "10 USD extra"} {
		t.Run(input, func(t *testing.T) {
			_, err := pool.Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestPoolLearnsPrecision(t *testing.T) {
	pool := NewPool()
	_, err := pool.Parse("$10")
	assert.NoError(t, err)
	_, err = pool.Parse("$3.125")
	assert.NoError(t, err)

	a, err := pool.Parse("$1")
	assert.NoError(t, err)
	assert.Equal(t, "$1.000", a.String())
	assert.Equal(t, int32(3), pool.Find("$").Precision)
}

func TestAmountArithmetic(t *testing.T) {
	pool := NewPool()
	usd, _ := pool.Parse("$10.00")
	eur, _ := pool.Parse("5 EUR")

	sum, err := usd.Add(usd)
	assert.NoError(t, err)
	assert.Equal(t, "$20.00", sum.String())

	_, err = usd.Add(eur)
	assert.EqualError(t, err, "adding amounts with different commodities: '$' != 'EUR'")

	_, err = usd.Div(FromInt(0))
	assert.EqualError(t, err, "divide by zero")

	assert.Equal(t, "$-10.00", usd.Negate().String())
	assert.Equal(t, "$30.00", usd.Mul(FromInt(3)).String())
}

func TestBalance(t *testing.T) {
	pool := NewPool()
	usd, _ := pool.Parse("$10.00")
	eur, _ := pool.Parse("5 EUR")

	b := NewBalance(usd, eur, usd)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, "$20.00\n5 EUR", b.String())

	b.Add(eur.Negate())
	single, ok := b.Single()
	assert.True(t, ok)
	assert.Equal(t, "$20.00", single.String())

	neg := b.Negate()
	neg.AddBalance(b)
	assert.True(t, neg.IsZero())
	assert.Equal(t, []string{"0"}, neg.Lines())
}
