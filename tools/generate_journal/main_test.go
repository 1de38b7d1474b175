package main

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/textual"
)

func TestGenerateReadsBack(t *testing.T) {
	var buf bytes.Buffer
	st, err := generate(&buf, rand.New(rand.NewSource(1)), 64*1024)
	assert.NoError(t, err)
	assert.Equal(t, buf.Len(), st.Bytes)
	assert.True(t, st.Bytes >= 64*1024)

	j := journal.New(amount.NewPool())
	n, err := textual.NewReader().Read(context.Background(), j, nil, &buf, "large.ledger")
	assert.NoError(t, err)
	assert.Equal(t, st.Xacts, n)
	assert.Equal(t, 1, len(j.PeriodXacts))
}

func TestDollars(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "$12.34"},
		{-500, "$-5.00"},
		{0, "$0.00"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			assert.Equal(t, test.want, dollars(decimal.New(test.cents, -2)))
		})
	}
}
