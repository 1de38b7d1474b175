package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/errors"
)

const shop = `2024/01/01 Shop
    Expenses:Food    $10
    Assets:Checking  $-9

2024/01/02 Shop
    Expenses:Food    $5
    Assets:Checking
`

func TestErrorRendererParseError(t *testing.T) {
	renderer := NewErrorRenderer(map[string][]byte{"main.ledger": []byte(shop)})
	err := &errors.ParseError{Filename: "main.ledger", Line: 3, Column: 22, Message: "Transaction does not balance"}

	output := renderer.Render(err)
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	assert.Equal(t, []string{
		"main.ledger:3: Transaction does not balance",
		"",
		"    1 | 2024/01/01 Shop",
		"    2 |     Expenses:Food    $10",
		"    3 |     Assets:Checking  $-9",
		"        " + strings.Repeat(" ", 21) + "^",
		"    4 | ",
	}, lines)
}

func TestErrorRendererBounds(t *testing.T) {
	renderer := NewErrorRenderer(map[string][]byte{"main.ledger": []byte(shop)})

	t.Run("FirstLine", func(t *testing.T) {
		output := renderer.Render(errors.NewParseError("main.ledger", 1, "bad date"))
		assert.Contains(t, output, "    1 | 2024/01/01 Shop")
		assert.NotContains(t, output, "^")
	})

	t.Run("LastLine", func(t *testing.T) {
		output := renderer.Render(errors.NewParseError("main.ledger", 8, "unexpected end"))
		assert.Contains(t, output, "    7 |     Assets:Checking")
	})
}

func TestErrorRendererWithoutSource(t *testing.T) {
	renderer := NewErrorRenderer(nil)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "MissingFile",
			err:  errors.NewParseError("/nonexistent/main.ledger", 6, "expected amount"),
			want: "/nonexistent/main.ledger:6: expected amount",
		},
		{
			name: "NoPosition",
			err:  errors.NewLogicError("account has no parent"),
			want: "account has no parent",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, renderer.Render(test.err))
		})
	}
}

func TestErrorRendererContext(t *testing.T) {
	err := errors.AddContext(errors.NewLogicError("cannot add an amount to a string"), "While calculating posting:\n  Expenses:Food $10")
	err = errors.AddContext(err, "While handling transaction from \"main.ledger\", line 1:")

	output := NewErrorRenderer(nil).Render(err)
	assert.Equal(t, "cannot add an amount to a string\n\n"+
		"   While handling transaction from \"main.ledger\", line 1:\n"+
		"   While calculating posting:\n"+
		"     Expenses:Food $10\n", output)
}

func TestErrorRendererParseErrors(t *testing.T) {
	renderer := NewErrorRenderer(map[string][]byte{"main.ledger": []byte(shop)})
	err := &errors.ParseErrors{Errors: []error{
		errors.NewParseError("main.ledger", 1, "first"),
		errors.NewParseError("main.ledger", 5, "second"),
	}}

	output := renderer.Render(err)
	assert.Contains(t, output, "main.ledger:1: first")
	assert.Contains(t, output, "main.ledger:5: second")
	assert.Contains(t, output, "    6 |     Expenses:Food    $5")
	assert.Equal(t, 2, Count(err))
	assert.Equal(t, 1, Count(fmt.Errorf("plain")))
}
