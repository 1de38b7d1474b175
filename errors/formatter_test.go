package errors

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{
			name: "with filename",
			err:  NewParseError("main.ledger", 12, "Unexpected %s", "token"),
			want: "main.ledger:12: Unexpected token",
		},
		{
			name: "line only",
			err:  &ParseError{Line: 3, Message: "bad"},
			want: "line 3: bad",
		},
		{
			name: "no position",
			err:  &ParseError{Message: "bad"},
			want: "bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAddContextAccumulates(t *testing.T) {
	base := NewLogicError("Failed to find period for periodic transaction")

	err := AddContext(base, "While handling posting")
	err = AddContext(err, "While running report")

	assert.Equal(t, []string{"While handling posting", "While running report"}, Context(err))

	var logicErr *LogicError
	assert.True(t, As(err, &logicErr))
	assert.Equal(t, "While running report\nWhile handling posting\nError: Failed to find period for periodic transaction", Describe(err))
}

func TestAddContextNil(t *testing.T) {
	assert.NoError(t, AddContext(nil, "ignored"))
}

func TestTextFormatterSourceContext(t *testing.T) {
	source := []byte("2024/01/01 Rent\n    Expenses:Rent  $100\n    Assets:Checking  $-90\n")
	tf := NewTextFormatter(WithSource("main.ledger", source))

	err := &ParseError{Filename: "main.ledger", Line: 2, Column: 5, Message: "Transaction does not balance"}
	out := tf.Format(err)

	assert.Contains(t, out, "Error: main.ledger:2: Transaction does not balance")
	assert.Contains(t, out, "   2024/01/01 Rent\n")
	assert.Contains(t, out, "       ^\n")
}

func TestTextFormatterExpandsAggregates(t *testing.T) {
	tf := NewTextFormatter()
	err := &ParseErrors{Errors: []error{
		NewParseError("a.ledger", 1, "first"),
		NewParseError("a.ledger", 9, "second"),
	}}

	assert.Equal(t, "Error: a.ledger:1: first\n\nError: a.ledger:9: second", tf.Format(err))
}

func TestJSONFormatter(t *testing.T) {
	jf := NewJSONFormatter()

	wrapped := AddContext(NewRuntimeError("Pipe terminated"), "While handling posting")
	var got ErrorJSON
	assert.NoError(t, json.Unmarshal([]byte(jf.Format(wrapped)), &got))
	assert.Equal(t, "runtime_error", got.Type)
	assert.Equal(t, []string{"While handling posting"}, got.Context)

	all := jf.FormatAllToSlice([]error{
		&ParseErrors{Errors: []error{NewParseError("x.ledger", 4, "oops")}},
		NewCountError(2, ""),
		fmt.Errorf("plain"),
	})
	assert.Equal(t, 3, len(all))
	assert.Equal(t, &PositionJSON{Filename: "x.ledger", Line: 4}, all[0].Position)
	assert.Equal(t, 2, all[1].Status)
	assert.Equal(t, "*errors.errorString", all[2].Type)
}
