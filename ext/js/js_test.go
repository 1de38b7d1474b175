package js

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/ext"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/textual"
)

func TestRegister(t *testing.T) {
	s := ext.NewSelector()
	assert.NoError(t, Register(s))
	p, err := s.GetProvider("JS")
	assert.NoError(t, err)
	assert.NoError(t, p.Initialize())
	assert.True(t, p.IsInitialized())
}

func TestEvalAndCall(t *testing.T) {
	p := New()
	assert.False(t, p.IsInitialized())
	assert.Error(t, p.Eval("1", ext.EvalExpr))

	assert.NoError(t, p.Initialize())
	assert.NoError(t, p.Eval("function double(x) { return x * 2 }\nvar rate = 1.5", ext.EvalMulti))
	assert.NoError(t, p.DefineGlobal("owner", expr.StringValue("alice")))

	double := p.Lookup(expr.Function, "double")
	assert.NotZero(t, double)

	scope := expr.NewSymbolScope(nil)
	scope.Define(expr.Function, "double", double)
	scope.Define(expr.Function, "rate", p.Lookup(expr.Function, "rate"))
	scope.Define(expr.Function, "owner", p.Lookup(expr.Function, "owner"))

	tests := []struct {
		expr string
		want string
	}{
		{"double(21)", "42"},
		{"rate", "1.5"},
		{"owner", "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := expr.MustParse(tt.expr).Calc(scope)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}

	assert.Zero(t, p.Lookup(expr.Function, "missing"))
	assert.Zero(t, p.Lookup(expr.Option, "double"))
}

func TestEvalError(t *testing.T) {
	p := New()
	assert.NoError(t, p.Initialize())
	err := p.Eval("this is not javascript", ext.EvalMulti)
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "eval: "))
}

func TestJournalDirectives(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "helpers.js")
	assert.NoError(t, os.WriteFile(script, []byte("function tax(x) { return x / 10 }"), 0o600))

	p := New()
	j := journal.New(nil)
	text := "import " + script + `
eval var limit = 3;
    function over(n) { return n > limit }

assert tax(50) == 5
assert over(4)
`
	scope := ext.NewExtendedScope(expr.NewSymbolScope(nil), p)
	reader := textual.NewReader(textual.WithProvider(p), textual.WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	_, err := reader.Read(context.Background(), j, scope, strings.NewReader(text), "js.ledger")
	assert.NoError(t, err)
	assert.True(t, p.IsInitialized())
}
