package ext

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/expr"
)

type stubProvider struct {
	ready   bool
	globals map[string]*expr.Op
}

func (s *stubProvider) Initialize() error {
	s.ready = true
	return nil
}

func (s *stubProvider) IsInitialized() bool            { return s.ready }
func (s *stubProvider) DefineGlobal(string, any) error { return nil }
func (s *stubProvider) Eval(string, EvalMode) error    { return nil }
func (s *stubProvider) ImportOption(string) error      { return nil }
func (s *stubProvider) Lookup(_ expr.SymbolKind, name string) *expr.Op {
	return s.globals[name]
}

func TestSelector(t *testing.T) {
	s := NewSelector()
	factory := func() (Provider, error) { return &stubProvider{}, nil }

	assert.NoError(t, s.AddProvider("JS", factory))
	assert.NoError(t, s.AddProvider("python", factory))
	assert.EqualError(t, s.AddProvider("js", factory), "Provider 'js' already exists")
	assert.EqualError(t, s.AddProvider("  ", factory), "Provider name cannot be empty")
	assert.Equal(t, []string{"js", "python"}, s.Names())

	p, err := s.GetProvider("Js")
	assert.NoError(t, err)
	assert.False(t, p.IsInitialized())

	_, err = s.GetProvider("ruby")
	assert.EqualError(t, err, "No extension provider with name 'ruby'")
}

func TestExtendedScope(t *testing.T) {
	parent := expr.NewSymbolScope(nil)
	local := expr.WrapValue(expr.IntValue(1))
	parent.Define(expr.Function, "local", local)

	remote := expr.WrapValue(expr.IntValue(2))
	provider := &stubProvider{globals: map[string]*expr.Op{"remote": remote, "local": remote}}
	scope := NewExtendedScope(parent, provider)

	assert.Equal(t, local, scope.Lookup(expr.Function, "local"))
	assert.Zero(t, scope.Lookup(expr.Function, "remote"))

	assert.NoError(t, provider.Initialize())
	assert.Equal(t, remote, scope.Lookup(expr.Function, "remote"))
	assert.Zero(t, scope.Lookup(expr.Function, "missing"))

	assert.Zero(t, NewExtendedScope(parent, nil).Lookup(expr.Function, "remote"))
}
