// Package js provides a JavaScript extension runtime backed by otto. Globals
// defined by "eval" blocks or imported script files become callable from
// value expressions.
package js

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robertkrimen/otto"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/ext"
)

// Name is the key the provider registers under.
const Name = "js"

// Provider runs scripts in a single otto VM. Calls are serialized.
type Provider struct {
	mu sync.Mutex
	vm *otto.Otto
}

// New creates an uninitialized provider.
func New() *Provider {
	return &Provider{}
}

// Register adds the provider factory to s.
func Register(s *ext.Selector) error {
	return s.AddProvider(Name, func() (ext.Provider, error) { return New(), nil })
}

func (p *Provider) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vm != nil {
		return nil
	}
	vm := otto.New()
	if err := vm.Set("fmtdate", func(call otto.FunctionCall) otto.Value {
		ms, _ := call.Argument(0).ToInteger()
		v, _ := vm.ToValue(time.UnixMilli(ms).UTC().Format("2006/01/02"))
		return v
	}); err != nil {
		return errors.Wrap(err, "initialize")
	}
	p.vm = vm
	return nil
}

func (p *Provider) IsInitialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vm != nil
}

func (p *Provider) DefineGlobal(name string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vm == nil {
		return errors.New("JavaScript runtime is not initialized")
	}
	if v, ok := value.(expr.Value); ok {
		value = toJS(v)
	}
	return errors.Wrapf(p.vm.Set(name, value), "define %s", name)
}

func (p *Provider) Eval(code string, mode ext.EvalMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vm == nil {
		return errors.New("JavaScript runtime is not initialized")
	}
	if mode == ext.EvalExpr {
		code = "(" + code + ")"
	}
	_, err := p.vm.Run(code)
	return errors.Wrap(err, "eval")
}

// ImportOption runs the script file named by line.
func (p *Provider) ImportOption(line string) error {
	path := strings.TrimSpace(line)
	if path == "" {
		return errors.New("import requires a script file")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "import %s", path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vm == nil {
		return errors.New("JavaScript runtime is not initialized")
	}
	if _, err := p.vm.Run(string(src)); err != nil {
		return errors.Wrapf(err, "import %s", path)
	}
	return nil
}

// Lookup exposes a global: functions become functors, anything else a
// literal.
func (p *Provider) Lookup(kind expr.SymbolKind, name string) *expr.Op {
	if kind != expr.Function {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vm == nil {
		return nil
	}
	global, err := p.vm.Get(name)
	if err != nil || !global.IsDefined() {
		return nil
	}

	if !global.IsFunction() {
		v, err := fromJS(global)
		if err != nil {
			return nil
		}
		return expr.WrapValue(v)
	}

	return expr.WrapFunctor(func(call *expr.CallScope) (expr.Value, error) {
		args := make([]any, call.Len())
		for i := range args {
			args[i] = toJS(call.Arg(i))
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		res, err := global.Call(otto.UndefinedValue(), args...)
		if err != nil {
			return expr.Null, errors.Wrapf(err, "call %s", name)
		}
		return fromJS(res)
	})
}

func toJS(v expr.Value) any {
	switch v.Kind() {
	case expr.Void:
		return nil
	case expr.Boolean:
		return v.AsBool()
	case expr.Integer:
		n, _ := v.AsInt()
		return n
	case expr.AmountKind:
		a, _ := v.AsAmount()
		return a.Quantity.InexactFloat64()
	case expr.Date:
		t, _ := v.AsDate()
		return t.UnixMilli()
	case expr.Sequence:
		items := v.AsSequence()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toJS(item)
		}
		return out
	}
	return v.String()
}

func fromJS(v otto.Value) (expr.Value, error) {
	if v.IsUndefined() || v.IsNull() {
		return expr.Null, nil
	}
	exported, err := v.Export()
	if err != nil {
		return expr.Null, errors.Wrap(err, "export")
	}
	return fromGo(exported)
}

func fromGo(x any) (expr.Value, error) {
	switch x := x.(type) {
	case nil:
		return expr.Null, nil
	case bool:
		return expr.BoolValue(x), nil
	case string:
		return expr.StringValue(x), nil
	case int:
		return expr.IntValue(int64(x)), nil
	case int32:
		return expr.IntValue(int64(x)), nil
	case int64:
		return expr.IntValue(x), nil
	case uint32:
		return expr.IntValue(int64(x)), nil
	case float32:
		return fromFloat(float64(x)), nil
	case float64:
		return fromFloat(x), nil
	case []any:
		items := make([]expr.Value, len(x))
		for i, item := range x {
			v, err := fromGo(item)
			if err != nil {
				return expr.Null, err
			}
			items[i] = v
		}
		return expr.SequenceValue(items...), nil
	}
	return expr.Null, fmt.Errorf("Cannot convert JavaScript value of type %T", x)
}

func fromFloat(f float64) expr.Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return expr.IntValue(int64(f))
	}
	return expr.AmountValue(amount.New(decimal.NewFromFloat(f), nil))
}
