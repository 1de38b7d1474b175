package expr

import (
	"fmt"
)

// Calc evaluates the node against scope.
func (o *Op) Calc(scope Scope) (Value, error) {
	if o == nil {
		return Null, nil
	}

	switch o.Kind {
	case OpValue:
		return o.value, nil

	case OpIdent:
		def := scope.Lookup(Function, o.ident)
		if def == nil {
			return Null, fmt.Errorf("Unknown identifier '%s'", o.ident)
		}
		if def.Kind == OpFunction {
			return def.Call(NewCallScope(scope))
		}
		return def.Calc(scope)

	case OpFunction:
		return o.Call(NewCallScope(scope))

	case OpScope:
		return o.Left.Calc(NewSymbolScope(scope))

	case OpNot:
		v, err := o.Left.Calc(scope)
		if err != nil {
			return Null, err
		}
		return BoolValue(!v.Truthy()), nil

	case OpNeg:
		v, err := o.Left.Calc(scope)
		if err != nil {
			return Null, err
		}
		return v.Negate()

	case OpAnd:
		l, err := o.Left.Calc(scope)
		if err != nil || !l.Truthy() {
			return l, err
		}
		return o.Right.Calc(scope)

	case OpOr:
		l, err := o.Left.Calc(scope)
		if err != nil || l.Truthy() {
			return l, err
		}
		return o.Right.Calc(scope)

	case OpQuery:
		cond, err := o.Left.Calc(scope)
		if err != nil {
			return Null, err
		}
		if o.Right == nil || o.Right.Kind != OpColon {
			return Null, fmt.Errorf("'?' without ':'")
		}
		if cond.Truthy() {
			return o.Right.Left.Calc(scope)
		}
		return o.Right.Right.Calc(scope)

	case OpColon:
		return Null, fmt.Errorf("':' without '?'")

	case OpCons:
		var items []Value
		for _, item := range SplitCons(o) {
			v, err := item.Calc(scope)
			if err != nil {
				return Null, err
			}
			items = append(items, v)
		}
		return SequenceValue(items...), nil

	case OpSeq:
		if _, err := o.Left.Calc(scope); err != nil {
			return Null, err
		}
		return o.Right.Calc(scope)

	case OpDefine:
		return o.define(scope)

	case OpLookup:
		return o.lookup(scope)

	case OpCall:
		return o.call(scope)

	case OpMatch:
		l, err := o.Left.Calc(scope)
		if err != nil {
			return Null, err
		}
		r, err := o.Right.Calc(scope)
		if err != nil {
			return Null, err
		}
		re, err := r.AsMask()
		if err != nil {
			return Null, fmt.Errorf("right side of =~ must be a mask: %w", err)
		}
		return BoolValue(re.MatchString(l.AsString())), nil
	}

	if o.Kind.IsBinary() {
		return o.binary(scope)
	}
	return Null, fmt.Errorf("cannot evaluate expression node %s", o.Kind)
}

func (o *Op) binary(scope Scope) (Value, error) {
	l, err := o.Left.Calc(scope)
	if err != nil {
		return Null, err
	}
	r, err := o.Right.Calc(scope)
	if err != nil {
		return Null, err
	}

	switch o.Kind {
	case OpAdd:
		return l.Add(r)
	case OpSub:
		return l.Sub(r)
	case OpMul:
		return l.Mul(r)
	case OpDiv:
		return l.Div(r)
	case OpEq:
		return BoolValue(l.Equal(r)), nil
	case OpNeq:
		return BoolValue(!l.Equal(r)), nil
	}

	c, err := l.Compare(r)
	if err != nil {
		return Null, err
	}
	switch o.Kind {
	case OpLt:
		return BoolValue(c < 0), nil
	case OpLte:
		return BoolValue(c <= 0), nil
	case OpGt:
		return BoolValue(c > 0), nil
	default:
		return BoolValue(c >= 0), nil
	}
}

// define handles both "name = expr" and "name(a, b) = expr". The latter
// defines a function whose parameters are bound in a fresh scope per call.
func (o *Op) define(scope Scope) (Value, error) {
	if o.Left.IsIdent() {
		scope.Define(Function, o.Left.ident, o.Right)
		return Null, nil
	}

	name := o.Left.Left.ident
	var params []string
	for _, p := range SplitCons(o.Left.Right) {
		if !p.IsIdent() {
			return Null, fmt.Errorf("parameters of '%s' must be identifiers", name)
		}
		params = append(params, p.ident)
	}

	body := o.Right
	scope.Define(Function, name, WrapFunctor(func(call *CallScope) (Value, error) {
		local := NewSymbolScope(call)
		for i, p := range params {
			local.Define(Function, p, NewValueOp(call.Arg(i)))
		}
		return body.Calc(local)
	}))
	return Null, nil
}

func (o *Op) lookup(scope Scope) (Value, error) {
	target, err := o.Left.Calc(scope)
	if err != nil {
		return Null, err
	}
	inner, err := target.AsScope()
	if err != nil {
		return Null, fmt.Errorf("left side of '.' is not a scope: %w", err)
	}
	return o.Right.Calc(inner)
}

func (o *Op) call(scope Scope) (Value, error) {
	fn, fnScope, err := o.resolveCallee(scope)
	if err != nil {
		return Null, err
	}

	call := NewCallScope(fnScope)
	for _, arg := range SplitCons(o.Right) {
		v, err := arg.Calc(scope)
		if err != nil {
			return Null, err
		}
		call.Push(v)
	}

	if fn.Kind == OpFunction {
		return fn.Call(call)
	}
	return fn.Calc(call)
}

func (o *Op) resolveCallee(scope Scope) (*Op, Scope, error) {
	switch {
	case o.Left.IsIdent():
		def := scope.Lookup(Function, o.Left.ident)
		if def == nil {
			return nil, nil, fmt.Errorf("Unknown identifier '%s'", o.Left.ident)
		}
		return def, scope, nil

	case o.Left.Kind == OpLookup && o.Left.Right.IsIdent():
		target, err := o.Left.Left.Calc(scope)
		if err != nil {
			return nil, nil, err
		}
		inner, err := target.AsScope()
		if err != nil {
			return nil, nil, fmt.Errorf("left side of '.' is not a scope: %w", err)
		}
		name := o.Left.Right.ident
		def := inner.Lookup(Function, name)
		if def == nil {
			return nil, nil, fmt.Errorf("Unknown identifier '%s'", name)
		}
		return def, inner, nil

	case o.Left.IsFunction():
		return o.Left, scope, nil
	}
	return nil, nil, fmt.Errorf("expression is not callable")
}
