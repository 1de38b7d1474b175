package expr

import "strings"

// SymbolKind separates the namespaces a scope can hold.
type SymbolKind uint8

const (
	Unknown SymbolKind = iota
	Function
	Option
	Precommand
	Command
	Directive
	Format
)

// Scope resolves names to expression nodes. A miss returns nil; callers
// decide whether that is an error.
type Scope interface {
	Define(kind SymbolKind, name string, def *Op)
	Lookup(kind SymbolKind, name string) *Op
	Description() string
}

// Parented is implemented by scopes that delegate to a parent.
type Parented interface {
	ParentScope() Scope
}

// EmptyScope never resolves anything.
type EmptyScope struct{}

func (EmptyScope) Define(SymbolKind, string, *Op) {}
func (EmptyScope) Lookup(SymbolKind, string) *Op  { return nil }
func (EmptyScope) Description() string            { return "<empty>" }

// ChildScope delegates every lookup and definition to its parent.
type ChildScope struct {
	Parent Scope
}

// NewChildScope creates a scope delegating to parent.
func NewChildScope(parent Scope) *ChildScope {
	return &ChildScope{Parent: parent}
}

func (s *ChildScope) Define(kind SymbolKind, name string, def *Op) {
	if s.Parent != nil {
		s.Parent.Define(kind, name, def)
	}
}

func (s *ChildScope) Lookup(kind SymbolKind, name string) *Op {
	if s.Parent != nil {
		return s.Parent.Lookup(kind, name)
	}
	return nil
}

func (s *ChildScope) Description() string {
	if s.Parent != nil {
		return s.Parent.Description()
	}
	return "<child>"
}

func (s *ChildScope) ParentScope() Scope { return s.Parent }

type symbolKey struct {
	kind SymbolKind
	name string
}

// SymbolScope holds its own symbol table and falls back to its parent.
type SymbolScope struct {
	ChildScope
	symbols map[symbolKey]*Op
}

// NewSymbolScope creates a symbol table on top of parent, which may be nil.
func NewSymbolScope(parent Scope) *SymbolScope {
	return &SymbolScope{ChildScope: ChildScope{Parent: parent}}
}

func (s *SymbolScope) Define(kind SymbolKind, name string, def *Op) {
	if s.symbols == nil {
		s.symbols = make(map[symbolKey]*Op)
	}
	s.symbols[symbolKey{kind, name}] = def
}

func (s *SymbolScope) Lookup(kind SymbolKind, name string) *Op {
	if def, ok := s.symbols[symbolKey{kind, name}]; ok {
		return def
	}
	return s.ChildScope.Lookup(kind, name)
}

func (s *SymbolScope) Description() string {
	if s.Parent != nil {
		return s.Parent.Description()
	}
	return "<symbols>"
}

// BindScope joins two independent scopes. Lookups try the grandchild first
// and then the parent; definitions go to both.
type BindScope struct {
	ChildScope
	Grandchild Scope
}

// NewBindScope binds grandchild in front of parent.
func NewBindScope(parent, grandchild Scope) *BindScope {
	return &BindScope{ChildScope: ChildScope{Parent: parent}, Grandchild: grandchild}
}

func (s *BindScope) Define(kind SymbolKind, name string, def *Op) {
	s.ChildScope.Define(kind, name, def)
	s.Grandchild.Define(kind, name, def)
}

func (s *BindScope) Lookup(kind SymbolKind, name string) *Op {
	if def := s.Grandchild.Lookup(kind, name); def != nil {
		return def
	}
	return s.ChildScope.Lookup(kind, name)
}

func (s *BindScope) Description() string {
	return s.Grandchild.Description()
}

// CallScope carries the evaluated arguments of a function call.
type CallScope struct {
	ChildScope
	args []Value
}

// NewCallScope creates a call frame on top of parent.
func NewCallScope(parent Scope, args ...Value) *CallScope {
	return &CallScope{ChildScope: ChildScope{Parent: parent}, args: args}
}

// Len returns the number of arguments.
func (c *CallScope) Len() int { return len(c.args) }

// Has reports whether argument i was supplied and is not void.
func (c *CallScope) Has(i int) bool {
	return i < len(c.args) && !c.args[i].IsNull()
}

// Arg returns argument i, or void when absent.
func (c *CallScope) Arg(i int) Value {
	if i < len(c.args) {
		return c.args[i]
	}
	return Null
}

// Push appends an argument.
func (c *CallScope) Push(v Value) { c.args = append(c.args, v) }

// Args returns all arguments as a sequence.
func (c *CallScope) Args() Value {
	return SequenceValue(c.args...)
}

// JoinArgs renders every argument as text separated by single spaces.
func (c *CallScope) JoinArgs() string {
	parts := make([]string, 0, len(c.args))
	for _, a := range c.args {
		for _, item := range a.AsSequence() {
			parts = append(parts, item.AsString())
		}
	}
	return strings.Join(parts, " ")
}

// FindScope returns the nearest scope of type T reachable from s, looking
// at bound grandchildren before parents.
func FindScope[T any](s Scope) (T, bool) {
	var zero T
	for s != nil {
		if t, ok := s.(T); ok {
			return t, true
		}
		if b, ok := s.(*BindScope); ok {
			if t, ok := FindScope[T](b.Grandchild); ok {
				return t, true
			}
		}
		p, ok := s.(Parented)
		if !ok {
			return zero, false
		}
		s = p.ParentScope()
	}
	return zero, false
}
