// Package ext defines the contract between the core and pluggable extension
// providers, such as the JavaScript provider in ext/js. The core never needs
// a provider to work: journals without "import" or "eval" directives read
// the same with or without one.
package ext

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/robinvdvleuten/ledger/expr"
)

// EvalMode selects how Eval treats its code.
type EvalMode uint8

const (
	// EvalExpr evaluates a single expression.
	EvalExpr EvalMode = iota
	// EvalMulti runs a block of statements.
	EvalMulti
)

func (m EvalMode) String() string {
	if m == EvalMulti {
		return "multi"
	}
	return "expr"
}

// Provider hosts a foreign runtime whose globals the expression evaluator can
// call.
type Provider interface {
	// Initialize prepares the runtime. It is safe to call more than once.
	Initialize() error
	IsInitialized() bool

	// DefineGlobal exposes a host value to the runtime.
	DefineGlobal(name string, value any) error

	// Eval runs code in the runtime's global scope.
	Eval(code string, mode EvalMode) error

	// ImportOption handles the arguments of an "import" directive.
	ImportOption(line string) error

	// Lookup returns a functor for a runtime global, or nil.
	Lookup(kind expr.SymbolKind, name string) *expr.Op
}

// Factory creates a provider.
type Factory func() (Provider, error)

// Selector is a registry of provider factories keyed by case-insensitive
// name.
type Selector struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewSelector creates an empty registry.
func NewSelector() *Selector {
	return &Selector{factories: make(map[string]Factory)}
}

// AddProvider registers a factory under name.
func (s *Selector) AddProvider(name string, factory Factory) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("Provider name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("Provider '%s' has no factory", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.factories[key]; ok {
		return fmt.Errorf("Provider '%s' already exists", name)
	}
	s.factories[key] = factory
	return nil
}

// GetProvider creates a provider by name.
func (s *Selector) GetProvider(name string) (Provider, error) {
	s.mu.RLock()
	factory, ok := s.factories[strings.ToLower(strings.TrimSpace(name))]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("No extension provider with name '%s'", name)
	}
	return factory()
}

// Names lists registered providers in sorted order.
func (s *Selector) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.factories))
	for name := range s.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtendedScope consults the provider once its parent scope misses.
type ExtendedScope struct {
	expr.ChildScope
	Provider Provider
}

// NewExtendedScope wraps parent. A nil provider makes it a plain child scope.
func NewExtendedScope(parent expr.Scope, provider Provider) *ExtendedScope {
	return &ExtendedScope{ChildScope: expr.ChildScope{Parent: parent}, Provider: provider}
}

func (s *ExtendedScope) Lookup(kind expr.SymbolKind, name string) *expr.Op {
	if def := s.ChildScope.Lookup(kind, name); def != nil {
		return def
	}
	if s.Provider == nil || !s.Provider.IsInitialized() {
		return nil
	}
	return s.Provider.Lookup(kind, name)
}

func (s *ExtendedScope) Description() string {
	return "extended"
}
