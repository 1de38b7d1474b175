// Package report turns a journal into formatted output. A Report carries the
// report options and the functions format strings call, builds handler
// chains from the options, and drives postings or accounts through them.
package report

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/filters"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/output"
)

// Report is the scope report expressions are evaluated in. Its parent is
// usually the session scope holding journal "define"s.
type Report struct {
	Journal *journal.Journal
	Options *Options
	Out     io.Writer

	ctx       context.Context
	parent    expr.Scope
	locals    *expr.SymbolScope
	functions map[string]*expr.Op
	ansi      *output.Styles

	now       func() time.Time
	getenv    func(string) string
	termWidth func() int
}

// ReportOption configures a Report.
type ReportOption func(*Report)

// WithOutput sets where handlers write. The default is os.Stdout.
func WithOutput(w io.Writer) ReportOption {
	return func(r *Report) {
		r.Out = w
	}
}

// WithScope sets the parent scope.
func WithScope(parent expr.Scope) ReportOption {
	return func(r *Report) {
		r.parent = parent
	}
}

// WithClock sets the source of "today".
func WithClock(now func() time.Time) ReportOption {
	return func(r *Report) {
		r.now = now
	}
}

// WithEnv sets the environment lookup used for COLUMNS.
func WithEnv(getenv func(string) string) ReportOption {
	return func(r *Report) {
		r.getenv = getenv
	}
}

// WithTermWidth sets the terminal width probe; it returns 0 when unknown.
func WithTermWidth(width func() int) ReportOption {
	return func(r *Report) {
		r.termWidth = width
	}
}

// WithOptions replaces the default option set.
func WithOptions(opts *Options) ReportOption {
	return func(r *Report) {
		r.Options = opts
	}
}

// New creates a report over j.
func New(ctx context.Context, j *journal.Journal, opts ...ReportOption) *Report {
	r := &Report{
		Journal:   j,
		Options:   NewOptions(),
		Out:       os.Stdout,
		ctx:       ctx,
		parent:    expr.EmptyScope{},
		now:       time.Now,
		getenv:    os.Getenv,
		termWidth: func() int { return 0 },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.locals = expr.NewSymbolScope(expr.EmptyScope{})
	r.ansi = output.NewANSIStyles(r.Out)
	r.registerFunctions()
	return r
}

// Context returns the context the report runs under.
func (r *Report) Context() context.Context {
	return r.ctx
}

// Now returns the report clock's current time.
func (r *Report) Now() time.Time {
	return r.now()
}

// Getenv reads the report's environment.
func (r *Report) Getenv(key string) string {
	return r.getenv(key)
}

// TermWidth probes the terminal width, 0 when unknown.
func (r *Report) TermWidth() int {
	return r.termWidth()
}

func (r *Report) Define(kind expr.SymbolKind, name string, def *expr.Op) {
	r.locals.Define(kind, name, def)
}

func (r *Report) Lookup(kind expr.SymbolKind, name string) *expr.Op {
	if def := r.locals.Lookup(kind, name); def != nil {
		return def
	}
	if kind == expr.Function {
		if def, ok := r.functions[name]; ok {
			return def
		}
		if opt, ok := r.Options.Get(name); ok {
			return expr.WrapValue(opt.value())
		}
		for _, color := range output.ColorNames() {
			if color == name {
				return expr.WrapValue(expr.StringValue(name))
			}
		}
		if name == "should_bold" {
			return expr.WrapValue(expr.BoolValue(false))
		}
	}
	return r.parent.Lookup(kind, name)
}

func (r *Report) Description() string { return "report" }

func (r *Report) ParentScope() expr.Scope { return r.parent }

// Parse compiles expression text against the journal's commodity pool.
func (r *Report) Parse(text string) (*expr.Expr, error) {
	return expr.Parse(text, expr.WithPool(r.Journal.Pool))
}

// shouldBold evaluates --bold-if in scope.
func (r *Report) shouldBold(scope expr.Scope) expr.Value {
	opt := r.Options.MustGet("bold_if")
	if !opt.Handled {
		return expr.BoolValue(false)
	}
	e, err := r.Parse(opt.Value)
	if err != nil {
		return expr.BoolValue(false)
	}
	v, err := e.Calc(scope)
	if err != nil {
		return expr.BoolValue(false)
	}
	return expr.BoolValue(v.Truthy())
}

// postPredicate compiles an option holding a predicate over postings.
func (r *Report) postPredicate(name string) (filters.Predicate, error) {
	e, err := r.Parse(r.Options.MustGet(name).Value)
	if err != nil {
		return nil, err
	}
	return func(post *journal.Post) (bool, error) {
		v, err := e.Calc(r.PostScope(post))
		if err != nil {
			return false, err
		}
		return v.Truthy(), nil
	}, nil
}

// postValue compiles an expression over postings.
func (r *Report) postValue(text string) (filters.ValueFunc, error) {
	e, err := r.Parse(text)
	if err != nil {
		return nil, err
	}
	return func(post *journal.Post) (expr.Value, error) {
		return e.Calc(r.PostScope(post))
	}, nil
}

// Budgeting reports whether --budget or --unbudgeted is on.
func (r *Report) Budgeting() bool {
	return r.Options.MustGet("budget").Handled || r.Options.MustGet("unbudgeted").Handled
}
