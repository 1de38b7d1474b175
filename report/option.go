package report

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/ledger/expr"
)

// Option is a named report setting. Handled records that the user (or a
// compiler such as select) switched it on; Source names who did.
type Option struct {
	Name    string
	Value   string
	Handled bool
	Source  string

	// Flag options take no argument.
	Flag bool
}

// On switches the option on from source.
func (o *Option) On(source, value string) {
	o.Handled = true
	o.Source = source
	o.Value = value
}

// Off resets the option.
func (o *Option) Off() {
	o.Handled = false
	o.Source = ""
	o.Value = ""
}

// Set stores a computed value without marking the option handled.
func (o *Option) Set(value string) {
	o.Value = value
}

// Str returns the value.
func (o *Option) Str() string {
	return o.Value
}

// Int parses the value.
func (o *Option) Int() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(o.Value))
	if err != nil {
		return 0, fmt.Errorf("Option --%s expects an integer, got '%s'", o.Name, o.Value)
	}
	return n, nil
}

// value is what expressions see: flags are booleans, other options their
// text or null while empty.
func (o *Option) value() expr.Value {
	if o.Flag {
		return expr.BoolValue(o.Handled)
	}
	if !o.Handled && o.Value == "" {
		return expr.Null
	}
	return expr.StringValue(o.Value)
}

var flagOptions = []string{
	"budget", "unbudgeted", "color", "flat", "raw", "empty", "wrap_values",
}

var valueOptions = []string{
	"limit", "display", "amount", "total", "group_by", "sort", "bold_if",
	"abbrev_len", "columns", "date_format", "depth",
	"date_width", "payee_width", "account_width", "amount_width", "total_width", "meta_width",
}

// Options holds every report option by name.
type Options struct {
	byName map[string]*Option
}

// NewOptions creates the option set with its defaults.
func NewOptions() *Options {
	o := &Options{byName: make(map[string]*Option)}
	for _, name := range flagOptions {
		o.byName[name] = &Option{Name: name, Flag: true}
	}
	for _, name := range valueOptions {
		o.byName[name] = &Option{Name: name}
	}
	o.byName["abbrev_len"].Set("2")
	return o
}

// Get returns the option called name. Dashes and underscores are
// interchangeable, so "--payee-width" finds payee_width.
func (o *Options) Get(name string) (*Option, bool) {
	opt, ok := o.byName[normalizeOption(name)]
	return opt, ok
}

// MustGet is Get for names known at compile time.
func (o *Options) MustGet(name string) *Option {
	opt, ok := o.Get(name)
	if !ok {
		panic("unknown report option " + name)
	}
	return opt
}

// Names lists the options in sorted order.
func (o *Options) Names() []string {
	names := make([]string, 0, len(o.byName))
	for name := range o.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone copies the option set.
func (o *Options) Clone() *Options {
	c := &Options{byName: make(map[string]*Option, len(o.byName))}
	for name, opt := range o.byName {
		cp := *opt
		c.byName[name] = &cp
	}
	return c
}

func normalizeOption(name string) string {
	return strings.ReplaceAll(strings.TrimLeft(name, "-"), "-", "_")
}

// optionsScope exposes the options as "options.NAME".
type optionsScope struct {
	opts *Options
}

func (s optionsScope) Define(expr.SymbolKind, string, *expr.Op) {}

func (s optionsScope) Lookup(kind expr.SymbolKind, name string) *expr.Op {
	if kind != expr.Function {
		return nil
	}
	if opt, ok := s.opts.Get(name); ok {
		return expr.WrapValue(opt.value())
	}
	return nil
}

func (s optionsScope) Description() string { return "options" }
