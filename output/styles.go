// Package output styles terminal text: status lines for the command line
// and the named colours report formats apply through ansify_if.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles renders styled strings for one destination.
type Styles struct {
	output *termenv.Output
}

// NewStyles detects the colour profile of w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w)}
}

// NewANSIStyles always emits basic ANSI escapes, whatever w is. Reports use
// it when colour was requested explicitly.
func NewANSIStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w, termenv.WithProfile(termenv.ANSI))}
}

// NewPlainStyles never emits escapes.
func NewPlainStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
}

var colorCodes = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
}

// ColorNames lists every name Colorize understands.
func ColorNames() []string {
	return []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white", "bold", "underline", "blink"}
}

// Colorize applies a named colour or attribute. Unknown names and the
// empty name leave text unchanged.
func (s *Styles) Colorize(text, name string) string {
	if code, ok := colorCodes[name]; ok {
		return s.output.String(text).Foreground(s.output.Color(code)).String()
	}
	switch name {
	case "bold":
		return s.output.String(text).Bold().String()
	case "underline":
		return s.output.String(text).Underline().String()
	case "blink":
		return s.output.String(text).Blink().String()
	}
	return text
}

// Success is green and bold.
func (s *Styles) Success(text string) string {
	return s.output.String(text).Foreground(s.output.Color("2")).Bold().String()
}

// Error is red and bold.
func (s *Styles) Error(text string) string {
	return s.output.String(text).Foreground(s.output.Color("1")).Bold().String()
}

// FilePath is cyan.
func (s *Styles) FilePath(text string) string {
	return s.Colorize(text, "cyan")
}

// Account is blue, as in balance reports.
func (s *Styles) Account(text string) string {
	return s.Colorize(text, "blue")
}

// Amount colours negative amounts red.
func (s *Styles) Amount(text string, negative bool) string {
	if negative {
		return s.Colorize(text, "red")
	}
	return text
}

func (s *Styles) Keyword(text string) string {
	return s.Colorize(text, "bold")
}

func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Warning is yellow and bold.
func (s *Styles) Warning(text string) string {
	return s.output.String(text).Foreground(s.output.Color("3")).Bold().String()
}

// Timing dims a duration unless the phase was slow, which is red.
func (s *Styles) Timing(text string, slow bool) string {
	if slow {
		return s.Colorize(text, "red")
	}
	return s.Dim(text)
}

// Output returns the underlying termenv output.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
