package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/ledger/errors"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	// sources caches file contents by name; tests and stdin input seed it.
	sources map[string][]byte
}

// NewErrorRenderer creates a renderer. Sources not given are read from
// disk on demand.
func NewErrorRenderer(sources map[string][]byte) *ErrorRenderer {
	if sources == nil {
		sources = make(map[string][]byte)
	}
	return &ErrorRenderer{sources: sources}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var parseErrs *errors.ParseErrors
	if errors.As(err, &parseErrs) {
		return r.RenderAll(parseErrs.Errors)
	}

	var parseErr *errors.ParseError
	if errors.As(err, &parseErr) && parseErr.Line > 0 {
		if source := r.source(parseErr.Filename); source != nil {
			return r.renderWithSourceContext(parseErr, source)
		}
	}

	lines := errors.Context(err)
	if len(lines) == 0 {
		return errorStyle.Render(err.Error())
	}
	var buf strings.Builder
	buf.WriteString(errorStyle.Render(err.Error()))
	buf.WriteString("\n\n")
	for i := len(lines) - 1; i >= 0; i-- {
		for _, line := range strings.Split(lines[i], "\n") {
			buf.WriteString("   ")
			buf.WriteString(errContextStyle.Render(line))
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	rendered := make([]string, len(errs))
	for i, err := range errs {
		rendered[i] = strings.TrimRight(r.Render(err), "\n")
	}
	return strings.Join(rendered, "\n\n")
}

// Count is the number of errors err stands for.
func Count(err error) int {
	var parseErrs *errors.ParseErrors
	if errors.As(err, &parseErrs) {
		return len(parseErrs.Errors)
	}
	return 1
}

func (r *ErrorRenderer) source(name string) []byte {
	if name == "" {
		return nil
	}
	if source, ok := r.sources[name]; ok {
		return source
	}
	source, err := os.ReadFile(name)
	if err != nil {
		source = nil
	}
	r.sources[name] = source
	return source
}

// renderWithSourceContext shows up to two lines before the failing one and
// one after. A caret marks the column when it is known.
func (r *ErrorRenderer) renderWithSourceContext(e *errors.ParseError, source []byte) string {
	var buf strings.Builder
	buf.WriteString(errorStyle.Render(e.Error()))
	buf.WriteString("\n\n")

	lines := strings.Split(string(source), "\n")
	start := max(e.Line-3, 0)
	end := min(e.Line, len(lines)-1)

	for i := start; i <= end; i++ {
		fmt.Fprintf(&buf, "%5d | %s\n", i+1, errContextStyle.Render(lines[i]))
		if i == e.Line-1 && e.Column > 0 {
			buf.WriteString("        ")
			buf.WriteString(strings.Repeat(" ", e.Column-1))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}
