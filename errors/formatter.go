package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	sources map[string][]byte
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource registers the contents of a journal file so parse errors located
// in it are shown with the offending lines.
func WithSource(filename string, source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sources[filename] = source
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{sources: make(map[string][]byte)}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error. Aggregates are expanded, context lines are
// printed before the message.
func (tf *TextFormatter) Format(err error) string {
	var pe *ParseErrors
	if As(err, &pe) {
		return tf.FormatAll(pe.Errors)
	}

	var buf bytes.Buffer
	ctx := Context(err)
	for i := len(ctx) - 1; i >= 0; i-- {
		buf.WriteString(ctx[i])
		buf.WriteByte('\n')
	}

	var parseErr *ParseError
	if As(err, &parseErr) {
		if source, ok := tf.sources[parseErr.Filename]; ok && parseErr.Line > 0 {
			buf.WriteString(tf.formatWithSourceContext(parseErr, source))
			return buf.String()
		}
	}

	buf.WriteString("Error: ")
	buf.WriteString(err.Error())
	return buf.String()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))
		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}
	return buf.String()
}

// formatWithSourceContext shows the message followed by the source lines
// around the error, with a caret under the column when one is known.
func (tf *TextFormatter) formatWithSourceContext(e *ParseError, source []byte) string {
	var buf bytes.Buffer

	buf.WriteString("Error: ")
	buf.WriteString(e.Error())
	buf.WriteString("\n\n")

	lines := strings.Split(string(source), "\n")
	start := max(e.Line-3, 0)
	end := min(e.Line, len(lines)-1)

	for i := start; i <= end; i++ {
		buf.WriteString("   ")
		buf.WriteString(lines[i])
		buf.WriteByte('\n')

		if i == e.Line-1 && e.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", e.Column-1))
			buf.WriteString("^\n")
		}
	}
	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Position *PositionJSON `json:"position,omitempty"`
	Context  []string      `json:"context,omitempty"`
	Status   int           `json:"status,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		var pe *ParseErrors
		if As(err, &pe) {
			result = append(result, jf.FormatAllToSlice(pe.Errors)...)
			continue
		}
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    kindOf(err),
		Message: err.Error(),
		Context: Context(err),
	}

	var parseErr *ParseError
	if As(err, &parseErr) && parseErr.Line > 0 {
		errJSON.Position = &PositionJSON{
			Filename: parseErr.Filename,
			Line:     parseErr.Line,
			Column:   parseErr.Column,
		}
	}

	var countErr *CountError
	if As(err, &countErr) {
		errJSON.Status = countErr.Count
	}

	return errJSON
}

func kindOf(err error) string {
	var (
		parseErr   *ParseError
		logicErr   *LogicError
		runtimeErr *RuntimeError
		countErr   *CountError
	)
	switch {
	case As(err, &parseErr):
		return "parse_error"
	case As(err, &logicErr):
		return "logic_error"
	case As(err, &runtimeErr):
		return "runtime_error"
	case As(err, &countErr):
		return "count_error"
	default:
		return fmt.Sprintf("%T", err)
	}
}
