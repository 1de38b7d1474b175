// Package errors defines the error taxonomy shared by the journal reader, the
// expression evaluator and the report pipeline, together with formatters that
// render those errors for the CLI, the HTTP server and tests.
//
// The taxonomy:
//   - ParseError: malformed journal input or expression text.
//   - LogicError: an internal invariant was violated.
//   - RuntimeError: an operation was interrupted (cancellation gate).
//   - CountError: controlled early exit carrying a process exit status.
//
// Any stage may attach positional context to an error with AddContext before
// returning it; context never replaces the original error.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ParseError reports malformed input at a position in a journal or expression.
type ParseError struct {
	Filename   string
	Line       int
	Column     int
	Message    string
	Underlying error
}

// NewParseError creates a parse error at the given location.
func NewParseError(filename string, line int, format string, args ...any) *ParseError {
	return &ParseError{
		Filename: filename,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *ParseError) Error() string {
	switch {
	case e.Filename != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// ParseErrors aggregates every parse error found while reading a journal.
type ParseErrors struct {
	Errors []error
}

func (e *ParseErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors found while parsing", len(e.Errors))
}

func (e *ParseErrors) Unwrap() []error {
	return e.Errors
}

// LogicError signals a violated internal invariant. It is always fatal to the
// current operation.
type LogicError struct {
	Message string
}

// NewLogicError creates a logic error with a formatted message.
func NewLogicError(format string, args ...any) *LogicError {
	return &LogicError{Message: fmt.Sprintf(format, args...)}
}

func (e *LogicError) Error() string {
	return e.Message
}

// RuntimeError aborts the current command or REPL line but not the process.
type RuntimeError struct {
	Message string
}

// NewRuntimeError creates a runtime error.
func NewRuntimeError(message string) *RuntimeError {
	return &RuntimeError{Message: message}
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// CountError requests a quick exit with the given status. It bypasses normal
// error reporting at the top level.
type CountError struct {
	Count   int
	Message string
}

// NewCountError creates a count error.
func NewCountError(count int, message string) *CountError {
	return &CountError{Count: count, Message: message}
}

func (e *CountError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Count)
	}
	return e.Message
}

// ExitCode returns the status to report to the operating system.
func (e *CountError) ExitCode() int {
	return e.Count
}

// As is a convenience re-export so callers importing this package under its
// own name do not also need the standard library package.
func As(err error, target any) bool {
	return stdErrors.As(err, target)
}

// Is mirrors the standard library helper.
func Is(err, target error) bool {
	return stdErrors.Is(err, target)
}

// New mirrors the standard library helper.
func New(text string) error {
	return stdErrors.New(text)
}

// Join mirrors the standard library helper.
func Join(errs ...error) error {
	return stdErrors.Join(errs...)
}
