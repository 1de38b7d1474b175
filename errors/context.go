package errors

import "strings"

// ContextError decorates an error with descriptions of what was being
// processed when it occurred, outermost description last.
type ContextError struct {
	Err     error
	Context []string
}

func (e *ContextError) Error() string {
	return e.Err.Error()
}

func (e *ContextError) Unwrap() error {
	return e.Err
}

// AddContext attaches a description such as "While handling posting ..." to
// err. Repeated calls on the same chain accumulate descriptions. A nil error
// stays nil.
func AddContext(err error, description string) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*ContextError); ok {
		ce.Context = append(ce.Context, description)
		return ce
	}
	return &ContextError{Err: err, Context: []string{description}}
}

// Context returns the accumulated descriptions of err, innermost first.
func Context(err error) []string {
	var ce *ContextError
	if As(err, &ce) {
		return ce.Context
	}
	return nil
}

// Describe renders err the way the command line reports it: each context
// description on its own lines followed by "Error: message".
func Describe(err error) string {
	var buf strings.Builder
	ctx := Context(err)
	for i := len(ctx) - 1; i >= 0; i-- {
		buf.WriteString(ctx[i])
		buf.WriteByte('\n')
	}
	buf.WriteString("Error: ")
	buf.WriteString(err.Error())
	return buf.String()
}
