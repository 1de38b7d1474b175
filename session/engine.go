package session

import (
	"bytes"
	"context"
	"strings"

	"github.com/robinvdvleuten/ledger/errors"
)

// Response is the outcome of one in-memory session.
type Response struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
	Status int    `json:"status"`
}

// OK reports whether the command succeeded.
func (r Response) OK() bool {
	return r.Status == 0
}

// Engine runs independent sessions that capture their output in memory.
// Every session works on a clone of the base context, so sessions may run
// concurrently.
type Engine struct {
	base  *Context
	files []string
}

// NewEngine creates an engine reading files, or the settings' files when
// none are given.
func NewEngine(base *Context, files ...string) *Engine {
	if len(files) == 0 {
		files = base.Settings.Files
	}
	return &Engine{base: base, files: files}
}

// Files returns the journals the engine reads.
func (e *Engine) Files() []string {
	return e.files
}

// NewSession reads the journal, from input when it is not empty and from
// the engine's files otherwise, then executes args.
func (e *Engine) NewSession(ctx context.Context, args []string, input string) Response {
	var out, errOut bytes.Buffer
	s := New(e.base.Clone(),
		WithFiles(e.files...),
		WithOutput(&out),
		WithErrorOutput(&errOut),
	)

	var err error
	if input != "" {
		_, err = s.ReadJournal(ctx, strings.NewReader(input), "input")
	} else {
		_, err = s.ReadJournalFiles(ctx)
	}
	if err != nil {
		s.ReportError(err)
		return Response{Output: out.String(), Error: errOut.String(), Status: 1}
	}

	status := s.ExecuteCommandWrapper(ctx, args)
	return Response{Output: out.String(), Error: errOut.String(), Status: status}
}

// Execute splits line into arguments and runs it in a new session.
func (e *Engine) Execute(ctx context.Context, line, input string) Response {
	args, err := SplitArguments(line)
	if err != nil {
		return Response{Error: errors.Describe(err) + "\n", Status: 1}
	}
	return e.NewSession(ctx, args, input)
}
