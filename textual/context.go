package textual

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// ParseContext is the state of one input source being read.
type ParseContext struct {
	Reader     *bufio.Reader
	Path       string
	CurrentDir string
	LineNum    int

	// Master is the context that included this one.
	Master *ParseContext

	Journal *journal.Journal
	Scope   expr.Scope
	Apply   *ApplyStack
	Year    int
	Errors  []error
	Count   int

	closer io.Closer
	line   string
	entry  int
}

// Line returns the most recently read line.
func (c *ParseContext) Line() string {
	return c.line
}

// ParseContextStack holds the nested input sources, innermost last.
type ParseContextStack struct {
	stack []*ParseContext
}

// Len returns the number of open contexts.
func (s *ParseContextStack) Len() int {
	return len(s.stack)
}

// Current returns the innermost context.
func (s *ParseContextStack) Current() (*ParseContext, error) {
	if len(s.stack) == 0 {
		return nil, errors.NewLogicError("Parse context stack is empty")
	}
	return s.stack[len(s.stack)-1], nil
}

// Push opens path and makes it the current context. Relative paths are
// resolved against the current context's directory, or the working
// directory when the stack is empty.
func (s *ParseContextStack) Push(path string) error {
	dir := ""
	if cur, err := s.Current(); err == nil {
		dir = cur.CurrentDir
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		dir = wd
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(dir, resolved)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return fmt.Errorf("Cannot read journal file \"%s\": %w", resolved, err)
	}

	s.push(f, f, resolved, filepath.Dir(resolved))
	return nil
}

// PushReader makes an already-open reader the current context. dir is used
// to resolve includes found in it.
func (s *ParseContextStack) PushReader(r io.Reader, name, dir string) {
	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}
	s.push(r, closer, name, dir)
}

func (s *ParseContextStack) push(r io.Reader, closer io.Closer, name, dir string) {
	ctx := &ParseContext{
		Reader:     bufio.NewReader(r),
		Path:       name,
		CurrentDir: dir,
		closer:     closer,
	}
	if master, err := s.Current(); err == nil {
		ctx.Master = master
		ctx.Journal = master.Journal
		ctx.Scope = master.Scope
		ctx.Year = master.Year
		ctx.Apply = NewApplyStack(master.Apply)
	} else {
		ctx.Apply = NewApplyStack(nil)
	}
	s.stack = append(s.stack, ctx)
}

// Pop closes the current context and releases its reader.
func (s *ParseContextStack) Pop() error {
	if len(s.stack) == 0 {
		return errors.NewLogicError("Unexpected pop of an empty parse context stack")
	}
	ctx := s.stack[len(s.stack)-1]
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]

	if ctx.closer != nil {
		if err := ctx.closer.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", ctx.Path, err)
		}
	}
	return nil
}

// readLine reads the next line without its terminator. It returns io.EOF
// once the source is exhausted.
func (c *ParseContext) readLine() (string, error) {
	line, err := c.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	c.LineNum++
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	c.line = line[:n]
	return c.line, nil
}

// peekIndented reports whether the next line starts with whitespace, which
// makes it part of the current entry.
func (c *ParseContext) peekIndented() bool {
	b, err := c.Reader.Peek(1)
	return err == nil && (b[0] == ' ' || b[0] == '\t')
}

type entryLine struct {
	num  int
	text string
}

// readEntry consumes the indented lines that follow an entry's first line.
// Whitespace-only lines are skipped.
func (c *ParseContext) readEntry() ([]entryLine, error) {
	var lines []entryLine
	for c.peekIndented() {
		line, err := c.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, entryLine{num: c.LineNum, text: line})
	}
	return lines, nil
}

// errorf reports a problem with the entry being parsed.
func (c *ParseContext) errorf(format string, args ...any) *errors.ParseError {
	return errors.NewParseError(c.Path, c.entry, format, args...)
}

// wrapAt turns err into a parse error at line, unless it already is one.
func (c *ParseContext) wrapAt(line int, err error) error {
	var pe *errors.ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &errors.ParseError{Filename: c.Path, Line: line, Message: err.Error(), Underlying: err}
}
