package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/ext"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/logging"
	"github.com/robinvdvleuten/ledger/query"
	"github.com/robinvdvleuten/ledger/report"
	"github.com/robinvdvleuten/ledger/telemetry"
	"github.com/robinvdvleuten/ledger/textual"
)

// RegisterStatement is the select behind the register command.
const RegisterStatement = "select date, payee, account, amount, total"

// Session reads journals and executes commands against them.
type Session struct {
	Journal *journal.Journal
	Scope   expr.Scope
	Files   []string
	Out     io.Writer
	Err     io.Writer

	ctx       *Context
	reader    *textual.Reader
	termWidth func() int
}

// Option configures a Session.
type Option func(*Session)

// WithFiles sets the journal files, replacing those from the settings.
func WithFiles(files ...string) Option {
	return func(s *Session) {
		s.Files = files
	}
}

// WithOutput sets where reports are written.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.Out = w
	}
}

// WithErrorOutput sets where errors are reported.
func WithErrorOutput(w io.Writer) Option {
	return func(s *Session) {
		s.Err = w
	}
}

// WithTermWidth sets the terminal width probe used by select.
func WithTermWidth(width func() int) Option {
	return func(s *Session) {
		s.termWidth = width
	}
}

// New creates a session over c.
func New(c *Context, opts ...Option) *Session {
	s := &Session{
		Files:     c.Settings.Files,
		Out:       os.Stdout,
		Err:       os.Stderr,
		ctx:       c,
		termWidth: func() int { return 0 },
	}
	for _, opt := range opts {
		opt(s)
	}

	readerOpts := []textual.Option{textual.WithClock(c.Now)}
	if c.Provider != nil {
		readerOpts = append(readerOpts, textual.WithProvider(c.Provider))
	}
	s.reader = textual.NewReader(readerOpts...)
	s.reset()
	return s
}

// Context returns the session's context.
func (s *Session) Context() *Context {
	return s.ctx
}

func (s *Session) reset() {
	s.Journal = journal.New(s.ctx.Pool)
	s.Scope = ext.NewExtendedScope(expr.NewSymbolScope(expr.EmptyScope{}), s.ctx.Provider)
}

// ReadJournalFiles replaces the journal with the contents of the session's
// files and returns the number of transactions read.
func (s *Session) ReadJournalFiles(ctx context.Context) (int, error) {
	if len(s.Files) == 0 {
		return 0, errors.NewRuntimeError("No journal file was specified (please use -f)")
	}
	s.reset()
	ctx = s.ctx.Attach(ctx)

	timer := telemetry.Start(ctx, "read journal files")
	defer timer.End()

	total := 0
	for _, file := range s.Files {
		n, err := s.reader.ReadFile(ctx, s.Journal, s.Scope, file)
		total += n
		if err != nil {
			return total, err
		}
	}
	logging.FromContext(ctx).Info("Read journal", "files", len(s.Files), "xacts", total)
	return total, nil
}

// ReadJournal replaces the journal with text read from src.
func (s *Session) ReadJournal(ctx context.Context, src io.Reader, name string) (int, error) {
	s.reset()
	return s.reader.Read(s.ctx.Attach(ctx), s.Journal, s.Scope, src, name)
}

// NewReport creates a report over the journal with the settings' default
// options applied.
func (s *Session) NewReport(ctx context.Context) (*report.Report, error) {
	opts := report.NewOptions()
	settings := s.ctx.Settings
	if settings.Columns > 0 {
		opts.MustGet("columns").On("settings", strconv.Itoa(settings.Columns))
	}
	if settings.DateFormat != "" {
		opts.MustGet("date_format").On("settings", settings.DateFormat)
	}
	if settings.Color {
		opts.MustGet("color").On("settings", "")
	}
	for name, value := range settings.Options {
		opt, ok := opts.Get(name)
		if !ok {
			return nil, errors.NewLogicError("Illegal option --%s", name)
		}
		opt.On("settings", value)
	}

	return report.New(ctx, s.Journal,
		report.WithOutput(s.Out),
		report.WithScope(s.Scope),
		report.WithClock(s.ctx.Now),
		report.WithEnv(s.ctx.Getenv),
		report.WithTermWidth(s.termWidth),
		report.WithOptions(opts),
	), nil
}

// ExecuteCommand runs one command: a verb with its arguments, mixed with
// --options. It owns the session context while it runs.
func (s *Session) ExecuteCommand(ctx context.Context, args []string) error {
	release, err := s.ctx.Acquire()
	if err != nil {
		return err
	}
	defer release()
	ctx = s.ctx.Attach(ctx)

	r, err := s.NewReport(ctx)
	if err != nil {
		return err
	}
	words, err := parseOptions(r.Options, args)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return errors.NewLogicError("Usage: COMMAND [OPTIONS] [ARGS]")
	}
	verb, rest := words[0], words[1:]
	logging.Debug(ctx, "session", "Executing command", "verb", verb, "args", rest)

	timer := telemetry.Start(ctx, "command "+verb)
	defer timer.End()

	switch verb {
	case "select":
		return query.Select(r, "select "+strings.Join(rest, " "))

	case "reg", "register":
		limitByMasks(r, rest)
		return query.Select(r, RegisterStatement)

	case "bal", "balance":
		limitByMasks(r, rest)
		h, err := report.NewFormatAccounts(r, report.BalanceFormat)
		if err != nil {
			return err
		}
		return r.AccountsReport(h)

	case "budget":
		limitByMasks(r, rest)
		if !r.Budgeting() {
			r.Options.MustGet("budget").On("budget", "")
		}
		h, err := report.NewFormatAccounts(r, report.BudgetFormat)
		if err != nil {
			return err
		}
		return r.AccountsReport(h)

	case "print":
		limitByMasks(r, rest)
		return r.PostsReport(report.NewPrintXacts(r, r.Options.MustGet("raw").Handled))

	case "eval", "expr":
		e, err := r.Parse(strings.Join(rest, " "))
		if err != nil {
			return err
		}
		v, err := e.Calc(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.Out, v.AsString())
		return err
	}
	return errors.NewLogicError("Unrecognized command '%s'", verb)
}

// parseOptions applies --name and --name=value arguments to opts and
// returns the remaining words. "--" ends option parsing.
func parseOptions(opts *report.Options, args []string) ([]string, error) {
	var words []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			words = append(words, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") {
			words = append(words, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg[2:], "=")
		opt, ok := opts.Get(name)
		if !ok {
			return nil, errors.NewLogicError("Illegal option --%s", name)
		}
		if opt.Flag {
			opt.On(arg, "")
			continue
		}
		if !hasValue {
			if i+1 == len(args) {
				return nil, errors.NewLogicError("Missing option argument for --%s", name)
			}
			i++
			value = args[i]
		}
		opt.On("--"+name, value)
	}
	return words, nil
}

// limitByMasks narrows --limit to accounts matching the masks; masks
// starting with "@" match payees instead.
func limitByMasks(r *report.Report, masks []string) {
	if len(masks) == 0 {
		return
	}
	terms := make([]string, len(masks))
	for i, mask := range masks {
		field := "account"
		if strings.HasPrefix(mask, "@") {
			field, mask = "payee", mask[1:]
		}
		terms[i] = field + " =~ /" + strings.ReplaceAll(mask, "/", `\/`) + "/"
	}
	pred := strings.Join(terms, " or ")

	limit := r.Options.MustGet("limit")
	if limit.Handled {
		pred = "(" + limit.Value + ") and (" + pred + ")"
	}
	limit.On("masks", pred)
}

// ExecuteCommandWrapper runs a command and reports its error. It returns
// the exit status: 0 on success, the count of a CountError, 1 otherwise.
// A pending cancellation that stopped the command is discarded once
// reported so the next command can run.
func (s *Session) ExecuteCommandWrapper(ctx context.Context, args []string) int {
	err := s.ExecuteCommand(ctx, args)
	if err == nil {
		return 0
	}
	var count *errors.CountError
	if errors.As(err, &count) {
		return count.Count
	}
	s.ReportError(err)
	return 1
}

// ReportError writes err with its context lines to the error output.
func (s *Session) ReportError(err error) {
	_, _ = fmt.Fprintln(s.Err, errors.Describe(err))
	if s.ctx.Gate.Requested() {
		s.ctx.Gate.Discard()
	}
}

// REPL reads commands from in until EOF or "quit". Blank lines and "#"
// are ignored. The cancellation gate is checked before every line.
func (s *Session) REPL(ctx context.Context, in io.Reader, prompt string) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt != "" {
			_, _ = fmt.Fprint(s.Out, prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := s.ctx.Gate.Check(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "#" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			return nil
		}
		args, err := SplitArguments(line)
		if err != nil {
			s.ReportError(err)
			continue
		}
		s.ExecuteCommandWrapper(ctx, args)
	}
}

// ExecuteScript runs the commands of a script, one per line, stopping at
// the first that fails. Lines starting with "#" are comments. It returns
// the last status.
func (s *Session) ExecuteScript(ctx context.Context, in io.Reader) (int, error) {
	scanner := bufio.NewScanner(in)
	status := 0
	for status == 0 && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.ctx.Gate.Check(); err != nil {
			s.ReportError(err)
			return 1, nil
		}
		args, err := SplitArguments(line)
		if err != nil {
			return 1, err
		}
		status = s.ExecuteCommandWrapper(ctx, args)
	}
	return status, scanner.Err()
}

// Run is the main entry: it logs the session's start and end, reads the
// journal files, then executes args, or the script when one is given, or a
// REPL on in.
func (s *Session) Run(ctx context.Context, args []string, script io.Reader, in io.Reader) int {
	ctx = s.ctx.Attach(ctx)
	log := logging.FromContext(ctx)
	log.Info("Ledger starting")
	defer log.Info("Ledger ended")

	if _, err := s.ReadJournalFiles(ctx); err != nil {
		s.ReportError(err)
		return 1
	}

	switch {
	case script != nil:
		status, err := s.ExecuteScript(ctx, script)
		if err != nil {
			s.ReportError(err)
			return 1
		}
		return status
	case len(args) > 0:
		return s.ExecuteCommandWrapper(ctx, args)
	}

	if err := s.REPL(ctx, in, "] "); err != nil {
		s.ReportError(err)
		return 1
	}
	return 0
}
