// Package textual reads ledger journal text into a journal.Journal.
//
// Input sources are kept on a ParseContextStack: "include" pushes the
// included file, parses it and pops it again. Directives such as
// "apply account" are tracked on a per-file ApplyStack whose parent is the
// including file's stack, so an include inside an apply block inherits it.
package textual

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/ext"
	"github.com/robinvdvleuten/ledger/interval"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/logging"
	"github.com/robinvdvleuten/ledger/telemetry"
)

// Reader parses journals. A Reader holds no per-read state and may be reused.
type Reader struct {
	provider ext.Provider
	now      func() time.Time
}

// Option configures a Reader.
type Option func(*Reader)

// WithProvider routes "import" and "eval" directives to provider.
func WithProvider(provider ext.Provider) Option {
	return func(r *Reader) {
		r.provider = provider
	}
}

// WithClock sets the clock used to pick the year of dates written without
// one.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) {
		r.now = now
	}
}

// NewReader creates a reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFile reads the journal at path and everything it includes into j. It
// returns the number of transactions read. Malformed entries are collected
// into an *errors.ParseErrors; other errors abort the read.
func (r *Reader) ReadFile(ctx context.Context, j *journal.Journal, scope expr.Scope, path string) (int, error) {
	p := r.newParser(j, scope)
	if err := p.stack.Push(path); err != nil {
		return 0, err
	}
	return p.run(ctx)
}

// Read reads journal text from src. Relative includes resolve against the
// working directory.
func (r *Reader) Read(ctx context.Context, j *journal.Journal, scope expr.Scope, src io.Reader, name string) (int, error) {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	p := r.newParser(j, scope)
	p.stack.PushReader(src, name, dir)
	return p.run(ctx)
}

type parser struct {
	reader  *Reader
	journal *journal.Journal
	scope   expr.Scope
	stack   ParseContextStack
}

func (r *Reader) newParser(j *journal.Journal, scope expr.Scope) *parser {
	if scope == nil {
		scope = expr.EmptyScope{}
	}
	return &parser{reader: r, journal: j, scope: scope}
}

func (p *parser) run(ctx context.Context) (count int, err error) {
	c, err := p.stack.Current()
	if err != nil {
		return 0, err
	}
	c.Journal = p.journal
	c.Scope = p.scope

	defer func() {
		if perr := p.stack.Pop(); perr != nil && err == nil {
			err = perr
		}
	}()

	timer := telemetry.FromContext(ctx).Start("Parse " + filepath.Base(c.Path))
	defer timer.End()

	if err := p.parse(ctx); err != nil {
		return c.Count, err
	}
	if len(c.Errors) > 0 {
		return c.Count, &errors.ParseErrors{Errors: c.Errors}
	}
	return c.Count, nil
}

// parse reads the current context to its end.
func (p *parser) parse(ctx context.Context) error {
	c, err := p.stack.Current()
	if err != nil {
		return err
	}
	p.journal.Sources = append(p.journal.Sources, c.Path)

	for {
		line, err := c.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := p.parseLine(ctx, c, line); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.Errors = append(c.Errors, c.wrapAt(c.entry, err))
		}
	}

	if n := c.Apply.Len(); n > 0 {
		logging.FromContext(ctx).Warn("apply directives left open at end of file", "file", c.Path, "count", n)
	}
	return nil
}

func (p *parser) parseLine(ctx context.Context, c *ParseContext, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	c.entry = c.LineNum
	header := entryLine{num: c.LineNum, text: line}

	switch line[0] {
	case ' ', '\t':
		return c.errorf("Unexpected whitespace at beginning of line")
	case ';', '#', '%', '|', '*':
		return nil
	}

	sub, err := c.readEntry()
	if err != nil {
		return err
	}

	switch ch := line[0]; {
	case ch >= '0' && ch <= '9':
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.parseXact(c, header, sub)
	case ch == '~':
		return p.parsePeriodXact(c, header, sub)
	case ch == '=':
		logging.FromContext(ctx).Warn("automated transaction ignored", "file", c.Path, "line", header.num)
		return nil
	}
	return p.directive(ctx, c, header, sub)
}

func (p *parser) parseXact(c *ParseContext, header entryLine, sub []entryLine) error {
	x := &journal.Xact{Pos: journal.Position{File: c.Path, Line: header.num, Text: header.text}}

	dateText, rest := splitWord(header.text)
	primary, aux, hasAux := strings.Cut(dateText, "=")
	date, err := interval.ParseDate(primary, p.year(c))
	if err != nil {
		return c.wrapAt(header.num, err)
	}
	x.Date = date
	if hasAux {
		auxDate, err := interval.ParseDate(aux, date.Year())
		if err != nil {
			return c.wrapAt(header.num, err)
		}
		x.AuxDate = &auxDate
	}

	x.State, rest = parseState(rest)
	if strings.HasPrefix(rest, "(") {
		if i := strings.IndexByte(rest, ')'); i > 0 {
			x.Code = rest[1:i]
			rest = strings.TrimSpace(rest[i+1:])
		}
	}
	x.Payee, x.Note = splitNote(rest)
	if x.Payee == "" {
		x.Payee = "<Unspecified payee>"
	}
	x.Meta = parseMetadata(x.Note, x.Meta)
	for _, tag := range GetApplications[TagApplication](c.Apply) {
		x.Meta = applyTag(x.Meta, string(tag))
	}

	if err := p.parsePosts(c, x, sub); err != nil {
		return err
	}
	if err := c.Journal.AddXact(x); err != nil {
		return c.wrapAt(header.num, err)
	}
	c.Count++
	return nil
}

func (p *parser) parsePeriodXact(c *ParseContext, header entryLine, sub []entryLine) error {
	period, note := splitNote(strings.TrimSpace(header.text[1:]))
	iv, err := interval.Parse(period)
	if err != nil {
		return c.wrapAt(header.num, err)
	}

	pos := journal.Position{File: c.Path, Line: header.num, Text: header.text}
	px := &journal.PeriodXact{Period: period, Interval: iv, Note: note, Pos: pos}

	// templates balance like ordinary transactions
	tmp := &journal.Xact{Payee: period, Pos: pos}
	if err := p.parsePosts(c, tmp, sub); err != nil {
		return err
	}
	if err := journal.Finalize(tmp); err != nil {
		return c.wrapAt(header.num, err)
	}
	for _, post := range tmp.Posts {
		post.Xact = nil
		px.AddPost(post)
	}
	c.Journal.AddPeriodXact(px)
	return nil
}

func (p *parser) parsePosts(c *ParseContext, x *journal.Xact, sub []entryLine) error {
	var last *journal.Post
	for _, l := range sub {
		text := strings.TrimSpace(l.text)
		if text[0] == ';' {
			note := strings.TrimSpace(text[1:])
			if last != nil {
				last.Note = joinNote(last.Note, note)
				last.Meta = parseMetadata(note, last.Meta)
			} else {
				x.Note = joinNote(x.Note, note)
				x.Meta = parseMetadata(note, x.Meta)
			}
			continue
		}

		post, err := p.parsePost(c, l)
		if err != nil {
			return err
		}
		x.AddPost(post)
		last = post
	}
	if len(x.Posts) == 0 {
		return c.errorf("Transaction has no postings")
	}
	return nil
}

func (p *parser) parsePost(c *ParseContext, l entryLine) (*journal.Post, error) {
	post := &journal.Post{
		MustBalance: true,
		Pos:         journal.Position{File: c.Path, Line: l.num, Text: l.text},
	}

	var text string
	post.State, text = parseState(strings.TrimSpace(l.text))
	name, rest := splitAccount(text)
	switch {
	case len(name) > 2 && name[0] == '(' && name[len(name)-1] == ')':
		name = name[1 : len(name)-1]
		post.Virtual = true
		post.MustBalance = false
	case len(name) > 2 && name[0] == '[' && name[len(name)-1] == ']':
		name = name[1 : len(name)-1]
		post.Virtual = true
	}
	if name == "" {
		return nil, errors.NewParseError(c.Path, l.num, "Posting has no account")
	}
	acct := p.findAccount(c, name)
	post.Account, post.ReportedAccount = acct, acct

	amountText, note := splitNote(rest)
	if note != "" {
		post.Note = note
		post.Meta = parseMetadata(note, nil)
	}
	if amountText == "" {
		return post, nil
	}

	amtText, costText, perUnit := splitCost(amountText)
	amt, err := p.parseAmount(c, post, amtText)
	if err != nil {
		return nil, c.wrapAt(l.num, err)
	}
	post.Amount, post.HasAmount = amt, true

	if costText != "" {
		cost, err := c.Journal.Pool.Parse(costText)
		if err != nil {
			return nil, c.wrapAt(l.num, err)
		}
		if perUnit {
			cost = amount.New(cost.Quantity.Mul(amt.Quantity), cost.Commodity)
		} else if amt.Sign() < 0 && cost.Sign() > 0 {
			cost = cost.Negate()
		}
		post.Cost = &cost
	}
	return post, nil
}

func (p *parser) parseAmount(c *ParseContext, post *journal.Post, text string) (amount.Amount, error) {
	if !strings.HasPrefix(text, "(") {
		return c.Journal.Pool.Parse(text)
	}
	e, err := expr.Parse(text, expr.WithPool(c.Journal.Pool))
	if err != nil {
		return amount.Amount{}, err
	}
	post.AmountExpr = e
	v, err := e.Calc(c.Scope)
	if err != nil {
		return amount.Amount{}, err
	}
	return v.AsAmount()
}

// findAccount resolves name below the innermost applied account. Aliases
// win over the applied account.
func (p *parser) findAccount(c *ParseContext, name string) *journal.Account {
	if acct, ok := c.Journal.Alias(name); ok {
		return acct
	}
	if applied, ok := GetApplication[*journal.Account](c.Apply); ok {
		return applied.FindAccount(name, true)
	}
	return c.Journal.FindAccount(name, true)
}

func (p *parser) year(c *ParseContext) int {
	if y, ok := GetApplication[YearApplication](c.Apply); ok {
		return int(y)
	}
	if c.Year != 0 {
		return c.Year
	}
	return p.reader.now().Year()
}

func (p *parser) directive(ctx context.Context, c *ParseContext, header entryLine, sub []entryLine) error {
	word, arg := splitWord(header.text)

	switch word {
	case "include":
		return p.include(ctx, c, arg)
	case "apply":
		return p.apply(c, arg)
	case "end":
		return p.end(c, arg)
	case "account":
		return p.account(c, arg, sub)
	case "alias":
		name, target, ok := strings.Cut(arg, "=")
		name, target = strings.TrimSpace(name), strings.TrimSpace(target)
		if !ok || name == "" || target == "" {
			return c.errorf("alias directive requires 'NAME=ACCOUNT'")
		}
		c.Journal.AddAlias(name, target)
		return nil
	case "unalias":
		c.Journal.RemoveAlias(arg)
		return nil
	case "payee":
		if arg == "" {
			return c.errorf("payee directive requires a name")
		}
		c.Journal.RegisterPayee(arg)
		return nil
	case "tag":
		if arg == "" {
			return c.errorf("tag directive requires a name")
		}
		c.Journal.RegisterTag(arg)
		return nil
	case "commodity":
		return p.commodity(c, arg, sub)
	case "year", "Y":
		return p.setYear(c, arg)
	case "define", "def":
		return p.define(c, arg)
	case "assert", "check":
		return p.assert(ctx, c, word, arg)
	case "import":
		return p.importOption(c, arg)
	case "eval":
		return p.eval(c, arg, sub)
	case "comment", "test":
		return p.skipBlock(c, word)
	case "D":
		if _, err := c.Journal.Pool.Parse(arg); err != nil {
			return c.wrapAt(header.num, err)
		}
		return nil
	case "P", "N", "C", "A", "I", "O", "i", "o", "b", "h", "bucket", "price":
		logging.Debug(ctx, "textual.directive", "directive ignored", "directive", word, "file", c.Path, "line", header.num)
		return nil
	}

	if len(word) > 1 && word[0] == 'Y' {
		return p.setYear(c, word[1:])
	}
	if def := c.Scope.Lookup(expr.Directive, word); def != nil && def.IsFunction() {
		_, err := def.Call(expr.NewCallScope(c.Scope, expr.StringValue(arg)))
		return err
	}
	return c.errorf("Unknown directive '%s'", word)
}

func (p *parser) include(ctx context.Context, c *ParseContext, arg string) error {
	if arg == "" {
		return c.errorf("include directive requires a path")
	}
	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.CurrentDir, path)
	}

	matches := []string{path}
	if strings.ContainsAny(path, "*?[") {
		var err error
		if matches, err = filepath.Glob(path); err != nil {
			return c.wrapAt(c.entry, err)
		}
	} else if _, err := os.Stat(path); err != nil {
		matches = nil
	}
	if len(matches) == 0 {
		return c.errorf("File to include was not found: \"%s\"", arg)
	}

	for _, m := range matches {
		for open := c; open != nil; open = open.Master {
			if open.Path == m {
				return c.errorf("Recursive include of \"%s\"", arg)
			}
		}
		if err := p.includeFile(ctx, c, m); err != nil {
			return err
		}
	}
	return nil
}

// includeFile parses path as a child of master. The child is popped on
// every exit path; a close failure never replaces a parse failure.
func (p *parser) includeFile(ctx context.Context, master *ParseContext, path string) (err error) {
	if err := p.stack.Push(path); err != nil {
		return master.wrapAt(master.entry, err)
	}
	child, err := p.stack.Current()
	if err != nil {
		return err
	}
	defer func() {
		master.Errors = append(master.Errors, child.Errors...)
		master.Count += child.Count
		if perr := p.stack.Pop(); perr != nil && err == nil {
			err = perr
		}
	}()

	timer := telemetry.FromContext(ctx).Start("Include " + filepath.Base(path))
	defer timer.End()

	return p.parse(ctx)
}

func (p *parser) apply(c *ParseContext, arg string) error {
	kind, value := splitWord(arg)
	switch kind {
	case "account":
		if value == "" {
			return c.errorf("apply account requires an account name")
		}
		c.Apply.PushFront(kind, p.findAccount(c, value))
	case "tag":
		if value == "" {
			return c.errorf("apply tag requires a tag")
		}
		c.Apply.PushFront(kind, TagApplication(value))
	case "year":
		y, err := strconv.Atoi(value)
		if err != nil || y < 1000 {
			return c.errorf("Invalid year '%s'", value)
		}
		c.Apply.PushFront(kind, YearApplication(y))
	default:
		return c.errorf("Unknown apply directive '%s'", kind)
	}
	return nil
}

func (p *parser) end(c *ParseContext, arg string) error {
	word, kind := splitWord(arg)
	if word != "" && word != "apply" {
		return c.errorf("Unknown directive 'end %s'", word)
	}
	label, ok := c.Apply.FrontLabel()
	if !ok {
		return c.errorf("'end apply' found, but no enclosing 'apply' directive")
	}
	if kind != "" && kind != label {
		return c.errorf("'end apply %s' directive does not match 'apply %s' directive", kind, label)
	}
	return c.Apply.PopFront()
}

func (p *parser) account(c *ParseContext, arg string, sub []entryLine) error {
	if arg == "" {
		return c.errorf("account directive requires an account name")
	}
	acct := p.findAccount(c, arg)
	for _, l := range sub {
		word, value := splitWord(strings.TrimSpace(l.text))
		switch word {
		case "alias":
			if value == "" {
				return errors.NewParseError(c.Path, l.num, "alias requires a name")
			}
			c.Journal.AddAlias(value, acct.FullName())
		case "note":
			acct.Note = joinNote(acct.Note, value)
		}
	}
	return nil
}

func (p *parser) commodity(c *ParseContext, arg string, sub []entryLine) error {
	symbol := strings.Trim(arg, `"`)
	if symbol == "" {
		return c.errorf("commodity directive requires a symbol")
	}
	c.Journal.Pool.FindOrCreate(symbol)
	for _, l := range sub {
		word, value := splitWord(strings.TrimSpace(l.text))
		if word != "format" {
			continue
		}
		if _, err := c.Journal.Pool.Parse(value); err != nil {
			return c.wrapAt(l.num, err)
		}
	}
	return nil
}

func (p *parser) setYear(c *ParseContext, arg string) error {
	y, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || y < 1000 {
		return c.errorf("Invalid year '%s'", arg)
	}
	c.Year = y
	return nil
}

func (p *parser) define(c *ParseContext, arg string) error {
	e, err := expr.Parse(arg, expr.WithPool(c.Journal.Pool))
	if err != nil {
		return c.wrapAt(c.entry, err)
	}
	if e.Op == nil || e.Op.Kind != expr.OpDefine {
		return c.errorf("define directive requires 'NAME=EXPR'")
	}
	_, err = e.Calc(c.Scope)
	return err
}

func (p *parser) assert(ctx context.Context, c *ParseContext, word, arg string) error {
	e, err := expr.Parse(arg, expr.WithPool(c.Journal.Pool))
	if err != nil {
		return c.wrapAt(c.entry, err)
	}
	v, err := e.Calc(c.Scope)
	if err != nil {
		return err
	}
	if v.Truthy() {
		return nil
	}
	if word == "check" {
		logging.FromContext(ctx).Warn("Check failed", "expr", arg, "file", c.Path, "line", c.entry)
		return nil
	}
	return c.errorf("Assertion failed: %s", arg)
}

func (p *parser) importOption(c *ParseContext, arg string) error {
	provider, err := p.provider(c)
	if err != nil {
		return err
	}
	return provider.ImportOption(arg)
}

func (p *parser) eval(c *ParseContext, arg string, sub []entryLine) error {
	provider, err := p.provider(c)
	if err != nil {
		return err
	}
	code := arg
	for _, l := range sub {
		code += "\n" + strings.TrimSpace(l.text)
	}
	return provider.Eval(code, ext.EvalMulti)
}

func (p *parser) provider(c *ParseContext) (ext.Provider, error) {
	provider := p.reader.provider
	if provider == nil {
		return nil, c.errorf("No extension provider is configured")
	}
	if !provider.IsInitialized() {
		if err := provider.Initialize(); err != nil {
			return nil, err
		}
	}
	return provider, nil
}

// skipBlock discards lines up to the matching "end comment" or "end test".
func (p *parser) skipBlock(c *ParseContext, word string) error {
	for {
		line, err := c.readLine()
		if err == io.EOF {
			return c.errorf("Missing 'end %s'", word)
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "end "+word {
			return nil
		}
	}
}
