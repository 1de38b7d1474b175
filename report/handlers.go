package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/ledger/interval"
	"github.com/robinvdvleuten/ledger/journal"
)

// Default formats of the built-in commands.
const (
	BalanceFormat = "%(ansify_if(justify(scrub(display_total), 20, -1, true, color), bold if should_bold))" +
		"  %(depth_spacer)%(ansify_if(partial_account(options.flat), blue if color))\n" +
		"%/--------------------\n" +
		"%(justify(scrub(display_total), 20, -1, true, color))\n"

	BudgetFormat = "%(justify(scrub(display_amount), 20, -1, true, color))" +
		"  %(ansify_if(partial_account(options.flat), blue if color))\n" +
		"%/--------------------\n" +
		"%(justify(scrub(display_total), 20, -1, true, color))\n"
)

// FormatPosts prints each posting once with a format. When the format
// holds "%/", the part before it prints the first posting of every
// transaction and the part after prints the rest.
type FormatPosts struct {
	report *Report
	out    io.Writer
	first  *Format
	next   *Format
	last   *journal.Xact
}

// NewFormatPosts compiles format for r.
func NewFormatPosts(r *Report, format string) (*FormatPosts, error) {
	firstText, nextText := SplitFormat(format)
	first, err := ParseFormat(firstText)
	if err != nil {
		return nil, err
	}
	next := first
	if nextText != firstText {
		if next, err = ParseFormat(nextText); err != nil {
			return nil, err
		}
	}
	return &FormatPosts{report: r, out: r.Out, first: first, next: next}, nil
}

func (f *FormatPosts) Handle(post *journal.Post) error {
	xd := post.EnsureXData()
	if xd.Displayed {
		return nil
	}
	format := f.next
	if post.Xact != f.last {
		format = f.first
		f.last = post.Xact
	}
	text, err := format.Calc(f.report.PostScope(post))
	if err != nil {
		return err
	}
	xd.Displayed = true
	_, err = io.WriteString(f.out, text)
	return err
}

func (f *FormatPosts) Flush() error {
	f.last = nil
	return nil
}

// FormatAccounts prints accounts with a format. The part after "%/" prints
// a grand total once more than one top-level account was shown.
type FormatAccounts struct {
	report *Report
	out    io.Writer
	line   *Format
	total  *Format
	tops   int
}

// NewFormatAccounts compiles format for r.
func NewFormatAccounts(r *Report, format string) (*FormatAccounts, error) {
	lineText, totalText := SplitFormat(format)
	line, err := ParseFormat(lineText)
	if err != nil {
		return nil, err
	}
	f := &FormatAccounts{report: r, out: r.Out, line: line}
	if totalText != lineText {
		if f.total, err = ParseFormat(totalText); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *FormatAccounts) Handle(acct *journal.Account) error {
	text, err := f.line.Calc(f.report.AccountScope(acct))
	if err != nil {
		return err
	}
	if isTopLevel(acct) {
		f.tops++
	}
	_, err = io.WriteString(f.out, text)
	return err
}

// isTopLevel reports whether no ancestor of acct is displayed.
func isTopLevel(acct *journal.Account) bool {
	for p := acct.Parent; p != nil; p = p.Parent {
		if p.XData.Displayed {
			return false
		}
	}
	return true
}

func (f *FormatAccounts) Flush() error {
	defer func() { f.tops = 0 }()
	if f.total == nil || f.tops < 2 {
		return nil
	}
	text, err := f.total.Calc(f.report.AccountScope(f.report.Journal.Master))
	if err != nil {
		return err
	}
	_, err = io.WriteString(f.out, text)
	return err
}

// PrintXacts prints the transactions of the postings it receives in
// journal syntax, each once. Raw mode reproduces the lines as read.
type PrintXacts struct {
	report *Report
	out    io.Writer
	raw    bool
	xacts  []*journal.Xact
	seen   map[*journal.Xact]bool
}

// NewPrintXacts creates the handler.
func NewPrintXacts(r *Report, raw bool) *PrintXacts {
	return &PrintXacts{report: r, out: r.Out, raw: raw, seen: make(map[*journal.Xact]bool)}
}

func (p *PrintXacts) Handle(post *journal.Post) error {
	if x := post.Xact; x != nil && !p.seen[x] {
		p.seen[x] = true
		p.xacts = append(p.xacts, x)
	}
	return nil
}

func (p *PrintXacts) Flush() error {
	var b strings.Builder
	for i, x := range p.xacts {
		if i > 0 {
			b.WriteByte('\n')
		}
		if p.raw {
			writeRaw(&b, x)
		} else {
			writeXact(&b, x)
		}
	}
	p.xacts = nil
	clear(p.seen)
	_, err := io.WriteString(p.out, b.String())
	return err
}

func writeRaw(b *strings.Builder, x *journal.Xact) {
	b.WriteString(x.Pos.Text)
	b.WriteByte('\n')
	for _, post := range x.Posts {
		if post.Pos.Text != "" {
			b.WriteString(post.Pos.Text)
			b.WriteByte('\n')
		}
	}
}

// amountColumn is where posting amounts end in printed transactions.
const amountColumn = 48

func writeXact(b *strings.Builder, x *journal.Xact) {
	b.WriteString(interval.FormatDate(x.Date))
	if x.AuxDate != nil {
		b.WriteString("=" + interval.FormatDate(*x.AuxDate))
	}
	if s := x.State.String(); s != "" {
		b.WriteString(" " + s)
	}
	if x.Code != "" {
		fmt.Fprintf(b, " (%s)", x.Code)
	}
	b.WriteString(" " + x.Payee)
	if x.Note != "" {
		b.WriteString("  ; " + x.Note)
	}
	b.WriteByte('\n')

	for _, post := range x.Posts {
		// extra postings split off during balancing share the original's line
		if post.Calculated && post.Pos.Line != 0 && isSplitOff(x, post) {
			continue
		}
		var line strings.Builder
		line.WriteString("    ")
		if s := post.State.String(); s != "" {
			line.WriteString(s + " ")
		}
		line.WriteString(displayName(post))
		if !post.Calculated {
			text := post.Amount.String()
			pad := amountColumn - runewidth.StringWidth(line.String()) - runewidth.StringWidth(text)
			line.WriteString(strings.Repeat(" ", max(pad, 2)))
			line.WriteString(text)
		}
		if post.Note != "" {
			line.WriteString("  ; " + post.Note)
		}
		b.WriteString(line.String())
		b.WriteByte('\n')
	}
}

func isSplitOff(x *journal.Xact, post *journal.Post) bool {
	for _, other := range x.Posts {
		if other == post {
			return false
		}
		if other.Calculated && other.Pos.Line == post.Pos.Line {
			return true
		}
	}
	return false
}

func displayName(post *journal.Post) string {
	name := post.Account.FullName()
	switch {
	case post.Virtual && post.MustBalance:
		return "[" + name + "]"
	case post.Virtual:
		return "(" + name + ")"
	}
	return name
}
