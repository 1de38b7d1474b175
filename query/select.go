package query

import (
	"strconv"
	"strings"

	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/logging"
	"github.com/robinvdvleuten/ledger/report"
)

// Source is the kind of rows a statement selects.
type Source string

const (
	FromPosts       Source = "posts"
	FromXacts       Source = "xacts"
	FromAccounts    Source = "accounts"
	FromCommodities Source = "commodities"
)

func parseSource(text string) (Source, bool) {
	switch text {
	case "xacts", "txns", "transactions":
		return FromXacts, true
	case "posts", "postings":
		return FromPosts, true
	case "accounts":
		return FromAccounts, true
	case "commodities":
		return FromCommodities, true
	}
	return "", false
}

// Widths are the column widths a statement lays out with.
type Widths struct {
	Date    int
	Payee   int
	Account int
	Amount  int
	Total   int
	Meta    int
}

// Statement is a compiled select.
type Statement struct {
	Text    string
	Clauses []Clause
	Source  Source
	Columns []*expr.Op
	Widths  Widths
	Format  string
}

// ErrUsage is returned for a statement without columns.
var ErrUsage = errors.NewLogicError("Usage: select TEXT")

// Compile parses text and configures r's options from its clauses: where
// sets --limit, display sets --display, collect sets --amount and group by
// sets --group-by. The column widths it computes are stored as unhandled
// width options.
func Compile(r *report.Report, text string) (*Statement, error) {
	st := &Statement{Text: text, Clauses: Tokenize(text), Source: FromPosts}
	accountsReport := SelectsAccounts(text)

	var selected string
	for _, c := range st.Clauses {
		arg := strings.TrimSpace(c.Arg)
		switch c.Keyword {
		case "select":
			selected = arg
		case "from":
			if src, ok := parseSource(arg); ok {
				st.Source = src
			}
		case "where":
			r.Options.MustGet("limit").On("#select", arg)
		case "display":
			r.Options.MustGet("display").On("#select", arg)
		case "collect":
			r.Options.MustGet("amount").On("#select", arg)
		case "group by":
			r.Options.MustGet("group_by").On("#select", arg)
		case "style":
			logging.Debug(r.Context(), "select", "Ignoring style clause", "style", arg)
		}
	}
	if selected == "" {
		return nil, ErrUsage
	}

	e, err := r.Parse(selected)
	if err != nil {
		return nil, err
	}
	st.Columns = expr.SplitCons(e.Op)

	if st.Widths, err = computeWidths(r, st.Columns); err != nil {
		return nil, err
	}
	st.Format = buildFormat(st.Columns, accountsReport)
	logging.Debug(r.Context(), "select", "Compiled statement", "format", st.Format, "source", string(st.Source))
	return st, nil
}

// Select compiles text and runs the report it asks for.
func Select(r *report.Report, text string) error {
	st, err := Compile(r, text)
	if err != nil {
		return err
	}
	return st.Run(r)
}

// Run drives the statement's report.
func (st *Statement) Run(r *report.Report) error {
	switch st.Source {
	case FromXacts:
		return r.PostsReport(report.NewPrintXacts(r, r.Options.MustGet("raw").Handled))
	case FromAccounts:
		h, err := report.NewFormatAccounts(r, st.Format)
		if err != nil {
			return err
		}
		return r.AccountsReport(h)
	case FromCommodities:
		h, err := report.NewFormatPosts(r, st.Format)
		if err != nil {
			return err
		}
		return r.CommoditiesReport(h)
	}
	h, err := report.NewFormatPosts(r, st.Format)
	if err != nil {
		return err
	}
	return r.PostsReport(h)
}

// PrincipalIdentifier finds the well-known identifier a column shows: one
// of date, aux_date, payee, account, amount or total. It returns false when
// the column mixes several. With transform set, account, amount and total
// are rewritten in place to their display_ forms.
func PrincipalIdentifier(op *expr.Op, ident *string, transform bool) bool {
	if op == nil {
		return true
	}
	if op.Kind == expr.OpIdent {
		name := op.Ident()
		switch name {
		case "date", "aux_date", "payee":
			if *ident != "" && *ident != name {
				return false
			}
			*ident = name
		case "account", "amount", "total":
			if transform {
				op.SetIdent("display_" + name)
			}
			if *ident != "" && *ident != name {
				return false
			}
			*ident = name
		}
		return true
	}

	if op.Kind.IsTerminal() && op.Kind != expr.OpScope {
		return true
	}
	ok := PrincipalIdentifier(op.Left, ident, transform)
	if (op.Kind.IsBinary() || op.Kind == expr.OpScope) && op.HasRight() {
		if !PrincipalIdentifier(op.Right, ident, transform) {
			ok = false
		}
	}
	return ok
}

func principal(op *expr.Op, transform bool) string {
	var ident string
	if !PrincipalIdentifier(op, &ident, transform) {
		return ""
	}
	return ident
}

// Width shares of the terminal, after the date column.
const (
	payeeShare   = 0.263157
	accountShare = 0.302631
	amountShare  = 0.157894
	defaultMeta  = 10
)

// computeWidths sizes the columns to fill the terminal width: the
// --columns option, then COLUMNS, then the terminal, then 80. Widths given
// as options are kept; the rest are balanced so the row, with one
// separator per column, fits the width exactly when it can.
func computeWidths(r *report.Report, columns []*expr.Op) (Widths, error) {
	opts := r.Options
	cols, err := terminalColumns(r)
	if err != nil {
		return Widths{}, err
	}

	w := Widths{Meta: defaultMeta}
	if w.Date, err = widthOption(opts, "date_width", func() int {
		return len(report.FormatDate(r.Now(), opts.MustGet("date_format").Str()))
	}); err != nil {
		return w, err
	}
	if w.Payee, err = widthOption(opts, "payee_width", func() int { return int(float64(cols) * payeeShare) }); err != nil {
		return w, err
	}
	if w.Account, err = widthOption(opts, "account_width", func() int { return int(float64(cols) * accountShare) }); err != nil {
		return w, err
	}
	if w.Amount, err = widthOption(opts, "amount_width", func() int { return int(float64(cols) * amountShare) }); err != nil {
		return w, err
	}
	if w.Total, err = widthOption(opts, "total_width", func() int { return w.Amount }); err != nil {
		return w, err
	}
	if opt := opts.MustGet("meta_width"); opt.Handled {
		if w.Meta, err = opt.Int(); err != nil {
			return w, err
		}
	}

	var sawPayee, sawAccount bool
	needed := 0
	for _, col := range columns {
		switch principal(col, false) {
		case "date", "aux_date":
			needed += w.Date + 1
		case "payee":
			sawPayee = true
			needed += w.Payee + 1
		case "account":
			sawAccount = true
			needed += w.Account + 1
		case "amount":
			needed += w.Amount + 1
		case "total":
			needed += w.Total + 1
		default:
			needed += w.Meta + 1
		}
	}

	for (sawAccount || sawPayee) && needed < cols {
		if sawAccount && needed < cols {
			w.Account++
			needed++
			if needed < cols {
				w.Account++
				needed++
			}
		}
		if sawPayee && needed < cols {
			w.Payee++
			needed++
		}
	}
	for (sawAccount || sawPayee) && needed > cols && w.Account > 5 && w.Payee > 5 {
		if sawAccount && needed > cols {
			w.Account--
			needed--
			if needed > cols && w.Account > 5 {
				w.Account--
				needed--
			}
		}
		if sawPayee && needed > cols && w.Payee > 5 {
			w.Payee--
			needed--
		}
	}

	for _, f := range []struct {
		name  string
		width *int
	}{
		{"date_width", &w.Date},
		{"payee_width", &w.Payee},
		{"account_width", &w.Account},
		{"amount_width", &w.Amount},
		{"total_width", &w.Total},
	} {
		if *f.width, err = setWidth(opts, f.name, *f.width); err != nil {
			return w, err
		}
	}
	return w, nil
}

func terminalColumns(r *report.Report) (int, error) {
	if opt := r.Options.MustGet("columns"); opt.Handled {
		return opt.Int()
	}
	if env := r.Getenv("COLUMNS"); env != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(env)); err == nil && n > 0 {
			return n, nil
		}
	}
	if n := r.TermWidth(); n > 0 {
		return n, nil
	}
	return 80, nil
}

func widthOption(opts *report.Options, name string, fallback func() int) (int, error) {
	if opt := opts.MustGet(name); opt.Handled {
		return opt.Int()
	}
	return fallback(), nil
}

// setWidth stores a computed width unless the user gave one, and returns
// the width the template will use.
func setWidth(opts *report.Options, name string, width int) (int, error) {
	opt := opts.MustGet(name)
	if opt.Handled {
		return opt.Int()
	}
	opt.Set(strconv.Itoa(width))
	return width, nil
}

// buildFormat renders one format element per column. Known columns get
// justified, truncated and coloured templates; the rest are padded to the
// meta width.
func buildFormat(columns []*expr.Op, accountsReport bool) string {
	var b strings.Builder
	var thusFar string

	for i, col := range columns {
		if i > 0 {
			b.WriteByte(' ')
		}
		ident := principal(col, true)
		text := expr.Print(col)

		switch ident {
		case "date", "aux_date":
			b.WriteString("%(ansify_if(ansify_if(justify(format_date(")
			b.WriteString(text)
			b.WriteString("), int(date_width)),green if color and date > today),bold if should_bold))")
			thusFar = addWidth(thusFar, "int(date_width)")

		case "payee":
			b.WriteString("%(ansify_if(ansify_if(justify(truncated(")
			b.WriteString(text)
			b.WriteString(", int(payee_width)), int(payee_width)),bold if color and !cleared and actual),bold if should_bold))")
			thusFar = addWidth(thusFar, "int(payee_width)")

		case "account":
			b.WriteString("%(ansify_if(")
			if accountsReport {
				b.WriteString("ansify_if(partial_account(options.flat), blue if color),")
			} else {
				b.WriteString("justify(truncated(")
				b.WriteString(text)
				b.WriteString(", int(account_width), int(abbrev_len)),int(account_width), -1, false, color),")
				thusFar = addWidth(thusFar, "int(account_width)")
			}
			b.WriteString(" bold if should_bold))")

		case "amount", "total":
			width := "int(" + ident + "_width)"
			thusFar = addWidth(thusFar, width)
			b.WriteString("%(ansify_if(justify(scrub(")
			b.WriteString(text)
			b.WriteString("), ")
			b.WriteString(width)
			b.WriteString(",")
			b.WriteString(thusFar)
			b.WriteString(", true, color), bold if should_bold))")

		default:
			b.WriteString("%(ansify_if(justify(truncated(")
			b.WriteString(text)
			b.WriteString(", int(meta_width or 10)), int(meta_width) or 10),bold if should_bold))")
			thusFar = addWidth(thusFar, "(int(meta_width) or 10)")
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func addWidth(thusFar, width string) string {
	if thusFar == "" {
		return width
	}
	return thusFar + " + 1 + " + width
}
