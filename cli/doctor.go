package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/query"
)

// DoctorCmd provides utilities for debugging journals and queries.
type DoctorCmd struct {
	Lex    LexCmd          `cmd:"" help:"Show the tokens of a value expression."`
	Select DoctorSelectCmd `cmd:"" help:"Show how a select query compiles."`
	Dump   DumpCmd         `cmd:"" help:"Dump the transactions of the journal."`
}

// LexCmd shows the tokens of a value expression.
type LexCmd struct {
	Expr []string `arg:"" help:"Value expression."`
}

func (cmd *LexCmd) Run(ctx *kong.Context) error {
	writeTokens(ctx.Stdout, strings.Join(cmd.Expr, " "))
	return nil
}

// writeTokens prints each token as: TYPE column "text".
func writeTokens(w io.Writer, source string) {
	for _, token := range expr.NewLexer(source).ScanAll() {
		if token.Type == expr.EOF {
			continue
		}
		_, _ = fmt.Fprintf(w, "%-10s %d    %q\n", token.Type.String(), token.Column, token.Text(source))
	}
}

// DoctorSelectCmd compiles a select query against an empty journal and
// shows the clauses, widths and format it produced.
type DoctorSelectCmd struct {
	Query []string `arg:"" help:"Select statement."`
}

func (cmd *DoctorSelectCmd) Run(ctx *kong.Context, globals *Globals) error {
	rt, err := globals.start(ctx, "doctor select")
	if err != nil {
		return err
	}
	defer rt.finish()

	r, err := rt.session.NewReport(rt.ctx)
	if err != nil {
		return err
	}
	st, err := query.Compile(r, "select "+strings.Join(cmd.Query, " "))
	if err != nil {
		return err
	}
	columns := make([]string, len(st.Columns))
	for i, op := range st.Columns {
		columns[i] = expr.Print(op)
	}
	repr.New(ctx.Stdout, repr.Indent("  ")).Println(struct {
		Clauses []query.Clause
		Source  query.Source
		Columns []string
		Widths  query.Widths
		Format  string
	}{st.Clauses, st.Source, columns, st.Widths, st.Format})
	return nil
}

// DumpCmd shows the journal as the reader understood it.
type DumpCmd struct{}

type dumpedPost struct {
	Account    string
	Amount     string
	State      string
	Virtual    bool
	Calculated bool
	Note       string
}

type dumpedXact struct {
	Date  string
	State string
	Code  string
	Payee string
	Note  string
	Posts []dumpedPost
}

func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	rt, err := globals.start(ctx, "doctor dump")
	if err != nil {
		return err
	}
	defer rt.finish()

	if _, err := rt.session.ReadJournalFiles(rt.ctx); err != nil {
		return err
	}
	repr.New(ctx.Stdout, repr.Indent("  "), repr.OmitEmpty(true)).Println(dumpXacts(rt.session.Journal))
	return nil
}

// dumpXacts flattens the transactions; the journal itself links posts,
// transactions and accounts in both directions.
func dumpXacts(j *journal.Journal) []dumpedXact {
	xacts := make([]dumpedXact, 0, len(j.Xacts))
	for _, x := range j.Xacts {
		dx := dumpedXact{
			Date:  x.Date.Format("2006/01/02"),
			State: x.State.String(),
			Code:  x.Code,
			Payee: x.Payee,
			Note:  x.Note,
		}
		for _, p := range x.Posts {
			dx.Posts = append(dx.Posts, dumpedPost{
				Account:    p.Account.FullName(),
				Amount:     p.Amount.String(),
				State:      p.State.String(),
				Virtual:    p.Virtual,
				Calculated: p.Calculated,
				Note:       p.Note,
			})
		}
		xacts = append(xacts, dx)
	}
	return xacts
}
