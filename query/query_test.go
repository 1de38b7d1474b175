package query

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/report"
	"github.com/robinvdvleuten/ledger/textual"
)

const groceries = `2024/01/03 Grocer
    Expenses:Food        $30
    Assets:Checking

2024/01/01 Landlord
    Expenses:Rent        $500
    Assets:Checking
`

func newReport(t *testing.T, columns string) (*report.Report, *bytes.Buffer) {
	t.Helper()
	j := journal.New(nil)
	_, err := textual.NewReader().Read(context.Background(), j, expr.NewSymbolScope(nil), strings.NewReader(groceries), "test.ledger")
	assert.NoError(t, err)
	var buf bytes.Buffer
	r := report.New(context.Background(), j,
		report.WithOutput(&buf),
		report.WithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }),
		report.WithEnv(func(key string) string {
			if key == "COLUMNS" {
				return columns
			}
			return ""
		}),
	)
	return r, &buf
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Clause
	}{
		{
			name: "AllClauses",
			text: "select date, payee from posts where account =~ /Food/ display amount > 10 collect amount group by payee style csv",
			want: []Clause{
				{"select", "date, payee"},
				{"from", "posts"},
				{"where", "account =~ /Food/"},
				{"display", "amount > 10"},
				{"collect", "amount"},
				{"group by", "payee"},
				{"style", "csv"},
			},
		},
		{
			name: "GroupBySpacing",
			text: "select payee group    by payee",
			want: []Clause{{"select", "payee"}, {"group by", "payee"}},
		},
		{
			name: "KeywordInsideIdentifier",
			text: "select payee_from, total",
			want: []Clause{{"select", "payee_from, total"}},
		},
		{
			name: "SelectDoesNotEndClause",
			text: "select a select b",
			want: []Clause{{"select", "a select b"}},
		},
		{
			name: "NoClauses",
			text: "nothing here",
			want: nil,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Tokenize(test.text))
		})
	}
}

func TestSelectsAccounts(t *testing.T) {
	assert.True(t, SelectsAccounts("select account from accounts"))
	assert.True(t, SelectsAccounts("select account from   accounts where total > 0"))
	assert.False(t, SelectsAccounts("select account from accountsx"))
	assert.False(t, SelectsAccounts("select account from posts"))
}

func TestPrincipalIdentifier(t *testing.T) {
	tests := []struct {
		text      string
		ident     string
		ok        bool
		rewritten string
	}{
		{"date", "date", true, "date"},
		{"payee", "payee", true, "payee"},
		{"amount", "amount", true, "display_amount"},
		{"abs(total)", "total", true, "abs(display_total)"},
		{"amount + amount", "amount", true, "display_amount + display_amount"},
		{"payee + account", "payee", false, "payee + display_account"},
		{"note", "", true, "note"},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			e := expr.MustParse(test.text)
			var ident string
			ok := PrincipalIdentifier(e.Op, &ident, true)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.ident, ident)
			assert.Equal(t, test.rewritten, expr.Print(e.Op))
		})
	}
}

func TestComputeWidths(t *testing.T) {
	tests := []struct {
		name    string
		columns string
		want    Widths
	}{
		{"Shrinks", "100", Widths{Date: 10, Payee: 26, Account: 29, Amount: 15, Total: 15, Meta: 10}},
		{"Grows", "120", Widths{Date: 10, Payee: 31, Account: 38, Amount: 18, Total: 18, Meta: 10}},
		{"Default", "", Widths{Date: 10, Payee: 20, Account: 21, Amount: 12, Total: 12, Meta: 10}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, _ := newReport(t, test.columns)
			st, err := Compile(r, "select date, payee, account, amount, total")
			assert.NoError(t, err)
			assert.Equal(t, test.want, st.Widths)

			w := st.Widths
			cols := 80
			if test.columns != "" {
				cols = map[string]int{"100": 100, "120": 120}[test.columns]
			}
			assert.Equal(t, cols, w.Date+w.Payee+w.Account+w.Amount+w.Total+5)
			assert.False(t, r.Options.MustGet("payee_width").Handled)
		})
	}
}

func TestComputeWidthsKeepsGivenWidths(t *testing.T) {
	r, _ := newReport(t, "100")
	r.Options.MustGet("payee_width").On("--payee-width", "40")
	r.Options.MustGet("date_format").On("--date-format", "%Y-%m")

	st, err := Compile(r, "select date, payee, amount")
	assert.NoError(t, err)
	assert.Equal(t, 7, st.Widths.Date)
	assert.Equal(t, 40, st.Widths.Payee)
	assert.Equal(t, "40", r.Options.MustGet("payee_width").Value)
	assert.Equal(t, "7", r.Options.MustGet("date_width").Value)
}

func TestComputeWidthsFloor(t *testing.T) {
	r, _ := newReport(t, "20")
	r.Options.MustGet("payee_width").On("--payee-width", "20")

	st, err := Compile(r, "select date, payee, account, amount")
	assert.NoError(t, err)
	assert.Equal(t, 5, st.Widths.Account)
	assert.Equal(t, 20, st.Widths.Payee)
	assert.Equal(t, "5", r.Options.MustGet("account_width").Value)
	assert.Equal(t, "20", r.Options.MustGet("payee_width").Value)
}

func TestCompileFormat(t *testing.T) {
	r, _ := newReport(t, "100")
	st, err := Compile(r, "select date, payee, account, amount, total, note")
	assert.NoError(t, err)

	want := "%(ansify_if(ansify_if(justify(format_date(date), int(date_width)),green if color and date > today),bold if should_bold))" +
		" %(ansify_if(ansify_if(justify(truncated(payee, int(payee_width)), int(payee_width)),bold if color and !cleared and actual),bold if should_bold))" +
		" %(ansify_if(justify(truncated(display_account, int(account_width), int(abbrev_len)),int(account_width), -1, false, color), bold if should_bold))" +
		" %(ansify_if(justify(scrub(display_amount), int(amount_width),int(date_width) + 1 + int(payee_width) + 1 + int(account_width) + 1 + int(amount_width), true, color), bold if should_bold))" +
		" %(ansify_if(justify(scrub(display_total), int(total_width),int(date_width) + 1 + int(payee_width) + 1 + int(account_width) + 1 + int(amount_width) + 1 + int(total_width), true, color), bold if should_bold))" +
		" %(ansify_if(justify(truncated(note, int(meta_width or 10)), int(meta_width) or 10),bold if should_bold))\n"
	assert.Equal(t, want, st.Format)
	assert.Equal(t, FromPosts, st.Source)

	_, err = report.ParseFormat(st.Format)
	assert.NoError(t, err)
}

func TestCompileAccountsFormat(t *testing.T) {
	r, _ := newReport(t, "100")
	st, err := Compile(r, "select account from accounts")
	assert.NoError(t, err)
	assert.Equal(t, FromAccounts, st.Source)
	assert.Equal(t, "%(ansify_if(ansify_if(partial_account(options.flat), blue if color), bold if should_bold))\n", st.Format)

	_, err = report.ParseFormat(st.Format)
	assert.NoError(t, err)
}

func TestCompileMetaBeforeAmount(t *testing.T) {
	r, _ := newReport(t, "100")
	st, err := Compile(r, "select note, amount")
	assert.NoError(t, err)

	want := "%(ansify_if(justify(truncated(note, int(meta_width or 10)), int(meta_width) or 10),bold if should_bold))" +
		" %(ansify_if(justify(scrub(display_amount), int(amount_width),(int(meta_width) or 10) + 1 + int(amount_width), true, color), bold if should_bold))\n"
	assert.Equal(t, want, st.Format)

	_, err = report.ParseFormat(st.Format)
	assert.NoError(t, err)
}

func TestCompileSetsOptions(t *testing.T) {
	r, _ := newReport(t, "100")
	_, err := Compile(r, "select payee from xacts where account =~ /Food/ display amount collect amount group by payee")
	assert.NoError(t, err)

	for name, want := range map[string]string{
		"limit":    "account =~ /Food/",
		"display":  "amount",
		"amount":   "amount",
		"group_by": "payee",
	} {
		opt := r.Options.MustGet(name)
		assert.True(t, opt.Handled, name)
		assert.Equal(t, want, opt.Value, name)
		assert.Equal(t, "#select", opt.Source, name)
	}
}

func TestCompileUsage(t *testing.T) {
	r, _ := newReport(t, "100")
	_, err := Compile(r, "from posts")
	var logic *errors.LogicError
	assert.True(t, errors.As(err, &logic))
	assert.EqualError(t, err, "Usage: select TEXT")
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		exact bool
		want  string
	}{
		{
			name: "Posts",
			text: "select payee, amount from posts where account =~ /Expenses/",
			want: "Grocer $30\nLandlord $500\n",
		},
		{
			name: "Accounts",
			text: "select account from accounts",
			want: "Assets:Checking\nExpenses\nFood\nRent\n",
		},
		{
			name: "Commodities",
			text: "select payee from commodities",
			want: "$\n",
		},
		{
			name:  "Xacts",
			text:  "select payee from xacts where payee == 'Landlord'",
			exact: true,
			want: "2024/01/01 Landlord\n" +
				"    Expenses:Rent" + strings.Repeat(" ", 27) + "$500\n" +
				"    Assets:Checking\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, buf := newReport(t, "100")
			assert.NoError(t, Select(r, test.text))
			if test.exact {
				assert.Equal(t, test.want, buf.String())
				return
			}
			// column padding depends on the width, compare the words
			lines := strings.Split(buf.String(), "\n")
			for i, line := range lines {
				lines[i] = strings.Join(strings.Fields(line), " ")
			}
			assert.Equal(t, test.want, strings.Join(lines, "\n"))
		})
	}
}
