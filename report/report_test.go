package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/interval"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/textual"
)

const groceries = `2024/01/03 * Grocer
    Expenses:Food        $30
    Assets:Checking

2024/01/01 Landlord
    Expenses:Rent        $500
    Assets:Checking

2024/01/02 Grocer
    Expenses:Food        $12
    Assets:Cash
`

func fixedNow() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func newReport(t *testing.T, text string) (*Report, *bytes.Buffer) {
	t.Helper()
	j := journal.New(nil)
	_, err := textual.NewReader().Read(context.Background(), j, expr.NewSymbolScope(nil), strings.NewReader(text), "test.ledger")
	assert.NoError(t, err)
	var buf bytes.Buffer
	r := New(context.Background(), j, WithOutput(&buf), WithClock(fixedNow))
	return r, &buf
}

func TestParseFormat(t *testing.T) {
	r, _ := newReport(t, groceries)
	post := r.Journal.Xacts[0].Posts[0]

	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"Literal", "plain text", "plain text"},
		{"Expression", "%(payee)", "Grocer"},
		{"RightAligned", "%8(payee)|", "  Grocer|"},
		{"LeftAligned", "%-8(payee)|", "Grocer  |"},
		{"Truncated", "%.3(payee)", "Gro"},
		{"Percent", "100%% %(amount)", "100% $30"},
		{"Escapes", `a\tb\n`, "a\tb\n"},
		{"NestedParens", "%(justify((payee), 8, -1, true))", "  Grocer"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, err := ParseFormat(test.format)
			assert.NoError(t, err)
			got, err := f.Calc(r.PostScope(post))
			assert.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParseFormatErrors(t *testing.T) {
	_, err := ParseFormat("%(payee")
	assert.Error(t, err)
	_, err = ParseFormat("%5x")
	assert.Error(t, err)
}

func TestSplitFormat(t *testing.T) {
	first, rest := SplitFormat("a%/b")
	assert.Equal(t, "a", first)
	assert.Equal(t, "b", rest)

	first, rest = SplitFormat("ab")
	assert.Equal(t, "ab", first)
	assert.Equal(t, "ab", rest)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		width  int
		abbrev int
		want   string
	}{
		{"Fits", "Expenses:Food", 20, 2, "Expenses:Food"},
		{"AbbreviatesParents", "Expenses:Food:Groceries", 18, 2, "Ex:Food:Groceries"},
		{"CutsWhenStillLong", "Expenses:Food:Groceries", 10, 2, "Ex:Fo:Gr.."},
		{"PlainText", "A long payee name", 8, 2, "A long.."},
		{"NoWidth", "anything", 0, 2, "anything"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Truncate(test.text, test.width, test.abbrev))
		})
	}
}

func TestJustify(t *testing.T) {
	assert.Equal(t, "ab   ", Justify("ab", 5, false))
	assert.Equal(t, "   ab", Justify("ab", 5, true))
	assert.Equal(t, "abcdef", Justify("abcdef", 3, true))
}

func TestFormatDate(t *testing.T) {
	d := interval.Date(2024, 3, 7)
	tests := []struct {
		layout string
		want   string
	}{
		{"", "2024/03/07"},
		{"%Y-%m-%d", "2024-03-07"},
		{"%d %b %y", "07 Mar 24"},
		{"%j", "067"},
		{"100%%", "100%"},
		{"%q", "%q"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			assert.Equal(t, test.want, FormatDate(d, test.layout))
		})
	}
}

func TestOptions(t *testing.T) {
	opts := NewOptions()

	width, ok := opts.Get("--payee-width")
	assert.True(t, ok)
	assert.Equal(t, "payee_width", width.Name)
	assert.Equal(t, expr.Null, width.value())

	width.Set("20")
	assert.False(t, width.Handled)
	n, err := width.Int()
	assert.NoError(t, err)
	assert.Equal(t, 20, n)

	flat := opts.MustGet("flat")
	assert.False(t, flat.value().Truthy())
	flat.On("--flat", "")
	assert.True(t, flat.value().Truthy())
	assert.Equal(t, "--flat", flat.Source)

	clone := opts.Clone()
	clone.MustGet("flat").Off()
	assert.True(t, opts.MustGet("flat").Handled)

	_, ok = opts.Get("no_such_option")
	assert.False(t, ok)

	bad := opts.MustGet("depth")
	bad.On("--depth", "two")
	_, err = bad.Int()
	assert.EqualError(t, err, "Option --depth expects an integer, got 'two'")
}

func TestFormatPosts(t *testing.T) {
	r, buf := newReport(t, groceries)
	h, err := NewFormatPosts(r, "%-8(payee)%(display_amount)\n%/        %(display_amount)\n")
	assert.NoError(t, err)
	assert.NoError(t, r.PostsReport(h))
	assert.Equal(t, "Grocer  $30\n"+
		"        $-30\n"+
		"Landlord$500\n"+
		"        $-500\n"+
		"Grocer  $12\n"+
		"        $-12\n", buf.String())
}

func TestPostsReportOptions(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]string
		format  string
		want    string
	}{
		{
			name:    "Limit",
			options: map[string]string{"limit": "account =~ /Food/"},
			format:  "%(payee) %(display_total)\n",
			want:    "Grocer $30\nGrocer $42\n",
		},
		{
			name:    "Sort",
			options: map[string]string{"limit": "account =~ /Expenses/", "sort": "amount"},
			format:  "%(payee) %(amount)\n",
			want:    "Grocer $12\nGrocer $30\nLandlord $500\n",
		},
		{
			name:    "Display",
			options: map[string]string{"display": "account =~ /Food/"},
			format:  "%(display_total)\n",
			want:    "$30\n$12\n",
		},
		{
			name:    "Amount",
			options: map[string]string{"limit": "account =~ /Food/", "amount": "amount * 2"},
			format:  "%(display_amount) %(display_total)\n",
			want:    "$60 $60\n$24 $84\n",
		},
		{
			name:    "GroupBy",
			options: map[string]string{"group_by": "payee"},
			format:  "%(account) %(display_amount)\n",
			want: "Grocer\n" +
				"Expenses:Food $30\n" +
				"Assets:Checking $-30\n" +
				"Expenses:Food $12\n" +
				"Assets:Cash $-12\n" +
				"\n" +
				"Landlord\n" +
				"Expenses:Rent $500\n" +
				"Assets:Checking $-500\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, buf := newReport(t, groceries)
			for name, value := range test.options {
				r.Options.MustGet(name).On("test", value)
			}
			h, err := NewFormatPosts(r, test.format)
			assert.NoError(t, err)
			assert.NoError(t, r.PostsReport(h))
			assert.Equal(t, test.want, buf.String())
		})
	}
}

func balanceLine(total, name string) string {
	return fmt.Sprintf("%20s  %s\n", total, name)
}

func TestAccountsReport(t *testing.T) {
	r, buf := newReport(t, groceries)
	h, err := NewFormatAccounts(r, BalanceFormat)
	assert.NoError(t, err)
	assert.NoError(t, r.AccountsReport(h))

	want := balanceLine("$-542", "Assets") +
		balanceLine("$-12", "  Cash") +
		balanceLine("$-530", "  Checking") +
		balanceLine("$542", "Expenses") +
		balanceLine("$42", "  Food") +
		balanceLine("$500", "  Rent") +
		"--------------------\n" +
		fmt.Sprintf("%20s\n", "0")
	assert.Equal(t, want, buf.String())
}

func TestAccountsReportFoldsSingleChildParents(t *testing.T) {
	r, buf := newReport(t, `2024/01/01 Market
    Expenses:Food:Fruit     $5
    Assets:Cash
`)
	h, err := NewFormatAccounts(r, BalanceFormat)
	assert.NoError(t, err)
	assert.NoError(t, r.AccountsReport(h))

	want := balanceLine("$-5", "Assets:Cash") +
		balanceLine("$5", "Expenses:Food:Fruit") +
		"--------------------\n" +
		fmt.Sprintf("%20s\n", "0")
	assert.Equal(t, want, buf.String())
}

func TestAccountsReportOptions(t *testing.T) {
	t.Run("Flat", func(t *testing.T) {
		r, buf := newReport(t, groceries)
		r.Options.MustGet("flat").On("test", "")
		h, err := NewFormatAccounts(r, "%(partial_account(options.flat))\n")
		assert.NoError(t, err)
		assert.NoError(t, r.AccountsReport(h))
		assert.Equal(t, "Assets:Cash\nAssets:Checking\nExpenses:Food\nExpenses:Rent\n", buf.String())
	})

	t.Run("Depth", func(t *testing.T) {
		r, buf := newReport(t, groceries)
		r.Options.MustGet("depth").On("test", "1")
		h, err := NewFormatAccounts(r, "%(account) %(display_total)\n")
		assert.NoError(t, err)
		assert.NoError(t, r.AccountsReport(h))
		assert.Equal(t, "Assets $-542\nExpenses $542\n", buf.String())
	})

	t.Run("HidesZeroBalances", func(t *testing.T) {
		r, buf := newReport(t, `2024/01/01 Transfer
    Assets:Savings     $10
    Assets:Checking   $-10

2024/01/02 Transfer back
    Assets:Savings    $-10
    Assets:Checking    $10

2024/01/03 Lunch
    Expenses:Food       $8
    Assets:Cash
`)
		h, err := NewFormatAccounts(r, "%(account)\n")
		assert.NoError(t, err)
		assert.NoError(t, r.AccountsReport(h))
		assert.Equal(t, "Assets:Cash\nExpenses:Food\n", buf.String())
	})
}

func TestPrintXacts(t *testing.T) {
	r, buf := newReport(t, groceries)
	r.Options.MustGet("limit").On("test", "payee == 'Landlord'")
	assert.NoError(t, r.PostsReport(NewPrintXacts(r, false)))

	want := "2024/01/01 Landlord\n" +
		"    Expenses:Rent" + strings.Repeat(" ", 48-17-4) + "$500\n" +
		"    Assets:Checking\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintXactsRaw(t *testing.T) {
	r, buf := newReport(t, groceries)
	r.Options.MustGet("limit").On("test", "payee == 'Grocer'")
	assert.NoError(t, r.PostsReport(NewPrintXacts(r, true)))

	want := "2024/01/03 * Grocer\n" +
		"    Expenses:Food        $30\n" +
		"    Assets:Checking\n" +
		"\n" +
		"2024/01/02 Grocer\n" +
		"    Expenses:Food        $12\n" +
		"    Assets:Cash\n"
	assert.Equal(t, want, buf.String())
}

func TestCommoditiesReport(t *testing.T) {
	r, buf := newReport(t, `2024/01/01 Exchange
    Assets:Euro        10 EUR
    Assets:Checking      $-11

2024/01/02 Exchange
    Assets:Euro         5 EUR
    Assets:Checking       $-6
`)
	h, err := NewFormatPosts(r, "%(payee) %(account) %(amount)\n")
	assert.NoError(t, err)
	assert.NoError(t, r.CommoditiesReport(h))
	assert.Equal(t, "EUR Commodities:EUR 1 EUR\n$ Commodities:$ $1\n", buf.String())
}

func TestReportLookup(t *testing.T) {
	r, _ := newReport(t, groceries)
	r.Options.MustGet("abbrev_len").On("test", "4")

	tests := []struct {
		text string
		want string
	}{
		{"abbrev_len", "4"},
		{"options.abbrev_len", "4"},
		{"red", "red"},
		{"today", "2024/06/01"},
		{"str(int('12') + 1)", "13"},
		{"format_date(today, '%d.%m.%Y')", "01.06.2024"},
		{"quantity($30)", "30"},
		{"commodity($30)", "$"},
		{"abs(-5)", "5"},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			e, err := r.Parse(test.text)
			assert.NoError(t, err)
			v, err := e.Calc(r)
			assert.NoError(t, err)
			assert.Equal(t, test.want, v.AsString())
		})
	}
}

func TestJustifyColorizesNegatives(t *testing.T) {
	r, _ := newReport(t, groceries)
	post := r.Journal.Xacts[0].Posts[1]
	f, err := ParseFormat("%(justify(amount, 6, -1, true, true))")
	assert.NoError(t, err)
	got, err := f.Calc(r.PostScope(post))
	assert.NoError(t, err)
	assert.Equal(t, "\x1b[31m  $-30\x1b[0m", got)
}

func TestPostScope(t *testing.T) {
	r, _ := newReport(t, `2024/01/03=2024/01/05 * (42) Grocer
    Expenses:Food        $30  ; :weekly:
    [Budget:Food]       $-30
    [Budget:Unassigned]  $30
    (Tracking)            $1
    Assets:Checking
`)
	posts := r.Journal.Xacts[0].Posts

	tests := []struct {
		post int
		text string
		want string
	}{
		{0, "payee", "Grocer"},
		{0, "code", "42"},
		{0, "format_date(aux_date)", "2024/01/05"},
		{0, "cleared", "true"},
		{0, "has_tag('weekly')", "true"},
		{0, "depth", "2"},
		{0, "partial_account(true)", "Expenses:Food"},
		{1, "display_account", "[Budget:Food]"},
		{3, "display_account", "(Tracking)"},
		{3, "virtual", "true"},
		{4, "calculated", "true"},
		{4, "xact.count", "5"},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			e, err := r.Parse(test.text)
			assert.NoError(t, err)
			v, err := e.Calc(r.PostScope(posts[test.post]))
			assert.NoError(t, err)
			assert.Equal(t, test.want, v.AsString())
		})
	}
}
