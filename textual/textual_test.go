package textual

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

func TestApplyStackIsolation(t *testing.T) {
	s := NewApplyStack(nil)
	for i := 0; i < 3; i++ {
		s.PushFront("tag", TagApplication("t"))
	}
	for i := 0; i < 3; i++ {
		assert.NoError(t, s.PopFront())
	}
	assert.Equal(t, 0, s.Len())
	assert.EqualError(t, s.PopFront(), "Apply stack is empty")
}

func TestGetApplication(t *testing.T) {
	root := journal.NewRoot()
	assets := root.FindAccount("Assets", true)
	expenses := root.FindAccount("Expenses", true)

	parent := NewApplyStack(nil)
	parent.PushFront("account", assets)
	parent.PushFront("tag", TagApplication("outer"))

	child := NewApplyStack(parent)
	acct, ok := GetApplication[*journal.Account](child)
	assert.True(t, ok)
	assert.Equal(t, assets, acct)

	child.PushFront("account", expenses)
	child.PushFront("year", YearApplication(2023))
	acct, ok = GetApplication[*journal.Account](child)
	assert.True(t, ok)
	assert.Equal(t, expenses, acct)

	child.PushFront("tag", TagApplication("inner"))
	assert.Equal(t, []TagApplication{"inner", "outer"}, GetApplications[TagApplication](child))
	assert.Equal(t, []*journal.Account{expenses, assets}, GetApplications[*journal.Account](child))

	// lookups leave both stacks untouched
	assert.Equal(t, 3, child.Len())
	assert.Equal(t, 2, parent.Len())

	_, ok = GetApplication[YearApplication](parent)
	assert.False(t, ok)
}

func TestFront(t *testing.T) {
	s := NewApplyStack(nil)
	_, err := Front[TagApplication](s)
	assert.EqualError(t, err, "Apply stack is empty")
	assert.False(t, IsFrontType[TagApplication](s))

	s.PushFront("year", YearApplication(2024))
	assert.True(t, IsFrontType[YearApplication](s))
	assert.False(t, IsFrontType[TagApplication](s))

	y, err := Front[YearApplication](s)
	assert.NoError(t, err)
	assert.Equal(t, YearApplication(2024), y)

	_, err = Front[TagApplication](s)
	assert.EqualError(t, err, "Front of the apply stack is 'year', not textual.TagApplication")

	label, ok := s.FrontLabel()
	assert.True(t, ok)
	assert.Equal(t, "year", label)
}

func TestParseContextStack(t *testing.T) {
	var s ParseContextStack
	_, err := s.Current()
	assert.Error(t, err)
	assert.EqualError(t, s.Pop(), "Unexpected pop of an empty parse context stack")

	s.PushReader(strings.NewReader("a\nb"), "outer", "/tmp")
	s.PushReader(strings.NewReader("c"), "inner", "/tmp")
	assert.Equal(t, 2, s.Len())

	inner, err := s.Current()
	assert.NoError(t, err)
	assert.Equal(t, "outer", inner.Master.Path)
	assert.Equal(t, inner.Master.Apply, inner.Apply.Parent())

	assert.NoError(t, s.Pop())
	assert.NoError(t, s.Pop())
	assert.Equal(t, 0, s.Len())
}

type closeRecorder struct {
	*strings.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestPopClosesReader(t *testing.T) {
	var s ParseContextStack
	r := &closeRecorder{Reader: strings.NewReader("")}
	s.PushReader(r, "journal", "")
	assert.NoError(t, s.Pop())
	assert.True(t, r.closed)
}

func fixedClock() time.Time {
	return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func read(t *testing.T, text string) (*journal.Journal, int, error) {
	t.Helper()
	j := journal.New(nil)
	n, err := NewReader(WithClock(fixedClock)).Read(context.Background(), j, expr.NewSymbolScope(nil), strings.NewReader(text), "test.ledger")
	return j, n, err
}

func TestReadTransactions(t *testing.T) {
	j, n, err := read(t, `; opening comment
2024/01/01 * (1001) Landlord  ; :rent:monthly:
    Expenses:Rent               $1,000.00
    Assets:Checking

2024/01/05=2024/01/07 ! Grocer
    Expenses:Food               $42.50  ; receipt: 17
    [Budget:Food]              $-42.50
    [Budget:Available]          $42.50
    (Tracking)                  $1
    Assets:Checking
`)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, len(j.Xacts))

	rent := j.Xacts[0]
	assert.Equal(t, journal.Cleared, rent.State)
	assert.Equal(t, "1001", rent.Code)
	assert.Equal(t, "Landlord", rent.Payee)
	assert.True(t, rent.Meta.Has("rent"))
	assert.True(t, rent.Meta.Has("monthly"))
	assert.Equal(t, "$-1,000.00", rent.Posts[1].Amount.String())
	assert.Equal(t, 2, rent.Pos.Line)

	grocer := j.Xacts[1]
	assert.Equal(t, journal.Pending, grocer.State)
	assert.Equal(t, "2024/01/07", grocer.AuxDate.Format("2006/01/02"))
	assert.Equal(t, "17", grocer.Posts[0].Meta["receipt"])
	assert.True(t, grocer.Posts[1].Virtual && grocer.Posts[1].MustBalance)
	assert.True(t, grocer.Posts[3].Virtual && !grocer.Posts[3].MustBalance)
	assert.Equal(t, "$-42.50", grocer.Posts[4].Amount.String())
	assert.Equal(t, 8, grocer.Posts[1].Pos.Line)
}

func TestReadCostAndExpressions(t *testing.T) {
	j, _, err := read(t, `2024/02/01 Broker
    Assets:Brokerage    10 AAPL @ $50.00
    Assets:Checking     $-500.00

2024/02/02 Broker
    Assets:Brokerage    -5 AAPL @@ $260.00
    Assets:Checking

2024/02/03 Split
    Expenses:Food       ($30.00 / 3)
    Assets:Checking
`)
	assert.NoError(t, err)
	assert.Equal(t, "$260.00", j.Xacts[1].Posts[1].Amount.String())
	food := j.Xacts[2].Posts[0]
	assert.Equal(t, "$10.00", food.Amount.String())
	assert.Equal(t, "($30.00 / 3)", food.AmountExpr.Text)
}

func TestReadDirectives(t *testing.T) {
	j, _, err := read(t, `alias chk=Assets:Checking
account Expenses:Rent
    alias rent
    note Monthly apartment rent
payee Landlord
commodity $
    format $1,000.00
year 2023
define budget=$1000
assert budget > $500
comment
this is ignored 2024/01/01 garbage
end comment

apply tag trip
apply account Expenses
01/15 Hotel
    Travel:Lodging    $120
    chk
end apply account
end apply tag

01/16 Landlord
    rent    $1000
    chk
`)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(j.Xacts))

	hotel := j.Xacts[0]
	assert.Equal(t, 2023, hotel.Date.Year())
	assert.True(t, hotel.Meta.Has("trip"))
	assert.Equal(t, "Expenses:Travel:Lodging", hotel.Posts[0].Account.FullName())
	assert.Equal(t, "Assets:Checking", hotel.Posts[1].Account.FullName())

	rent := j.Xacts[1]
	assert.False(t, rent.Meta.Has("trip"))
	assert.Equal(t, "Expenses:Rent", rent.Posts[0].Account.FullName())
	assert.Equal(t, "Monthly apartment rent", rent.Posts[0].Account.Note)
	assert.True(t, j.KnownPayee("Landlord"))
	assert.Equal(t, "$1,000.00", rent.Posts[0].Amount.String())
	assert.Equal(t, "$-1,000.00", rent.Posts[1].Amount.String())
}

func TestReadPeriodXact(t *testing.T) {
	j, n, err := read(t, `~ Monthly from 2024/01/01  ; rent budget
    Expenses:Rent    $100
    Assets:Checking
`)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, len(j.PeriodXacts))

	px := j.PeriodXacts[0]
	assert.Equal(t, "Monthly from 2024/01/01", px.Period)
	assert.Equal(t, "rent budget", px.Note)
	assert.Equal(t, 2, len(px.Posts))
	assert.Equal(t, "$-100", px.Posts[1].Amount.String())
	assert.Equal(t, "2024/01/01", px.Interval.Range.Begin.Format("2006/01/02"))
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name: "unbalanced transaction",
			input: `2024/01/01 Shop
    Expenses:Food    $10
    Assets:Checking  $-9
`,
			want: []string{"test.ledger:1: Transaction does not balance: remainder is $1"},
		},
		{
			name:  "end without apply",
			input: "end apply\n",
			want:  []string{"test.ledger:1: 'end apply' found, but no enclosing 'apply' directive"},
		},
		{
			name:  "mismatched end apply",
			input: "apply tag x\nend apply account\nend apply tag\n",
			want:  []string{"test.ledger:2: 'end apply account' directive does not match 'apply tag' directive"},
		},
		{
			name:  "unknown directive",
			input: "frobnicate now\n",
			want:  []string{"test.ledger:1: Unknown directive 'frobnicate'"},
		},
		{
			name:  "failed assertion",
			input: "assert 1 > 2\n",
			want:  []string{"test.ledger:1: Assertion failed: 1 > 2"},
		},
		{
			name:  "missing include",
			input: "include nowhere.ledger\n",
			want:  []string{`test.ledger:1: File to include was not found: "nowhere.ledger"`},
		},
		{
			name: "errors are collected and parsing continues",
			input: `2024/13/01 Bad month
    Expenses:Food    $1
    Assets:Checking
  stray
2024/01/02 Good
    Expenses:Food    $1
    Assets:Checking
`,
			want: []string{
				`test.ledger:1: invalid month in date "2024/13/01"`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := read(t, tt.input)
			var perrs *errors.ParseErrors
			assert.True(t, errors.As(err, &perrs))
			var got []string
			for _, e := range perrs.Errors {
				got = append(got, e.Error())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIncludeInheritsApply(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/travel.ledger", `apply tag leg: two
2024/03/02 Train
    Rail    $30
    Assets:Checking
end apply tag
`)
	main := writeFile(t, dir, "main.ledger", `apply account Expenses
apply tag trip
include sub/travel.ledger
end apply tag
2024/03/03 Cafe
    Food    $4
    Assets:Checking
end apply account
`)

	j := journal.New(nil)
	n, err := NewReader().ReadFile(context.Background(), j, nil, main)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{main, filepath.Join(dir, "sub", "travel.ledger")}, j.Sources)

	train := j.Xacts[0]
	assert.Equal(t, "Expenses:Rail", train.Posts[0].Account.FullName())
	// the applied account also captures the balancing account
	assert.Equal(t, "Expenses:Assets:Checking", train.Posts[1].Account.FullName())
	assert.True(t, train.Meta.Has("trip"))
	assert.Equal(t, "two", train.Meta["leg"])

	cafe := j.Xacts[1]
	assert.Equal(t, "Expenses:Food", cafe.Posts[0].Account.FullName())
	assert.False(t, cafe.Meta.Has("trip"))
}

func TestIncludeErrorsCarryTheirFile(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.ledger", "end apply\n")
	main := writeFile(t, dir, "main.ledger", "include broken.ledger\ninclude *.missing\n")

	_, err := NewReader().ReadFile(context.Background(), journal.New(nil), nil, main)
	var perrs *errors.ParseErrors
	assert.True(t, errors.As(err, &perrs))
	assert.Equal(t, 2, len(perrs.Errors))
	assert.Equal(t, broken+":1: 'end apply' found, but no enclosing 'apply' directive", perrs.Errors[0].Error())
	assert.Equal(t, main+`:2: File to include was not found: "*.missing"`, perrs.Errors[1].Error())
}

func TestRecursiveInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.ledger", "include a.ledger\n")
	a := writeFile(t, dir, "a.ledger", "include b.ledger\n")

	_, err := NewReader().ReadFile(context.Background(), journal.New(nil), nil, a)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `Recursive include of "a.ledger"`)
}

func TestReadStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j := journal.New(nil)
	n, err := NewReader().Read(ctx, j, nil, strings.NewReader("2024/01/01 X\n    A  $1\n    B\n"), "test.ledger")
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		note string
		want journal.Metadata
	}{
		{":a:b:", journal.Metadata{"a": "", "b": ""}},
		{"Paid: yes", journal.Metadata{"Paid": "yes"}},
		{"lunch with :work: people", journal.Metadata{"work": ""}},
		{"plain note", journal.Metadata{}},
	}
	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMetadata(tt.note, nil))
		})
	}
}
