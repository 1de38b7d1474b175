package session

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/cancel"
	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/ext"
	"github.com/robinvdvleuten/ledger/ext/js"
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

func newContext() *Context {
	return NewContext(WithEnviron([]string{"COLUMNS=80"}), WithClock(fixedNow))
}

func newSession(t *testing.T) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.ledger")
	assert.NoError(t, os.WriteFile(path, []byte(groceries), 0o600))

	var out, errOut bytes.Buffer
	s := New(newContext(), WithFiles(path), WithOutput(&out), WithErrorOutput(&errOut))
	n, err := s.ReadJournalFiles(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	return s, &out, &errOut
}

func words(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func balanceLine(total, name string) string {
	return fmt.Sprintf("%20s  %s\n", total, name)
}

func TestSplitArguments(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"Words", "bal  Assets   Expenses", []string{"bal", "Assets", "Expenses"}},
		{"DoubleQuotes", `reg "Expenses:Dining Out"`, []string{"reg", "Expenses:Dining Out"}},
		{"SingleQuotes", `eval 'a "b"'`, []string{"eval", `a "b"`}},
		{"SingleQuotesKeepBackslash", `x 'a\b'`, []string{"x", `a\b`}},
		{"Backslash", `x a\ b`, []string{"x", "a b"}},
		{"QuoteInsideWord", `--limit=payee=="Grocer"`, []string{`--limit=payee==Grocer`}},
		{"EmptyQuotes", `bal ''`, []string{"bal"}},
		{"Blank", "   ", nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := SplitArguments(test.line)
			assert.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestSplitArgumentsErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`bal \`, "Invalid use of backslash"},
		{`bal "Assets`, `Unterminated string, expected '"'`},
		{`bal 'Assets`, "Unterminated string, expected '''"},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			_, err := SplitArguments(test.line)
			assert.EqualError(t, err, test.want)
			var logic *errors.LogicError
			assert.True(t, errors.As(err, &logic))
		})
	}
}

func TestContextAcquire(t *testing.T) {
	c := newContext()
	release, err := c.Acquire()
	assert.NoError(t, err)

	_, err = c.Acquire()
	assert.EqualError(t, err, "Cannot acquire current thread because it has been already acquired")

	release()
	release()
	again, err := c.Acquire()
	assert.NoError(t, err)
	again()
}

func TestContextClone(t *testing.T) {
	c := newContext()
	release, err := c.Acquire()
	assert.NoError(t, err)
	defer release()
	c.Gate.Set(cancel.Interrupted)

	clone := c.Clone()
	assert.True(t, c.Pool != clone.Pool)
	assert.Equal(t, cancel.None, clone.Gate.Signal())
	assert.Equal(t, "80", clone.Getenv("COLUMNS"))

	cloneRelease, err := clone.Acquire()
	assert.NoError(t, err)
	cloneRelease()

	clone.Env["COLUMNS"] = "120"
	assert.Equal(t, "80", c.Getenv("COLUMNS"))
}

func TestContextCloneOwnsProvider(t *testing.T) {
	c := NewContext(WithProviderFactory(func() (ext.Provider, error) { return js.New(), nil }))
	first, second := c.Clone(), c.Clone()
	assert.True(t, first.Provider != nil)
	assert.True(t, first.Provider != second.Provider)

	assert.NoError(t, first.Provider.Initialize())
	assert.NoError(t, first.Provider.Eval("function rate() { return 2 }", ext.EvalMulti))
	assert.True(t, first.Provider.Lookup(expr.Function, "rate") != nil)

	assert.NoError(t, second.Provider.Initialize())
	assert.True(t, second.Provider.Lookup(expr.Function, "rate") == nil)
}

func TestReadJournalFilesRequiresFiles(t *testing.T) {
	s := New(newContext(), WithFiles())
	_, err := s.ReadJournalFiles(context.Background())
	assert.EqualError(t, err, "No journal file was specified (please use -f)")
}

func TestExecuteCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		exact bool
		want  string
	}{
		{
			name:  "Balance",
			args:  []string{"bal", "Food"},
			exact: true,
			want:  balanceLine("$42", "Expenses:Food"),
		},
		{
			name:  "BalanceFlat",
			args:  []string{"balance", "--flat", "Rent", "Cash"},
			exact: true,
			want: balanceLine("$-12", "Assets:Cash") +
				balanceLine("$500", "Expenses:Rent") +
				"--------------------\n" +
				fmt.Sprintf("%20s\n", "$488"),
		},
		{
			name: "Register",
			args: []string{"reg", "Food"},
			want: "2024/01/03 Grocer Expenses:Food $30 $30\n" +
				"2024/01/02 Grocer Expenses:Food $12 $42\n",
		},
		{
			name: "RegisterPayeeMask",
			args: []string{"register", "@Land"},
			want: "2024/01/01 Landlord Expenses:Rent $500 $500\n" +
				"2024/01/01 Landlord Assets:Checking $-500 $0\n",
		},
		{
			name: "RegisterWithLimit",
			args: []string{"reg", "--limit", "amount > $20", "Food"},
			want: "2024/01/03 Grocer Expenses:Food $30 $30\n",
		},
		{
			name: "Select",
			args: []string{"select", "payee,", "amount", "where", "account =~ /Rent/"},
			want: "Landlord $500\n",
		},
		{
			name:  "Print",
			args:  []string{"print", "Rent"},
			exact: true,
			want: "2024/01/01 Landlord\n" +
				"    Expenses:Rent" + strings.Repeat(" ", 27) + "$500\n" +
				"    Assets:Checking\n",
		},
		{
			name:  "Eval",
			args:  []string{"eval", "2", "+", "3"},
			exact: true,
			want:  "5\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, out, _ := newSession(t)
			assert.NoError(t, s.ExecuteCommand(context.Background(), test.args))
			if test.exact {
				assert.Equal(t, test.want, out.String())
				return
			}
			assert.Equal(t, test.want, words(out.String()))
		})
	}
}

func TestExecuteCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"Unknown", []string{"frobnicate"}, "Unrecognized command 'frobnicate'"},
		{"IllegalOption", []string{"bal", "--frob"}, "Illegal option --frob"},
		{"MissingArgument", []string{"reg", "--limit"}, "Missing option argument for --limit"},
		{"NoCommand", []string{"--flat"}, "Usage: COMMAND [OPTIONS] [ARGS]"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, _, _ := newSession(t)
			assert.EqualError(t, s.ExecuteCommand(context.Background(), test.args), test.want)
		})
	}
}

func TestExecuteCommandHoldsContext(t *testing.T) {
	s, _, _ := newSession(t)
	release, err := s.Context().Acquire()
	assert.NoError(t, err)

	err = s.ExecuteCommand(context.Background(), []string{"bal"})
	assert.EqualError(t, err, "Cannot acquire current thread because it has been already acquired")

	release()
	assert.NoError(t, s.ExecuteCommand(context.Background(), []string{"bal"}))
}

func TestExecuteCommandWrapper(t *testing.T) {
	s, _, errOut := newSession(t)
	assert.Equal(t, 0, s.ExecuteCommandWrapper(context.Background(), []string{"bal"}))
	assert.Equal(t, 1, s.ExecuteCommandWrapper(context.Background(), []string{"nope"}))
	assert.Equal(t, "Error: Unrecognized command 'nope'\n", errOut.String())
}

func TestExecuteCommandWrapperDiscardsSignal(t *testing.T) {
	s, _, errOut := newSession(t)
	s.Context().Gate.Set(cancel.Interrupted)
	assert.Equal(t, 1, s.ExecuteCommandWrapper(context.Background(), []string{"nope"}))
	assert.Contains(t, errOut.String(), "Unrecognized command")
	assert.False(t, s.Context().Gate.Requested())
}

func TestExecuteScript(t *testing.T) {
	s, out, errOut := newSession(t)
	script := strings.NewReader("# monthly check\nbal Food\n\nbogus\nbal Rent\n")

	status, err := s.ExecuteScript(context.Background(), script)
	assert.NoError(t, err)
	assert.Equal(t, 1, status)
	assert.Equal(t, balanceLine("$42", "Expenses:Food"), out.String())
	assert.Equal(t, "Error: Unrecognized command 'bogus'\n", errOut.String())
}

func TestExecuteScriptSplitError(t *testing.T) {
	s, _, _ := newSession(t)
	_, err := s.ExecuteScript(context.Background(), strings.NewReader(`bal "Food`))
	assert.EqualError(t, err, `Unterminated string, expected '"'`)
}

func TestREPL(t *testing.T) {
	s, out, errOut := newSession(t)
	in := strings.NewReader("bal Food\n\n#\nnope\nQUIT\nbal Rent\n")

	assert.NoError(t, s.REPL(context.Background(), in, ""))
	assert.Equal(t, balanceLine("$42", "Expenses:Food"), out.String())
	assert.Equal(t, "Error: Unrecognized command 'nope'\n", errOut.String())
}

func TestREPLStopsOnSignal(t *testing.T) {
	s, out, _ := newSession(t)
	s.Context().Gate.Set(cancel.PipeClosed)

	err := s.REPL(context.Background(), strings.NewReader("bal\n"), "] ")
	assert.EqualError(t, err, "Pipe terminated")
	assert.Equal(t, "] ", out.String())
}

func TestRun(t *testing.T) {
	t.Run("Args", func(t *testing.T) {
		s, out, _ := newSession(t)
		assert.Equal(t, 0, s.Run(context.Background(), []string{"bal", "Rent"}, nil, nil))
		assert.Equal(t, balanceLine("$500", "Expenses:Rent"), out.String())
	})
	t.Run("Script", func(t *testing.T) {
		s, out, _ := newSession(t)
		status := s.Run(context.Background(), nil, strings.NewReader("bal Rent\n"), nil)
		assert.Equal(t, 0, status)
		assert.Equal(t, balanceLine("$500", "Expenses:Rent"), out.String())
	})
	t.Run("NoFiles", func(t *testing.T) {
		var errOut bytes.Buffer
		s := New(newContext(), WithFiles(), WithErrorOutput(&errOut))
		assert.Equal(t, 1, s.Run(context.Background(), []string{"bal"}, nil, nil))
		assert.Equal(t, "Error: No journal file was specified (please use -f)\n", errOut.String())
	})
}

func TestEngine(t *testing.T) {
	e := NewEngine(newContext())

	t.Run("Input", func(t *testing.T) {
		resp := e.NewSession(context.Background(), []string{"bal", "Rent"}, groceries)
		assert.True(t, resp.OK())
		assert.Equal(t, balanceLine("$500", "Expenses:Rent"), resp.Output)
		assert.Equal(t, "", resp.Error)
	})
	t.Run("NoJournal", func(t *testing.T) {
		resp := e.NewSession(context.Background(), []string{"bal"}, "")
		assert.Equal(t, 1, resp.Status)
		assert.Equal(t, "Error: No journal file was specified (please use -f)\n", resp.Error)
	})
	t.Run("Execute", func(t *testing.T) {
		resp := e.Execute(context.Background(), `reg "@Grocer" --limit "amount == $12"`, groceries)
		assert.True(t, resp.OK())
		assert.Equal(t, "2024/01/02 Grocer Expenses:Food $12 $12\n", words(resp.Output))
	})
	t.Run("ExecuteSplitError", func(t *testing.T) {
		resp := e.Execute(context.Background(), `bal \`, groceries)
		assert.Equal(t, 1, resp.Status)
		assert.Equal(t, "Error: Invalid use of backslash\n", resp.Error)
	})
}

func TestEngineConcurrentSessions(t *testing.T) {
	e := NewEngine(newContext())
	results := make(chan Response, 8)
	for i := 0; i < cap(results); i++ {
		go func() {
			results <- e.NewSession(context.Background(), []string{"bal", "Food"}, groceries)
		}()
	}
	for i := 0; i < cap(results); i++ {
		resp := <-results
		assert.Equal(t, balanceLine("$42", "Expenses:Food"), resp.Output)
	}
}
