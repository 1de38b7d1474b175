package cli

import (
	"strconv"

	"github.com/alecthomas/kong"
)

// ReportFlags are the report options shared by the posting commands.
type ReportFlags struct {
	Limit   string `short:"l" help:"Only include postings matching this expression."`
	Display string `short:"d" help:"Only display postings matching this expression."`
	Sort    string `short:"S" help:"Sort postings by this expression."`
	Amount  string `short:"t" help:"Use this expression as the posting amount."`
	GroupBy string `name:"group-by" help:"Group postings by this expression."`
	Date    string `name:"date-format" help:"strftime format of dates."`
}

func (f ReportFlags) args() []string {
	var args []string
	add := func(name, value string) {
		if value != "" {
			args = append(args, "--"+name+"="+value)
		}
	}
	add("limit", f.Limit)
	add("display", f.Display)
	add("sort", f.Sort)
	add("amount", f.Amount)
	add("group-by", f.GroupBy)
	add("date-format", f.Date)
	return args
}

// AccountFlags shape the accounts reports.
type AccountFlags struct {
	Flat  bool `help:"Show full account names without nesting."`
	Depth int  `help:"Collapse accounts deeper than this."`
	Empty bool `short:"E" help:"Show accounts with a zero balance."`
}

func (f AccountFlags) args() []string {
	var args []string
	if f.Flat {
		args = append(args, "--flat")
	}
	if f.Depth > 0 {
		args = append(args, "--depth="+strconv.Itoa(f.Depth))
	}
	if f.Empty {
		args = append(args, "--empty")
	}
	return args
}

func command(verb string, flags []string, rest ...string) []string {
	args := append([]string{verb}, flags...)
	if len(rest) > 0 {
		args = append(args, "--")
		args = append(args, rest...)
	}
	return args
}

type SelectCmd struct {
	Query []string `arg:"" help:"Select statement, e.g. \"payee, amount from posts where account =~ /Food/\"."`
}

func (cmd *SelectCmd) Run(ctx *kong.Context, globals *Globals) error {
	return globals.runArgs(ctx, "select", command("select", nil, cmd.Query...))
}

type RegisterCmd struct {
	ReportFlags
	Masks []string `arg:"" optional:"" help:"Account masks; prefix with @ to match payees."`
}

func (cmd *RegisterCmd) Run(ctx *kong.Context, globals *Globals) error {
	return globals.runArgs(ctx, "register", command("register", cmd.ReportFlags.args(), cmd.Masks...))
}

type BalanceCmd struct {
	ReportFlags
	AccountFlags
	Masks []string `arg:"" optional:"" help:"Account masks; prefix with @ to match payees."`
}

func (cmd *BalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
	flags := append(cmd.ReportFlags.args(), cmd.AccountFlags.args()...)
	return globals.runArgs(ctx, "balance", command("balance", flags, cmd.Masks...))
}

type PrintCmd struct {
	ReportFlags
	Raw   bool     `help:"Print transactions exactly as they were read."`
	Masks []string `arg:"" optional:"" help:"Account masks; prefix with @ to match payees."`
}

func (cmd *PrintCmd) Run(ctx *kong.Context, globals *Globals) error {
	flags := cmd.ReportFlags.args()
	if cmd.Raw {
		flags = append(flags, "--raw")
	}
	return globals.runArgs(ctx, "print", command("print", flags, cmd.Masks...))
}

type BudgetCmd struct {
	ReportFlags
	AccountFlags
	Unbudgeted bool     `help:"Show only postings outside every budget."`
	Masks      []string `arg:"" optional:"" help:"Account masks; prefix with @ to match payees."`
}

func (cmd *BudgetCmd) Run(ctx *kong.Context, globals *Globals) error {
	flags := append(cmd.ReportFlags.args(), cmd.AccountFlags.args()...)
	if cmd.Unbudgeted {
		flags = append(flags, "--unbudgeted")
	}
	return globals.runArgs(ctx, "budget", command("budget", flags, cmd.Masks...))
}

type EvalCmd struct {
	Expr []string `arg:"" help:"Value expression."`
}

func (cmd *EvalCmd) Run(ctx *kong.Context, globals *Globals) error {
	return globals.runArgs(ctx, "eval", command("eval", nil, cmd.Expr...))
}
