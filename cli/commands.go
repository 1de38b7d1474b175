package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	File     []string `short:"f" help:"Journal file to read. Repeat to read several." type:"path"`
	Settings string   `help:"Settings YAML file read before the user settings." type:"existingfile"`
	EnvFile  string   `name:"env-file" help:"Read LEDGER_* variables from a .env file." type:"existingfile"`

	Columns int  `help:"Width of register reports, overriding COLUMNS."`
	Color   bool `help:"Colour report output."`

	Verbose   bool `short:"v" help:"Log informational messages."`
	Debug     bool `help:"Log debug messages."`
	LogJSON   bool `name:"log-json" help:"Log as JSON."`
	Telemetry bool `help:"Show timing telemetry for operations."`
}

type Commands struct {
	Globals

	Select   SelectCmd   `cmd:"" help:"Run a select query."`
	Register RegisterCmd `cmd:"" aliases:"reg" help:"Show postings with a running total."`
	Balance  BalanceCmd  `cmd:"" aliases:"bal" help:"Show account balances."`
	Print    PrintCmd    `cmd:"" help:"Print transactions in journal syntax."`
	Budget   BudgetCmd   `cmd:"" help:"Compare postings against periodic budgets."`
	Eval     EvalCmd     `cmd:"" aliases:"expr" help:"Evaluate a value expression."`
	Repl     ReplCmd     `cmd:"" help:"Read commands interactively."`
	Exec     ExecCmd     `cmd:"" help:"Execute the commands of a script."`
	Check    CheckCmd    `cmd:"" help:"Read the journal and report every error."`
	Serve    ServeCmd    `cmd:"" help:"Serve the journal over HTTP."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging journals and queries."`
}
