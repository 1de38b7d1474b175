package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ledger/cli"
	"github.com/robinvdvleuten/ledger/errors"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	app struct {
		Version kong.VersionFlag `help:"Show version information"`
		cli.Commands
	}
)

func main() {
	cli.Version = Version
	cli.CommitSHA = CommitSHA

	ctx := kong.Parse(&app,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("ledger"),
		kong.Description("A double-entry accounting tool for plain text journals."),
		kong.UsageOnError(),
		kong.Bind(&app.Globals),
	)

	os.Exit(exitCode(ctx.Stderr, ctx.Model.Name, ctx.Run()))
}

// exitCode maps a command's result to the process status. Commands that
// already reported their failure return a CommandError or CountError.
func exitCode(w io.Writer, name string, err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *cli.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode()
	}
	var countErr *errors.CountError
	if errors.As(err, &countErr) {
		return countErr.Count
	}
	_, _ = fmt.Fprintf(w, "%s: error: %s\n", name, err)
	return 1
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
