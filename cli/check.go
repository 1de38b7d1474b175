package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ledger/errors"
)

type CheckCmd struct {
	Output string `help:"Error output: pretty, text or json." enum:"pretty,text,json" default:"pretty"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	rt, err := globals.start(ctx, "check")
	if err != nil {
		return err
	}
	defer rt.finish()

	n, err := rt.session.ReadJournalFiles(rt.ctx)
	if err == nil {
		printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %d transactions", n))
		return nil
	}

	switch cmd.Output {
	case "json":
		_, _ = fmt.Fprintln(ctx.Stdout, errors.NewJSONFormatter().FormatAll([]error{err}))
	case "text":
		_, _ = fmt.Fprint(ctx.Stderr, errors.NewTextFormatter().Format(err))
	default:
		_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(nil).Render(err))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d error(s) found", Count(err)))
	}
	return NewCommandError(1)
}
