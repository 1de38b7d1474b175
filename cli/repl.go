package cli

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// ReplCmd reads commands from stdin until EOF or "quit".
type ReplCmd struct{}

func (cmd *ReplCmd) Run(ctx *kong.Context, globals *Globals) error {
	rt, err := globals.start(ctx, "repl")
	if err != nil {
		return err
	}
	defer rt.finish()

	if _, err := rt.session.ReadJournalFiles(rt.ctx); err != nil {
		rt.session.ReportError(err)
		return NewCommandError(1)
	}

	prompt := ""
	if isTerminal(os.Stdin) {
		prompt = "] "
	}
	if err := rt.session.REPL(rt.ctx, os.Stdin, prompt); err != nil {
		rt.session.ReportError(err)
		return NewCommandError(1)
	}
	return nil
}

// ExecCmd runs a script of commands, one per line, stopping at the first
// that fails.
type ExecCmd struct {
	Script FileOrStdin `arg:"" optional:"" help:"Script file (use '-' for stdin, or omit for stdin)."`
}

func (cmd *ExecCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.Script.EnsureContents(); err != nil {
		return err
	}
	script, err := cmd.Script.Open()
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer script.Close()

	rt, err := globals.start(ctx, "exec "+cmd.Script.Filename)
	if err != nil {
		return err
	}
	defer rt.finish()
	return statusError(rt.session.Run(rt.ctx, nil, script, nil))
}
