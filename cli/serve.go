package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ledger/server"
)

type ServeCmd struct {
	Port   int  `help:"Port to listen on." default:"8080"`
	Create bool `help:"Create a missing journal file without asking." short:"c"`
	Watch  bool `help:"Reload the journal when its files change." default:"true" negatable:""`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	rt, err := globals.start(ctx, "serve")
	if err != nil {
		return err
	}
	defer rt.finish()

	files := rt.base.Settings.Files
	if len(files) == 0 {
		return fmt.Errorf("no journal file was specified (please use -f)")
	}
	for i, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		if err := cmd.ensureFile(ctx.Stdout, abs); err != nil {
			return err
		}
		files[i] = abs
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	srv := server.New(rt.base, files,
		server.WithPort(cmd.Port),
		server.WithVersion(version),
		server.WithWatch(cmd.Watch),
	)

	printInfof(ctx.Stdout, "Starting server on http://%s", srv.Addr())
	for _, file := range files {
		printInfof(ctx.Stdout, "Serving journal: %s", pathStyle.Render(file))
	}
	return srv.Start(rt.ctx)
}

// ensureFile offers to create a missing journal.
func (cmd *ServeCmd) ensureFile(w io.Writer, path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access file: %w", err)
	}

	create := cmd.Create
	if !create {
		confirmed, err := promptYesNo(fmt.Sprintf("File %q does not exist. Create it?", path))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		create = confirmed
	}
	if !create {
		return fmt.Errorf("file does not exist: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	printInfof(w, "Created empty journal file: %s", pathStyle.Render(path))
	return nil
}
