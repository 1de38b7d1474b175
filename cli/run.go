package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ledger/config"
	"github.com/robinvdvleuten/ledger/ext"
	"github.com/robinvdvleuten/ledger/ext/js"
	"github.com/robinvdvleuten/ledger/logging"
	"github.com/robinvdvleuten/ledger/output"
	"github.com/robinvdvleuten/ledger/session"
	"github.com/robinvdvleuten/ledger/telemetry"
)

// runtime is what every command starts from: a context carrying the
// logger, collector and signal bridge, and a session writing to the
// terminal. finish must be called once the command is done.
type runtime struct {
	ctx     context.Context
	base    *session.Context
	session *session.Session
	finish  func()
}

// loadSettings applies the configuration cascade, then the global flags.
func (g *Globals) loadSettings() (*config.Settings, error) {
	var opts []config.Option
	if g.Settings != "" {
		opts = append(opts, config.WithSettingsFile(g.Settings))
	}
	opts = append(opts, config.WithUserSettings())
	if g.EnvFile != "" {
		opts = append(opts, config.WithEnvFile(g.EnvFile))
	}
	settings, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}

	if len(g.File) > 0 {
		settings.Files = g.File
	}
	if g.Columns > 0 {
		settings.Columns = g.Columns
	}
	if g.Color {
		settings.Color = true
	}
	if g.LogJSON {
		settings.LogJSON = true
	}
	switch {
	case g.Debug:
		settings.LogLevel = "debug"
	case g.Verbose:
		settings.LogLevel = "info"
	}
	return settings, nil
}

// newProvider creates the extension provider named in the settings.
func newProvider(name string) (ext.Provider, error) {
	if name == "" {
		return nil, nil
	}
	selector := ext.NewSelector()
	if err := js.Register(selector); err != nil {
		return nil, err
	}
	return selector.GetProvider(name)
}

func (g *Globals) start(kctx *kong.Context, name string) (*runtime, error) {
	return g.startWith(kctx.Stdout, kctx.Stderr, name)
}

func (g *Globals) startWith(stdout, stderr io.Writer, name string) (*runtime, error) {
	settings, err := g.loadSettings()
	if err != nil {
		return nil, err
	}
	provider, err := newProvider(settings.Extension)
	if err != nil {
		return nil, err
	}

	logger := logging.New(stderr, logging.ParseLevel(settings.LogLevel), settings.LogJSON)
	opts := []session.ContextOption{session.WithLogger(logger), session.WithSettings(settings)}
	if provider != nil {
		opts = append(opts,
			session.WithProvider(provider),
			session.WithProviderFactory(func() (ext.Provider, error) {
				return newProvider(settings.Extension)
			}),
		)
	}
	base := session.NewContext(opts...)

	ctx, cancel := context.WithCancel(base.Attach(context.Background()))
	stopSignals := base.Gate.Notify(ctx)

	rt := &runtime{
		ctx:  ctx,
		base: base,
		session: session.New(base,
			session.WithOutput(stdout),
			session.WithErrorOutput(stderr),
			session.WithTermWidth(terminalWidth),
		),
	}

	var root telemetry.Timer
	var collector telemetry.Collector
	if g.Telemetry {
		collector = telemetry.NewTimingCollector()
		rt.ctx = telemetry.WithCollector(rt.ctx, collector)
		rt.ctx, root = telemetry.WithRootTimer(rt.ctx, name)
	}

	rt.finish = func() {
		stopSignals()
		cancel()
		if collector != nil {
			root.End()
			_, _ = fmt.Fprintln(stderr)
			collector.Report(stderr, output.NewStyles(stderr))
		}
	}
	logger.Debug("Command started", slog.String("command", name), slog.Any("files", settings.Files))
	return rt, nil
}

// runArgs reads the journal and executes one session command.
func (g *Globals) runArgs(kctx *kong.Context, name string, args []string) error {
	rt, err := g.start(kctx, name)
	if err != nil {
		return err
	}
	defer rt.finish()
	return statusError(rt.session.Run(rt.ctx, args, nil, nil))
}
