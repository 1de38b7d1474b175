// Package session runs ledger commands. A Context holds the state one
// session owns; a Session reads journals into it and executes commands,
// one line at a time from a REPL or a script, or once from the command
// line.
package session

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/cancel"
	"github.com/robinvdvleuten/ledger/config"
	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/ext"
	"github.com/robinvdvleuten/ledger/logging"
)

// Context is the state of one session: its commodity pool, environment,
// cancellation gate, logger, clock, extension provider and settings. Only
// one owner may use a Context at a time; see Acquire.
type Context struct {
	Pool     *amount.Pool
	Env      map[string]string
	Gate     *cancel.Gate
	Logger   *slog.Logger
	Now      func() time.Time
	Provider ext.Provider
	Settings *config.Settings

	providers ext.Factory
	owned     atomic.Bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithEnviron sets the environment from KEY=VALUE pairs.
func WithEnviron(environ []string) ContextOption {
	return func(c *Context) {
		c.Env = make(map[string]string, len(environ))
		for _, kv := range environ {
			if k, v, ok := strings.Cut(kv, "="); ok {
				c.Env[k] = v
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		c.Logger = logger
	}
}

// WithClock sets the clock.
func WithClock(now func() time.Time) ContextOption {
	return func(c *Context) {
		c.Now = now
	}
}

// WithProvider sets the extension provider.
func WithProvider(provider ext.Provider) ContextOption {
	return func(c *Context) {
		c.Provider = provider
	}
}

// WithProviderFactory makes every clone create its own provider with
// factory, so concurrent sessions never share a runtime.
func WithProviderFactory(factory ext.Factory) ContextOption {
	return func(c *Context) {
		c.providers = factory
	}
}

// WithSettings sets the settings.
func WithSettings(settings *config.Settings) ContextOption {
	return func(c *Context) {
		c.Settings = settings
	}
}

// NewContext creates a context. By default it reads the process
// environment, logs with slog.Default and uses the wall clock.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		Pool:     amount.NewPool(),
		Gate:     &cancel.Gate{},
		Logger:   slog.Default(),
		Now:      time.Now,
		Settings: config.Default(),
	}
	WithEnviron(os.Environ())(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire makes the caller the context's only owner until release is
// called. It fails while another owner holds the context.
func (c *Context) Acquire() (release func(), err error) {
	if !c.owned.CompareAndSwap(false, true) {
		return nil, errors.NewLogicError("Cannot acquire current thread because it has been already acquired")
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			c.owned.Store(false)
		}
	}, nil
}

// Clone returns an independent context for a concurrent session. The clone
// has its own pool, gate and guard and shares the logger, clock and
// settings. It gets a fresh provider from the factory when one is set and
// shares the provider otherwise.
func (c *Context) Clone() *Context {
	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[k] = v
	}
	provider := c.Provider
	if c.providers != nil {
		var err error
		if provider, err = c.providers(); err != nil {
			c.Logger.Warn("extension provider unavailable", "error", err)
			provider = nil
		}
	}
	return &Context{
		Pool:      amount.NewPool(),
		Env:       env,
		Gate:      &cancel.Gate{},
		Logger:    c.Logger,
		Now:       c.Now,
		Provider:  provider,
		Settings:  c.Settings,
		providers: c.providers,
	}
}

// Getenv reads the context's environment.
func (c *Context) Getenv(key string) string {
	return c.Env[key]
}

// Attach returns ctx carrying the context's logger.
func (c *Context) Attach(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, c.Logger)
}
