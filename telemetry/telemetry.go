// Package telemetry records how long the phases of a command take: reading
// journals, building a report chain, passing postings down it. Timers nest
// into a tree that --telemetry prints after the command finishes.
//
// A Collector travels in the context, so instrumented code never needs a
// parameter for it:
//
//	ctx, root := telemetry.WithRootTimer(ctx, "register")
//	defer root.End()
//
//	t := telemetry.Start(ctx, "pass down postings")
//	// ...
//	t.End()
package telemetry

import (
	"context"
	"io"
	"time"

	"github.com/robinvdvleuten/ledger/output"
)

type collectorKey struct{}

type timerKey struct{}

// Collector gathers timings.
type Collector interface {
	// Start opens a timer nested under the most recently opened one.
	Start(name string) Timer

	// Report writes the collected tree. styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer measures one phase.
type Timer interface {
	End()
	Child(name string) Timer
	Elapsed() time.Duration
}

// WithCollector returns a context carrying c.
func WithCollector(ctx context.Context, c Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// FromContext returns the context's collector, or one that records nothing.
func FromContext(ctx context.Context) Collector {
	if c, ok := ctx.Value(collectorKey{}).(Collector); ok {
		return c
	}
	return discard{}
}

// WithRootTimer starts a timer on the context's collector and stores it, so
// Start nests below it.
func WithRootTimer(ctx context.Context, name string) (context.Context, Timer) {
	t := FromContext(ctx).Start(name)
	return context.WithValue(ctx, timerKey{}, t), t
}

// Start opens a timer below the context's root timer, or on the collector
// when there is none.
func Start(ctx context.Context, name string) Timer {
	if parent, ok := ctx.Value(timerKey{}).(Timer); ok {
		return parent.Child(name)
	}
	return FromContext(ctx).Start(name)
}

type discard struct{}

func (discard) Start(string) Timer               { return discardTimer{} }
func (discard) Report(io.Writer, *output.Styles) {}

type discardTimer struct{}

func (discardTimer) End()                   {}
func (discardTimer) Child(string) Timer     { return discardTimer{} }
func (discardTimer) Elapsed() time.Duration { return 0 }
