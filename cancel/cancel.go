// Package cancel holds the cooperative cancellation gate. Signal handlers
// record a signal; long-running loops poll the gate at their checkpoints and
// stop with a RuntimeError once one is pending.
package cancel

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/robinvdvleuten/ledger/errors"
)

// Signal is an external request to stop.
type Signal int32

const (
	None Signal = iota
	Interrupted
	PipeClosed
)

func (s Signal) String() string {
	switch s {
	case Interrupted:
		return "interrupted"
	case PipeClosed:
		return "pipe-closed"
	}
	return "none"
}

// Gate records at most one pending signal. The zero value is ready to use.
type Gate struct {
	signal atomic.Int32
}

// Set records sig unless another signal is already pending. It reports
// whether sig was recorded.
func (g *Gate) Set(sig Signal) bool {
	if sig == None {
		return false
	}
	return g.signal.CompareAndSwap(int32(None), int32(sig))
}

// Signal returns the pending signal.
func (g *Gate) Signal() Signal {
	return Signal(g.signal.Load())
}

// Requested reports whether a signal is pending.
func (g *Gate) Requested() bool {
	return g.Signal() != None
}

// Check fails when a signal is pending. The signal stays pending until
// Discard.
func (g *Gate) Check() error {
	switch g.Signal() {
	case Interrupted:
		return errors.NewRuntimeError("Interrupted by user (use Control-D to quit)")
	case PipeClosed:
		return errors.NewRuntimeError("Pipe terminated")
	}
	return nil
}

// Discard clears the pending signal so processing can resume.
func (g *Gate) Discard() {
	g.signal.Store(int32(None))
}

// Notify routes SIGINT and SIGPIPE, and the cancellation of ctx, into g
// until the returned stop func is called.
func (g *Gate) Notify(ctx context.Context) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGPIPE)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-ch:
				if sig == syscall.SIGPIPE {
					g.Set(PipeClosed)
				} else {
					g.Set(Interrupted)
				}
			case <-ctx.Done():
				g.Set(Interrupted)
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
