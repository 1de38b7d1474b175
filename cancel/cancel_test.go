package cancel

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/errors"
)

func TestGateCheck(t *testing.T) {
	tests := []struct {
		signal Signal
		want   string
	}{
		{None, ""},
		{Interrupted, "Interrupted by user (use Control-D to quit)"},
		{PipeClosed, "Pipe terminated"},
	}
	for _, test := range tests {
		t.Run(test.signal.String(), func(t *testing.T) {
			var g Gate
			g.Set(test.signal)
			err := g.Check()
			if test.want == "" {
				assert.NoError(t, err)
				assert.False(t, g.Requested())
				return
			}
			assert.EqualError(t, err, test.want)
			var runtime *errors.RuntimeError
			assert.True(t, errors.As(err, &runtime))
			assert.True(t, g.Requested())
		})
	}
}

func TestGateKeepsFirstSignal(t *testing.T) {
	var g Gate
	assert.True(t, g.Set(PipeClosed))
	assert.False(t, g.Set(Interrupted))
	assert.Equal(t, PipeClosed, g.Signal())

	// still pending until discarded
	assert.Error(t, g.Check())
	assert.Error(t, g.Check())

	g.Discard()
	assert.NoError(t, g.Check())
	assert.True(t, g.Set(Interrupted))
	assert.Equal(t, Interrupted, g.Signal())
}

func TestNotifyContextCancel(t *testing.T) {
	var g Gate
	ctx, cancel := context.WithCancel(context.Background())
	stop := g.Notify(ctx)
	defer stop()

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for !g.Requested() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, Interrupted, g.Signal())
}

func TestNotifyStop(t *testing.T) {
	var g Gate
	stop := g.Notify(context.Background())
	stop()
	stop()
	assert.False(t, g.Requested())
}
