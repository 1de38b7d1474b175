package cli

import (
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ledger/errors"
)

// asCommandError finds the CommandError a command returned; kong may
// wrap it.
func asCommandError(err error, target **CommandError) bool {
	return errors.As(err, target)
}

func TestCommandError(t *testing.T) {
	err := NewCommandError(42)
	assert.EqualError(t, err, "exit status 42")
	assert.Equal(t, 42, err.ExitCode())
}

func TestCommandErrorWrapped(t *testing.T) {
	err := errors.Join(fmt.Errorf("eval"), NewCommandError(1))
	var cmdErr *CommandError
	assert.True(t, asCommandError(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode())
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
	}{{0}, {1}, {3}}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.status), func(t *testing.T) {
			err := statusError(test.status)
			if test.status == 0 {
				assert.NoError(t, err)
				return
			}
			var cmdErr *CommandError
			assert.True(t, asCommandError(err, &cmdErr))
			assert.Equal(t, test.status, cmdErr.ExitCode())
		})
	}
}
