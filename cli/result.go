package cli

import "fmt"

// CommandError carries the exit status of a command that has already
// reported its failure on stderr. main turns it into the process status
// without printing anything further.
type CommandError struct {
	exitCode int
}

// NewCommandError creates a CommandError with the given status.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("exit status %d", e.exitCode)
}

// ExitCode returns the status the process should exit with.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}

// statusError turns a session exit status into the command's result.
func statusError(status int) error {
	if status == 0 {
		return nil
	}
	return NewCommandError(status)
}
