package cli

import (
	"errors"
	"fmt"
)

// Exit codes reported by commands, by the exit_code command and by the
// process when running non-interactively.
const (
	ExitOK              = 0
	ExitError           = 1
	ExitUsage           = 2
	ExitCommandNotFound = 127
)

// exitError carries an exit code out of a cobra RunE. printed is set when
// the message already went to stderr.
type exitError struct {
	code    int
	err     error
	printed bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageErrorf(format string, args ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

// errReported is returned by commands that printed their own failure.
var errReported = &exitError{code: ExitError, err: errors.New("command failed"), printed: true}

func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return ExitError
}
