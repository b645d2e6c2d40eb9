// Package prompt reads secrets from the controlling terminal.
package prompt

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mutagen-io/gopass"
	"github.com/pkg/errors"
)

// ErrNoTerminal is returned when standard input is not a terminal.
var ErrNoTerminal = errors.New("standard input is not a terminal")

// Interactive reports whether standard input is attached to a terminal.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Password prints label to out and reads a line without echo.
func Password(out io.Writer, label string) (string, error) {
	if !Interactive() {
		return "", ErrNoTerminal
	}

	fmt.Fprint(out, label)

	result, err := gopass.GetPasswd()
	if err != nil {
		return "", errors.Wrap(err, "unable to read response")
	}
	return string(result), nil
}
