//go:build !unix

package cli

import "io"

func terminalWidth(io.Writer) int {
	return 0
}
