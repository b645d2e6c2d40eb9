package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/lydakis/tomcat-manager/internal/paths"
	"github.com/mattn/go-isatty"
)

const maxHistory = 1000

// isTerminal reports whether r is a file attached to a terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loop reads commands from stdin until exit or end of input and returns
// the exit code of the last command.
func (s *session) loop() int {
	if s.interactive {
		s.loadHistory()
		defer s.saveHistory()
	}

	scanner := bufio.NewScanner(s.stdin)
	for !s.done {
		if s.interactive {
			fmt.Fprint(s.stdout, s.settings.Prompt)
		}
		if !scanner.Scan() {
			if s.interactive {
				fmt.Fprintln(s.stdout)
			}
			break
		}
		s.runLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.fail("reading commands: %v", err)
		s.exitCode = ExitError
	}
	return s.exitCode
}

// runLine tokenizes and runs one line of input. Blank lines and comments
// leave the exit code alone.
func (s *session) runLine(line string) int {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return s.exitCode
	}
	if s.settings.Echo {
		fmt.Fprintln(s.stdout, s.settings.Prompt+line)
	}
	s.history = append(s.history, line)

	args, err := shlex.Split(line)
	if err != nil {
		s.fail("%v", err)
		s.exitCode = ExitUsage
		return s.exitCode
	}
	return s.execute(args)
}

func (s *session) loadHistory() {
	data, err := os.ReadFile(paths.HistoryFile())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("reading history", slog.String("error", err.Error()))
		}
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			s.history = append(s.history, line)
		}
	}
}

func (s *session) saveHistory() {
	path := paths.HistoryFile()
	if err := paths.EnsureDir(filepath.Dir(path)); err != nil {
		s.logger.Debug("creating history directory", slog.String("error", err.Error()))
		return
	}
	history := s.history
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	var b strings.Builder
	for _, line := range history {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		s.logger.Debug("writing history", slog.String("error", err.Error()))
	}
}
