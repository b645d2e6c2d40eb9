package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/lydakis/tomcat-manager/internal/tomcat"
)

// session is the state shared by every command of one process: the loaded
// configuration, the live settings, the manager connection and the exit
// code of the last command.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	cfgPath string

	settings config.Settings
	level    *slog.LevelVar
	logger   *slog.Logger
	manager  *tomcat.Manager

	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool

	exitCode int
	history  []string
	done     bool
}

func newSession(ctx context.Context, cfg *config.Config, cfgPath string, settings config.Settings) *session {
	if cfg == nil {
		cfg = &config.Config{}
	}
	level := new(slog.LevelVar)
	s := &session{
		ctx:      ctx,
		cfg:      cfg,
		cfgPath:  cfgPath,
		settings: settings,
		level:    level,
		logger:   slog.New(slog.NewTextHandler(rootStderr, &slog.HandlerOptions{Level: level})),
		stdin:    rootStdin,
		stdout:   rootStdout,
		stderr:   rootStderr,
	}
	s.manager = tomcat.New(
		tomcat.WithLogger(s.logger),
		tomcat.WithTimeout(s.timeout()),
		tomcat.WithUserAgent("tomcat-manager/"+buildVersion),
	)
	s.applySettings()
	return s
}

func (s *session) timeout() time.Duration {
	return time.Duration(s.settings.Timeout * float64(time.Second))
}

// applySettings pushes settings that live outside the session struct into
// the logger and the manager.
func (s *session) applySettings() {
	if s.settings.Debug {
		s.level.Set(slog.LevelDebug)
	} else {
		s.level.Set(slog.LevelInfo)
	}
	s.manager.SetTimeout(s.timeout())
}

// output writes command results to stdout.
func (s *session) output(format string, args ...any) {
	fmt.Fprintf(s.stdout, format+"\n", args...)
}

// feedback writes a status line unless quiet is set.
func (s *session) feedback(format string, args ...any) {
	if s.settings.Quiet {
		return
	}
	w := s.stderr
	if s.settings.StatusToStdout {
		w = s.stdout
	}
	msg := fmt.Sprintf(format, args...)
	if s.settings.StatusPrefix != "" {
		msg = s.settings.StatusPrefix + msg
	}
	fmt.Fprintln(w, msg)
}

// fail prints an error message to stderr in red.
func (s *session) fail(format string, args ...any) {
	fmt.Fprintln(s.stderr, color.RedString(format, args...))
}

// check turns the result of a manager call into a command error, printing
// the failure message. A nil error means r is an OK response.
func (s *session) check(r *tomcat.Response, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, tomcat.ErrNotConnected):
			s.fail("not connected")
			return errReported
		case errors.Is(err, tomcat.ErrInvalidArgument):
			s.fail("%v", err)
			return &exitError{code: ExitUsage, err: err, printed: true}
		default:
			s.fail("%v", err)
			return errReported
		}
	}
	if !r.OK() {
		s.logger.Debug("command failed",
			slog.String("kind", r.Failure.String()),
			slog.Int("status", r.StatusCode),
		)
		s.fail("%s", r.Message)
		return errReported
	}
	return nil
}

// requireConnected reports "not connected" for commands that need a server
// before they parse anything else.
func (s *session) requireConnected() error {
	if s.manager.Connected() {
		return nil
	}
	s.fail("not connected")
	return errReported
}

func (s *session) which() string {
	out := "connected to " + s.manager.URL()
	if user := s.manager.User(); user != "" {
		out += " as " + user
	}
	return out
}
