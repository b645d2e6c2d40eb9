package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/lydakis/tomcat-manager/internal/httpheaders"
	"github.com/lydakis/tomcat-manager/internal/prompt"
	"github.com/lydakis/tomcat-manager/internal/tomcat"
	"github.com/spf13/cobra"
)

var readPassword = func(s *session) (string, error) {
	return prompt.Password(s.stderr, "Password: ")
}

type connectOptions struct {
	cert     string
	key      string
	cacert   string
	noverify bool
	headers  []string
}

func (s *session) connectCommand() *cobra.Command {
	opts := &connectOptions{}
	cmd := &cobra.Command{
		Use:   "connect {config_name | url} [user] [password]",
		Short: "Connect to a tomcat manager instance",
		Long: `Connect to a tomcat manager instance.

The first argument names a server in the configuration file or is the url of
a manager application. If a user is given without a password and standard
input is a terminal, the password is prompted for.`,
		Args: rangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.connect(cmd.Context(), args, opts)
		},
	}
	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringVar(&opts.cert, "cert", "", "client side certificate, optionally including the private key")
	flags.StringVar(&opts.key, "key", "", "private key for the client side certificate")
	flags.StringVar(&opts.cacert, "cacert", "", "CA bundle used to verify the server certificate")
	flags.BoolVar(&opts.noverify, "noverify", false, "don't verify the server certificate")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "extra request header, as 'Name: value'")
	return cmd
}

// resolveServer turns the connect arguments into a server entry. Config
// entries are looked up by name; anything else is taken as a url.
func (s *session) resolveServer(args []string, opts *connectOptions) (config.ServerConfig, error) {
	var srv config.ServerConfig
	if named, ok := s.cfg.Servers[args[0]]; ok {
		srv = config.ExpandServerForCurrentEnv(named)
	} else {
		srv.URL = args[0]
	}
	if len(args) > 1 {
		srv.User = args[1]
		srv.Password = ""
	}
	if len(args) > 2 {
		srv.Password = args[2]
	}

	if opts.cert != "" {
		srv.Cert = opts.cert
	}
	if opts.key != "" {
		srv.Key = opts.key
	}
	if opts.cacert != "" {
		srv.CACert = opts.cacert
	}
	if opts.noverify {
		verify := false
		srv.Verify = &verify
	}
	for _, raw := range opts.headers {
		name, value, err := httpheaders.Parse(raw)
		if err != nil {
			return srv, usageErrorf("%v", err)
		}
		srv.Headers = httpheaders.Set(srv.Headers, name, value)
	}
	return srv, nil
}

func (s *session) connect(ctx context.Context, args []string, opts *connectOptions) error {
	srv, err := s.resolveServer(args, opts)
	if err != nil {
		return err
	}

	if srv.URL != "" && srv.User != "" && srv.Password == "" {
		password, err := readPassword(s)
		switch {
		case errors.Is(err, prompt.ErrNoTerminal):
			s.logger.Debug("no terminal for password prompt; connecting without a password")
		case err != nil:
			s.fail("%v", err)
			return errReported
		default:
			srv.Password = password
		}
	}

	previous := s.manager.Timeout()
	if d, ok := srv.TimeoutDuration(); ok {
		s.manager.SetTimeout(d)
	} else {
		s.manager.SetTimeout(s.timeout())
	}

	r, err := s.manager.Connect(ctx, srv.Endpoint())
	if err != nil || !r.OK() {
		s.manager.SetTimeout(previous)
	}
	if err != nil {
		return s.check(nil, err)
	}
	if !r.OK() {
		s.logger.Debug("connect failed",
			slog.String("url", srv.URL),
			slog.String("kind", r.Failure.String()),
			slog.String("message", r.Message),
		)
		s.fail("%s", connectFailure(srv.URL, r.Response))
		return errReported
	}

	s.feedback("%s", s.which())
	if v := r.Info.TomcatVersion(); v != "" {
		s.feedback("tomcat version: %s", v)
	}
	return nil
}

// connectFailure explains a failed connect in terms of what is at url.
func connectFailure(url string, r *tomcat.Response) string {
	switch {
	case r.StatusCode == http.StatusNotFound:
		return "tomcat manager not found at " + url
	case r.Failure == tomcat.FailureMalformed:
		return "tomcat manager not found at " + url
	default:
		return r.Message
	}
}

func (s *session) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect from a tomcat manager",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.manager.Connected() {
				s.feedback("disconnected from %s", s.manager.URL())
			}
			s.manager.Disconnect()
			s.manager.SetTimeout(s.timeout())
			return nil
		},
	}
}

func (s *session) whichCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "which",
		Short: "Show the url of the tomcat server you are connected to",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireConnected(); err != nil {
				return err
			}
			s.output("%s", s.which())
			return nil
		},
	}
}
