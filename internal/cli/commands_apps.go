package cli

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lydakis/tomcat-manager/internal/tomcat"
	"github.com/spf13/cobra"
)

type appFunc func(m *tomcat.Manager, ctx context.Context, path, version string) (*tomcat.Response, error)

// appCommand builds a command taking a path and an optional --version.
// done runs after an OK response.
func (s *session) appCommand(use, short string, fn appFunc, done func(path string, r *tomcat.Response)) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   use + " [-v VERSION] PATH",
		Short: short,
		Args:  rangeArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := fn(s.manager, cmd.Context(), args[0], version)
			if err := s.check(r, err); err != nil {
				return err
			}
			if done != nil {
				done(args[0], r)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&version, "version", "v", "", "version string of the application, required if it was deployed with one")
	return cmd
}

func (s *session) startCommand() *cobra.Command {
	return s.appCommand("start", "Start a tomcat application that has been deployed but isn't running",
		(*tomcat.Manager).Start,
		func(path string, _ *tomcat.Response) { s.feedback("started %s", path) })
}

func (s *session) stopCommand() *cobra.Command {
	return s.appCommand("stop", "Stop a running tomcat application and leave it deployed",
		(*tomcat.Manager).Stop,
		func(path string, _ *tomcat.Response) { s.feedback("stopped %s", path) })
}

func (s *session) reloadCommand(name string) *cobra.Command {
	return s.appCommand(name, "Stop and start a tomcat application",
		(*tomcat.Manager).Reload,
		func(_ string, r *tomcat.Response) { s.feedback("%s", r.Message) })
}

func (s *session) undeployCommand() *cobra.Command {
	return s.appCommand("undeploy", "Remove an application from the tomcat server",
		(*tomcat.Manager).Undeploy,
		func(_ string, r *tomcat.Response) { s.feedback("%s", r.Message) })
}

func (s *session) sessionsCommand() *cobra.Command {
	return s.appCommand("sessions", "Show active sessions for a tomcat application",
		(*tomcat.Manager).Sessions,
		func(_ string, r *tomcat.Response) { s.output("%s", strings.TrimRight(r.Result, "\n")) })
}

func (s *session) expireCommand() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "expire [-v VERSION] PATH IDLE",
		Short: "Expire sessions idle for more than IDLE minutes, 0 expires all sessions",
		Args:  rangeArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idle, err := strconv.Atoi(args[1])
			if err != nil || idle < 0 {
				return usageErrorf("invalid idle time %q: want minutes >= 0", args[1])
			}
			r, err := s.manager.Expire(cmd.Context(), args[0], version, idle)
			if err := s.check(r, err); err != nil {
				return err
			}
			s.output("%s", strings.TrimRight(r.Result, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&version, "version", "v", "", "version string of the application, required if it was deployed with one")
	return cmd
}

// deployCommand builds deploy and redeploy. redeploy sets update=true so an
// existing application at the path is replaced.
func (s *session) deployCommand(name string, update bool) *cobra.Command {
	short := "Install an application on the tomcat server"
	if update {
		short = "Replace an application on the tomcat server"
	}
	cmd := &cobra.Command{
		Use:   name + " {local | server | context} ...",
		Short: short,
		Args:  rangeArgs(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageErrorf("usage: %s", cmd.UseLine())
		},
	}

	var localVersion string
	localCmd := &cobra.Command{
		Use:   "local [-v VERSION] WARFILE PATH",
		Short: "Transmit a locally available warfile to the server",
		Args:  rangeArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.deployLocal(cmd.Context(), args[0], args[1], tomcat.DeployOptions{Version: localVersion, Update: update})
		},
	}
	localCmd.Flags().StringVarP(&localVersion, "version", "v", "", "version string to associate with this deployment")

	var serverVersion string
	serverCmd := &cobra.Command{
		Use:   "server [-v VERSION] WARFILE PATH",
		Short: "Deploy a warfile already on the server",
		Args:  rangeArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tomcat.DeployOptions{Version: serverVersion, Update: update}
			r, err := s.manager.DeployServerWAR(cmd.Context(), args[1], args[0], opts)
			if err := s.check(r, err); err != nil {
				return err
			}
			s.feedback("%s", r.Message)
			return nil
		},
	}
	serverCmd.Flags().StringVarP(&serverVersion, "version", "v", "", "version string to associate with this deployment")

	var contextVersion string
	contextCmd := &cobra.Command{
		Use:   "context [-v VERSION] CONTEXTFILE [WARFILE] PATH",
		Short: "Deploy a contextfile already on the server",
		Args:  rangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextfile, warfile, path := args[0], "", args[len(args)-1]
			if len(args) == 3 {
				warfile = args[1]
			}
			opts := tomcat.DeployOptions{Version: contextVersion, Update: update}
			r, err := s.manager.DeployServerContext(cmd.Context(), path, contextfile, warfile, opts)
			if err := s.check(r, err); err != nil {
				return err
			}
			s.feedback("%s", r.Message)
			return nil
		},
	}
	contextCmd.Flags().StringVarP(&contextVersion, "version", "v", "", "version string to associate with this deployment")

	cmd.AddCommand(localCmd, serverCmd, contextCmd)
	return cmd
}

func (s *session) deployLocal(ctx context.Context, warfile, path string, opts tomcat.DeployOptions) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	warfile = expandHome(warfile)
	if info, err := os.Stat(warfile); err == nil {
		s.feedback("uploading %s (%s)", filepath.Base(warfile), humanize.Bytes(uint64(info.Size())))
	}
	r, err := s.manager.DeployLocalWARFile(ctx, path, warfile, opts)
	if err := s.check(r, err); err != nil {
		return err
	}
	s.feedback("%s", r.Message)
	return nil
}

func expandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[:2] == "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
