package cli

import (
	"fmt"
	"strings"

	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/lydakis/tomcat-manager/internal/mcpserver"
	"github.com/lydakis/tomcat-manager/internal/pool"
	"github.com/lydakis/tomcat-manager/internal/tomcat"
	"github.com/spf13/cobra"
)

func (s *session) showCommand(name string) *cobra.Command {
	short := "Show all settings or a specific setting"
	if name == "settings" {
		short += ", synonym for 'show'"
	}
	return &cobra.Command{
		Use:   name + " [setting]",
		Short: short,
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.SettingNames()
			if len(args) == 1 {
				if config.SettingHelp(args[0]) == "" {
					s.fail("unknown setting: '%s'", args[0])
					return errReported
				}
				names = []string{args[0]}
			}

			s.showSettings(names)
			return nil
		},
	}
}

func (s *session) showSettings(names []string) {
	values := s.settings.Map()
	lines := make([]string, len(names))
	width := 0
	for i, n := range names {
		lines[i] = n + "=" + formatSetting(values[n])
		width = max(width, len(lines[i]))
	}
	for i, n := range names {
		s.output("%-*s  # %s", width+1, lines[i], config.SettingHelp(n))
	}
}

func formatSetting(v any) string {
	if str, ok := v.(string); ok {
		return fmt.Sprintf("%q", str)
	}
	return fmt.Sprint(v)
}

func (s *session) setCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set {setting}={value}",
		Short: "Change a program setting",
		Long: `Change a program setting.

Use the 'show' command to see the list of valid settings. Both
'set name=value' and 'set name value' are accepted.`,
		Args: rangeArgs(0, -1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				s.showSettings(config.SettingNames())
				return nil
			}
			name, value, ok := splitAssignment(args)
			if !ok {
				s.fail("invalid syntax: try 'set {setting}={value}'")
				return errReported
			}
			if config.SettingHelp(name) == "" {
				s.fail("unknown setting: '%s'", name)
				return errReported
			}
			if err := s.settings.Set(name, value); err != nil {
				s.fail("%v", err)
				return errReported
			}
			s.applySettings()
			return nil
		},
	}
}

// splitAssignment accepts "name=value", "name = value" and "name value".
func splitAssignment(args []string) (name, value string, ok bool) {
	joined := strings.Join(args, " ")
	if n, v, found := strings.Cut(joined, "="); found {
		name, value = strings.TrimSpace(n), strings.TrimSpace(v)
	} else if len(args) >= 2 {
		name, value = args[0], strings.Join(args[1:], " ")
	}
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	return name, value, true
}

func (s *session) historyCommand() *cobra.Command {
	var clearHistory bool
	cmd := &cobra.Command{
		Use:   "history [-c]",
		Short: "Show the commands entered in this and previous sessions",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearHistory {
				s.history = nil
				return nil
			}
			for i, line := range s.history {
				s.output("%5d  %s", i+1, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&clearHistory, "clear", "c", false, "forget the command history")
	return cmd
}

func (s *session) exitCodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exit_code",
		Short: "Show a number indicating the status of the previous command",
		Long: fmt.Sprintf(`Show a number indicating the status of the previous command.

    %3d  success
    %3d  error
    %3d  usage
    %3d  command not found`, ExitOK, ExitError, ExitUsage, ExitCommandNotFound),
		Args:        noArgs,
		Annotations: map[string]string{keepExitCode: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s.output("%d", s.exitCode)
			return nil
		},
	}
}

func (s *session) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version number of this program",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.output("tomcat-manager %s", buildVersion)
			return nil
		},
	}
}

func (s *session) exitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "exit",
		Aliases: []string{"quit"},
		Short:   "Exit the interactive command prompt",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.done = true
			return nil
		},
	}
}

func (s *session) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the configured servers as MCP tools on stdin and stdout",
		Long: `Serve the configured servers as MCP tools on stdin and stdout.

Every tool takes a 'server' argument naming an entry in the configuration
file. Connections are opened on first use and kept until the client
disconnects.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pool.New(s.cfg, s.timeout(),
				tomcat.WithLogger(s.logger),
				tomcat.WithUserAgent("tomcat-manager/"+buildVersion),
			)
			defer p.CloseAll()

			s.logger.Debug("serving mcp over stdio")
			if err := mcpserver.ServeStdio(mcpserver.New(p, buildVersion, s.logger)); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			s.done = true
			return nil
		},
	}
}
