package cli

import (
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// keepExitCode marks commands that report the exit code of the previous
// command and so must not replace it.
const keepExitCode = "keep-exit-code"

// newCommandTree builds the shell commands. A fresh tree per line keeps
// flag values from leaking between commands.
func (s *session) newCommandTree() *cobra.Command {
	root := &cobra.Command{
		Use:           "tomcat-manager",
		Short:         "Administer a Tomcat server through its manager application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(s.stdout)
	root.SetErr(s.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: ExitUsage, err: err}
	})

	root.AddCommand(
		s.connectCommand(),
		s.disconnectCommand(),
		s.whichCommand(),
		s.deployCommand("deploy", false),
		s.deployCommand("redeploy", true),
		s.undeployCommand(),
		s.startCommand(),
		s.stopCommand(),
		s.reloadCommand("reload"),
		s.reloadCommand("restart"),
		s.sessionsCommand(),
		s.expireCommand(),
		s.listCommand(),
		s.serverInfoCommand(),
		s.statusCommand(),
		s.vmInfoCommand(),
		s.threadDumpCommand(),
		s.resourcesCommand(),
		s.findLeakersCommand(),
		s.sslConnectorCiphersCommand(),
		s.sslConnectorCertsCommand(),
		s.sslConnectorTrustedCertsCommand(),
		s.sslReloadCommand(),
		s.implementsCommand(),
		s.showCommand("show"),
		s.showCommand("settings"),
		s.setCommand(),
		s.configCommand(),
		s.historyCommand(),
		s.exitCodeCommand(),
		s.versionCommand(),
		s.exitCommand(),
		s.mcpCommand(),
		s.completionCommand(),
		s.internalCompletionCommand(),
	)
	root.InitDefaultHelpCmd()
	return root
}

func knownCommand(root *cobra.Command, name string) bool {
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// execute runs one tokenized command line and records its exit code.
func (s *session) execute(args []string) int {
	if len(args) == 0 {
		return s.exitCode
	}

	root := s.newCommandTree()
	if !knownCommand(root, args[0]) {
		s.fail("unknown command: %s", args[0])
		s.exitCode = ExitCommandNotFound
		return s.exitCode
	}

	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt)
	defer stop()

	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cmd, _, ferr := root.Find(args); ferr == nil && err == nil && cmd.Annotations[keepExitCode] != "" {
		return s.exitCode
	}

	var exitErr *exitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.printed) {
		s.fail("%v", err)
	}
	s.exitCode = exitCodeFor(err)
	return s.exitCode
}

// rangeArgs accepts between min and max positional arguments; max < 0
// means no upper bound.
func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min || (max >= 0 && len(args) > max) {
			return usageErrorf("usage: %s", cmd.UseLine())
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	return rangeArgs(0, 0)(cmd, args)
}
