package cli

import (
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func (s *session) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "completion {bash | zsh | fish}",
		Short:     "Print a shell completion script",
		Args:      rangeArgs(1, 1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			script, ok := completionScripts[strings.ToLower(args[0])]
			if !ok {
				return usageErrorf("unknown shell for completion: %s", args[0])
			}
			_, _ = io.WriteString(s.stdout, script)
			return nil
		},
	}
}

// internalCompletionCommand answers the queries made by the completion
// scripts.
func (s *session) internalCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "__list {servers | commands}",
		Hidden: true,
		Args:   rangeArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var words []string
			switch args[0] {
			case "servers":
				words = s.serverNames()
			case "commands":
				words = shellCommandNames(cmd.Root())
			default:
				return usageErrorf("unknown completion query: %s", args[0])
			}
			for _, w := range words {
				s.output("%s", w)
			}
			return nil
		},
	}
}

func (s *session) serverNames() []string {
	names := make([]string, 0, len(s.cfg.Servers))
	for name := range s.cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func shellCommandNames(root *cobra.Command) []string {
	var names []string
	for _, c := range root.Commands() {
		if c.Hidden {
			continue
		}
		names = append(names, c.Name())
		names = append(names, c.Aliases...)
	}
	sort.Strings(names)
	return names
}
