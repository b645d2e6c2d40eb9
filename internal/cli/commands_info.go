package cli

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lydakis/tomcat-manager/internal/tomcat"
	"github.com/spf13/cobra"
)

type listOptions struct {
	raw     bool
	state   string
	by      string
	pattern string
	output  string
}

func (s *session) listCommand() *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list [-r] [-s STATE] [-b state|path] [-p GLOB] [-o text|json|yaml]",
		Short: "Show all installed applications",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.list(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&opts.raw, "raw", "r", false, "show apps without formatting")
	flags.StringVarP(&opts.state, "state", "s", "", "only show apps in a given state: running or stopped")
	flags.StringVarP(&opts.by, "by", "b", "state", "sort by state (default), or sort by path")
	flags.StringVarP(&opts.pattern, "path", "p", "", "only show apps whose path matches this glob")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func (s *session) list(ctx context.Context, opts *listOptions) error {
	mode, err := parseOutputMode(opts.output)
	if err != nil {
		return err
	}
	state := tomcat.StateUnknown
	if opts.state != "" {
		if state = tomcat.ParseState(opts.state); state == tomcat.StateUnknown {
			return usageErrorf("invalid state %q: use running or stopped", opts.state)
		}
	}
	var order tomcat.SortOrder
	switch opts.by {
	case "state":
		order = tomcat.SortByState
	case "path":
		order = tomcat.SortByPath
	default:
		return usageErrorf("invalid sort key %q: use state or path", opts.by)
	}

	r, err := s.manager.List(ctx)
	if err != nil {
		return s.check(nil, err)
	}
	if err := s.check(r.Response, nil); err != nil {
		return err
	}

	apps, err := selectApplications(r.Apps, state, opts.pattern, order)
	if err != nil {
		return err
	}
	switch {
	case !mode.isText():
		return writeStructured(s.stdout, mode, listRows(apps))
	case opts.raw:
		return writeApplicationsRaw(s.stdout, apps)
	default:
		return writeApplicationTable(s.stdout, apps, terminalWidth(s.stdout))
	}
}

func (s *session) serverInfoCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "serverinfo [-o text|json|yaml]",
		Short: "Show information about the tomcat server",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseOutputMode(output)
			if err != nil {
				return err
			}
			r, err := s.manager.ServerInfo(cmd.Context())
			if err != nil {
				return s.check(nil, err)
			}
			if err := s.check(r.Response, nil); err != nil {
				return err
			}
			if mode.isText() {
				s.output("%s", strings.TrimRight(r.Result, "\n"))
				return nil
			}
			return writeStructured(s.stdout, mode, map[string]string(r.Info))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

// textCommand builds a command that prints the result text of fn.
func (s *session) textCommand(use, short string, fn func(*tomcat.Manager, context.Context) (*tomcat.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := fn(s.manager, cmd.Context())
			if err := s.check(r, err); err != nil {
				return err
			}
			s.output("%s", strings.TrimRight(r.Result, "\n"))
			return nil
		},
	}
}

func (s *session) vmInfoCommand() *cobra.Command {
	return s.textCommand("vminfo", "Show diagnostic information about the jvm", (*tomcat.Manager).VMInfo)
}

func (s *session) threadDumpCommand() *cobra.Command {
	return s.textCommand("threaddump", "Show a jvm thread dump", (*tomcat.Manager).ThreadDump)
}

func (s *session) sslConnectorCiphersCommand() *cobra.Command {
	return s.textCommand("sslconnectorciphers", "Show SSL/TLS ciphers configured for each connector",
		(*tomcat.Manager).SSLConnectorCiphers)
}

func (s *session) sslConnectorCertsCommand() *cobra.Command {
	return s.textCommand("sslconnectorcerts", "Show SSL/TLS certificate chain for each connector",
		(*tomcat.Manager).SSLConnectorCerts)
}

func (s *session) sslConnectorTrustedCertsCommand() *cobra.Command {
	return s.textCommand("sslconnectortrustedcerts", "Show trusted certificates for each connector",
		(*tomcat.Manager).SSLConnectorTrustedCerts)
}

func (s *session) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status information in xml format",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := s.manager.StatusXML(cmd.Context())
			if err := s.check(r, err); err != nil {
				return err
			}
			pretty, err := indentXML(r.Result)
			if err != nil {
				s.logger.Debug("status document is not well formed; printing as received")
				pretty = r.Result
			}
			s.output("%s", strings.TrimRight(pretty, "\n"))
			return nil
		},
	}
}

// indentXML re-encodes doc with one element per line.
func indentXML(doc string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "   ")
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if cd, ok := tok.(xml.CharData); ok {
			if len(bytes.TrimSpace(cd)) == 0 {
				continue
			}
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return "", err
		}
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *session) sslReloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sslreload [host_name]",
		Short: "Reload SSL/TLS certificates and keys",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var host string
			if len(args) == 1 {
				host = args[0]
			}
			r, err := s.manager.SSLReload(cmd.Context(), host)
			if err := s.check(r, err); err != nil {
				return err
			}
			s.feedback("%s", r.Message)
			return nil
		},
	}
}

func (s *session) resourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resources [class_name]",
		Short: "Show global JNDI resources configured in tomcat",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var class string
			if len(args) == 1 {
				class = args[0]
			}
			r, err := s.manager.Resources(cmd.Context(), class)
			if err != nil {
				return s.check(nil, err)
			}
			if err := s.check(r.Response, nil); err != nil {
				return err
			}
			names := make([]string, 0, len(r.Resources))
			for name := range r.Resources {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				s.output("%s: %s", name, r.Resources[name])
			}
			return nil
		},
	}
}

func (s *session) findLeakersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "findleakers",
		Short: "Show tomcat applications that leak memory",
		Long: `Show tomcat applications that leak memory.

This triggers a full garbage collection on the server. Use with caution on a
production server.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := s.manager.FindLeakers(cmd.Context())
			if err != nil {
				return s.check(nil, err)
			}
			if err := s.check(r.Response, nil); err != nil {
				return err
			}
			for _, leaker := range r.Leakers {
				s.output("%s", leaker)
			}
			return nil
		},
	}
}

func (s *session) implementsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "implements [operation]",
		Short: "Show which operations the connected server supports",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireConnected(); err != nil {
				return err
			}
			reqs := tomcat.DefaultRequirements()
			ops := reqs.Operations()
			if len(args) == 1 {
				op := tomcat.Operation(args[0])
				if _, ok := reqs[op]; !ok {
					return usageErrorf("unknown operation: %s", args[0])
				}
				ops = []tomcat.Operation{op}
			}
			for _, op := range ops {
				ok, err := s.manager.Implements(op)
				if err != nil {
					return s.check(nil, err)
				}
				s.output("%-26s %s", op, implementsLabel(ok, reqs[op]))
			}
			return nil
		},
	}
}

func implementsLabel(ok bool, minimum tomcat.Version) string {
	if ok {
		return "yes"
	}
	return fmt.Sprintf("no (requires %s)", minimum)
}
