package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/spf13/pflag"
)

var (
	rootStdin    io.Reader = os.Stdin
	rootStdout   io.Writer = os.Stdout
	rootStderr   io.Writer = os.Stderr
	buildVersion           = "dev"
)

func init() {
	buildVersion = resolveBuildVersion(buildVersion)
}

// rootOptions are the process level flags. Everything after the first
// positional argument belongs to the shell command.
type rootOptions struct {
	user           string
	password       string
	timeout        float64
	echo           bool
	quiet          bool
	statusToStdout bool
	debug          bool
	noConfig       bool
	configFile     string
	envFile        string
	version        bool
	help           bool

	flags *pflag.FlagSet
}

func newRootFlags(opts *rootOptions) *pflag.FlagSet {
	flags := pflag.NewFlagSet("tomcat-manager", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.SetInterspersed(false)
	flags.SortFlags = false

	flags.StringVarP(&opts.user, "user", "u", "", "user to use for authentication with the tomcat manager")
	flags.StringVarP(&opts.password, "password", "p", "", "password to use for authentication with the tomcat manager")
	flags.Float64VarP(&opts.timeout, "timeout", "t", 0, "seconds to wait for the server, 0 for no limit")
	flags.BoolVarP(&opts.echo, "echo", "e", false, "add the command to the output stream")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "don't show non-essential feedback")
	flags.BoolVarP(&opts.statusToStdout, "status-to-stdout", "s", false, "send status information to stdout instead of stderr")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "show additional debugging information while processing commands")
	flags.BoolVarP(&opts.noConfig, "noconfig", "n", false, "don't load the configuration file on startup")
	flags.StringVar(&opts.configFile, "config-file", "", "use this configuration file instead of the default")
	flags.StringVar(&opts.envFile, "env-file", "", "load environment variables from this file before reading the configuration")
	flags.BoolVarP(&opts.version, "version", "V", false, "show version information and exit")
	flags.BoolVarP(&opts.help, "help", "h", false, "show this help and exit")
	return flags
}

func parseRootArgs(args []string) (*rootOptions, []string, error) {
	opts := &rootOptions{}
	opts.flags = newRootFlags(opts)
	if err := opts.flags.Parse(args); err != nil {
		return opts, nil, err
	}
	if opts.password != "" && opts.user == "" {
		return opts, nil, fmt.Errorf("--password requires --user")
	}
	if opts.timeout < 0 {
		return opts, nil, fmt.Errorf("invalid timeout %v: must be >= 0", opts.timeout)
	}
	return opts, opts.flags.Args(), nil
}

// applyTo overrides settings with flags given on the command line.
func (o *rootOptions) applyTo(s *config.Settings) {
	if o.flags.Changed("timeout") {
		s.Timeout = o.timeout
	}
	if o.echo {
		s.Echo = true
	}
	if o.quiet {
		s.Quiet = true
	}
	if o.statusToStdout {
		s.StatusToStdout = true
	}
	if o.debug {
		s.Debug = true
	}
}

func resolveBuildVersion(defaultVersion string) string {
	if defaultVersion != "" && defaultVersion != "dev" {
		return defaultVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return defaultVersion
	}
	return info.Main.Version
}

func printRootUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  tomcat-manager [flags]")
	fmt.Fprintln(out, "  tomcat-manager [flags] <manager_url|config_name>")
	fmt.Fprintln(out, "  tomcat-manager [flags] <manager_url|config_name> <command> [args...]")
}

func printRootHelp(out io.Writer, flags *pflag.FlagSet) {
	printRootUsage(out)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Without a command, commands are read from standard input. Type 'help'")
	fmt.Fprintln(out, "in the shell for the list of commands.")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Flags:")
	fmt.Fprint(out, flags.FlagUsages())
}
