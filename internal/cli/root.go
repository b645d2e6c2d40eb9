package cli

import (
	"context"
	"fmt"

	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/lydakis/tomcat-manager/internal/paths"
)

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	opts, positional, err := parseRootArgs(args)
	if err != nil {
		fmt.Fprintf(rootStderr, "tomcat-manager: %v\n", err)
		printRootUsage(rootStderr)
		return ExitUsage
	}
	if opts.help {
		printRootHelp(rootStdout, opts.flags)
		return ExitOK
	}
	if opts.version {
		fmt.Fprintf(rootStdout, "tomcat-manager %s\n", buildVersion)
		return ExitOK
	}

	if opts.envFile != "" {
		if err := config.LoadEnvFile(opts.envFile); err != nil {
			fmt.Fprintf(rootStderr, "tomcat-manager: %v\n", err)
			return ExitError
		}
	}

	cfgPath := opts.configFile
	if cfgPath == "" {
		cfgPath = paths.ConfigFile()
	}
	cfg := &config.Config{Servers: make(map[string]config.ServerConfig)}
	if !opts.noConfig {
		cfg, err = config.LoadFrom(cfgPath)
		if err != nil {
			fmt.Fprintf(rootStderr, "tomcat-manager: %v\n", err)
			return ExitError
		}
		if verr := config.Validate(cfg); verr != nil {
			fmt.Fprintf(rootStderr, "tomcat-manager: invalid config: %v\n", verr)
			return ExitUsage
		}
	}

	settings, err := config.DecodeSettings(cfg)
	if err != nil {
		fmt.Fprintf(rootStderr, "tomcat-manager: invalid config: %v\n", err)
		return ExitUsage
	}
	opts.applyTo(&settings)

	s := newSession(context.Background(), cfg, cfgPath, settings)
	s.interactive = isTerminal(s.stdin)

	if len(positional) == 0 {
		return s.loop()
	}
	if isStandaloneCommand(positional[0], cfg) {
		return s.execute(positional)
	}

	connect := []string{"connect", positional[0]}
	if opts.user != "" {
		connect = append(connect, opts.user)
		if opts.password != "" {
			connect = append(connect, opts.password)
		}
	}
	code := s.execute(connect)
	if len(positional) == 1 {
		return s.loop()
	}
	if code != ExitOK {
		return code
	}
	return s.execute(positional[1:])
}

// standaloneCommands run without connecting first. A config entry with the
// same name wins, so existing server names keep working.
var standaloneCommands = map[string]bool{
	"mcp":        true,
	"config":     true,
	"version":    true,
	"completion": true,
	"__list":     true,
}

func isStandaloneCommand(name string, cfg *config.Config) bool {
	if !standaloneCommands[name] {
		return false
	}
	_, isServer := cfg.Servers[name]
	return !isServer
}
