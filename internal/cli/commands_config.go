package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/lydakis/tomcat-manager/internal/httpheaders"
	"github.com/spf13/cobra"
)

func (s *session) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config {file | edit | add-server}",
		Short: "Edit or show the location of the user configuration file",
		Args:  rangeArgs(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageErrorf("usage: %s", cmd.UseLine())
		},
	}

	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Show the location of the user configuration file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.output("%s", s.cfgPath)
			return nil
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the user configuration file, then reload it",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.editConfig()
		},
	}

	cmd.AddCommand(fileCmd, editCmd, s.addServerCommand())
	return cmd
}

// editorCommand returns the editor argv from the editor setting, falling
// back to $VISUAL and $EDITOR.
func (s *session) editorCommand() ([]string, error) {
	editor := s.settings.Editor
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if editor != "" {
			break
		}
		editor = os.Getenv(env)
	}
	if strings.TrimSpace(editor) == "" {
		return nil, nil
	}
	argv, err := shlex.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("parsing editor %q: %w", editor, err)
	}
	return argv, nil
}

var runEditor = func(argv []string) error {
	c := exec.Command(argv[0], argv[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

func (s *session) editConfig() error {
	argv, err := s.editorCommand()
	if err != nil {
		s.fail("%v", err)
		return errReported
	}
	if len(argv) == 0 {
		s.fail("no editor: use 'set editor={path}' to specify one")
		return errReported
	}
	if err := os.MkdirAll(filepath.Dir(s.cfgPath), 0o700); err != nil {
		s.fail("creating config directory: %v", err)
		return errReported
	}

	argv = append(argv, s.cfgPath)
	s.feedback("executing %s", strings.Join(argv, " "))
	if err := runEditor(argv); err != nil {
		s.fail("editor: %v", err)
		return errReported
	}

	s.feedback("reloading configuration")
	return s.reloadConfig()
}

// reloadConfig reads the config file again and applies its settings. The
// current configuration stays in place if the file is invalid.
func (s *session) reloadConfig() error {
	cfg, err := config.LoadFrom(s.cfgPath)
	if err != nil {
		s.fail("%v", err)
		return errReported
	}
	if err := config.Validate(cfg); err != nil {
		s.fail("invalid config: %v", err)
		return errReported
	}
	settings, err := config.DecodeSettings(cfg)
	if err != nil {
		s.fail("invalid config: %v", err)
		return errReported
	}
	s.cfg = cfg
	s.settings = settings
	s.applySettings()
	return nil
}

type addServerOptions struct {
	user      string
	password  string
	cert      string
	key       string
	cacert    string
	noverify  bool
	timeout   string
	headers   []string
	overwrite bool
}

func (s *session) addServerCommand() *cobra.Command {
	opts := &addServerOptions{}
	cmd := &cobra.Command{
		Use:   "add-server NAME URL",
		Short: "Add a server entry to the user configuration file",
		Long: `Add a server entry to the user configuration file.

Values may reference environment variables as ${NAME}; they are written
unexpanded and resolved each time the configuration is loaded.`,
		Args: rangeArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.addServer(args[0], args[1], opts)
		},
	}
	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringVarP(&opts.user, "user", "u", "", "user for authentication with the tomcat manager")
	flags.StringVarP(&opts.password, "password", "p", "", "password, ideally a ${VAR} reference")
	flags.StringVar(&opts.cert, "cert", "", "client side certificate")
	flags.StringVar(&opts.key, "key", "", "private key for the client side certificate")
	flags.StringVar(&opts.cacert, "cacert", "", "CA bundle used to verify the server certificate")
	flags.BoolVar(&opts.noverify, "noverify", false, "don't verify the server certificate")
	flags.StringVar(&opts.timeout, "timeout", "", "request timeout for this server, e.g. 30s")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "extra request header, as 'Name: value'")
	flags.BoolVar(&opts.overwrite, "overwrite", false, "replace an existing entry with the same name")
	return cmd
}

func (s *session) addServer(name, url string, opts *addServerOptions) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return usageErrorf("missing server name")
	}

	srv := config.ServerConfig{
		URL:      url,
		User:     opts.user,
		Password: opts.password,
		Cert:     opts.cert,
		Key:      opts.key,
		CACert:   opts.cacert,
		Timeout:  opts.timeout,
	}
	if opts.noverify {
		verify := false
		srv.Verify = &verify
	}
	for _, raw := range opts.headers {
		hname, value, err := httpheaders.Parse(raw)
		if err != nil {
			return usageErrorf("%v", err)
		}
		srv.Headers = httpheaders.Set(srv.Headers, hname, value)
	}

	cfg, err := config.LoadForEditFrom(s.cfgPath)
	if err != nil {
		s.fail("add-server: loading config: %v", err)
		return errReported
	}
	if cfg.Servers == nil {
		cfg.Servers = make(map[string]config.ServerConfig)
	}

	_, exists := cfg.Servers[name]
	if exists && !opts.overwrite {
		return usageErrorf("add-server: server %q already exists; rerun with --overwrite to replace it", name)
	}

	cfg.Servers[name] = srv
	if err := config.ValidateForCurrentEnv(cfg); err != nil {
		return usageErrorf("add-server: invalid resulting config: %v", err)
	}
	if err := config.SaveTo(s.cfgPath, cfg); err != nil {
		s.fail("add-server: writing config: %v", err)
		return errReported
	}

	verb := "Added"
	if exists {
		verb = "Updated"
	}
	s.output("%s server %q in %s", verb, name, s.cfgPath)

	if s.cfg.Servers == nil {
		s.cfg.Servers = make(map[string]config.ServerConfig)
	}
	s.cfg.Servers[name] = config.ExpandServerForCurrentEnv(srv)
	return nil
}
