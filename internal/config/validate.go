package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	if _, err := DecodeSettings(cfg); err != nil {
		errs = append(errs, err)
	}

	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		srv := cfg.Servers[name]
		errs = append(errs, validateServer(name, srv)...)
	}

	return errors.Join(errs...)
}

// ValidateForCurrentEnv checks config invariants after expanding ${ENV_VAR}
// placeholders against the current process environment.
func ValidateForCurrentEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	expanded := cloneConfig(cfg)
	expandConfigEnvVars(expanded)
	return Validate(expanded)
}

func cloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}

	cloned := &Config{
		Servers: make(map[string]ServerConfig, len(cfg.Servers)),
	}
	if cfg.Settings != nil {
		cloned.Settings = make(map[string]any, len(cfg.Settings))
		for k, v := range cfg.Settings {
			cloned.Settings[k] = v
		}
	}

	for name, srv := range cfg.Servers {
		cloned.Servers[name] = cloneServerConfig(srv)
	}

	return cloned
}

func cloneServerConfig(srv ServerConfig) ServerConfig {
	cloned := srv
	cloned.Headers = cloneStringMap(srv.Headers)
	if srv.Verify != nil {
		v := *srv.Verify
		cloned.Verify = &v
	}
	return cloned
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func validateServer(name string, srv ServerConfig) []error {
	var errs []error

	if strings.TrimSpace(srv.URL) == "" {
		errs = append(errs, fmt.Errorf("servers.%s.url: missing manager url", name))
	} else if u, err := url.ParseRequestURI(srv.URL); err != nil {
		errs = append(errs, fmt.Errorf("servers.%s.url: invalid URL %q: %w", name, srv.URL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("servers.%s.url: unsupported scheme %q, use http or https", name, u.Scheme))
	}

	if srv.Key != "" && srv.Cert == "" {
		errs = append(errs, fmt.Errorf("servers.%s.key: set cert as well", name))
	}

	if srv.Timeout != "" {
		d, err := time.ParseDuration(srv.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("servers.%s.timeout: invalid duration %q: %w", name, srv.Timeout, err))
		} else if d < 0 {
			errs = append(errs, fmt.Errorf("servers.%s.timeout: must be >= 0, got %q", name, srv.Timeout))
		}
	}

	for header := range srv.Headers {
		if strings.TrimSpace(header) == "" {
			errs = append(errs, fmt.Errorf("servers.%s.headers: empty header name", name))
		}
	}

	return errs
}
