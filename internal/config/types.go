package config

import (
	"time"

	"github.com/lydakis/tomcat-manager/internal/tomcat"
)

// Config is the top-level tomcat-manager configuration.
type Config struct {
	// Settings holds the raw [settings] table. Use DecodeSettings to read it.
	Settings map[string]any         `toml:"settings,omitempty"`
	Servers  map[string]ServerConfig `toml:"servers"`
}

// ServerConfig describes one named manager endpoint.
type ServerConfig struct {
	URL      string `toml:"url"`
	User     string `toml:"user,omitempty"`
	Password string `toml:"password,omitempty"`

	// Client certificate, optional key file, and CA bundle for TLS.
	Cert   string `toml:"cert,omitempty"`
	Key    string `toml:"key,omitempty"`
	CACert string `toml:"cacert,omitempty"`
	// Verify defaults to true; false skips server certificate checks.
	Verify *bool `toml:"verify,omitempty"`

	Timeout string            `toml:"timeout,omitempty"`
	Headers map[string]string `toml:"headers,omitempty"`
}

// VerifyTLS reports whether server certificates should be verified.
func (s ServerConfig) VerifyTLS() bool {
	return s.Verify == nil || *s.Verify
}

// TimeoutDuration returns the configured request timeout. ok is false when
// the server inherits the global timeout.
func (s ServerConfig) TimeoutDuration() (d time.Duration, ok bool) {
	if s.Timeout == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Endpoint converts the entry into connection parameters.
func (s ServerConfig) Endpoint() tomcat.Endpoint {
	return tomcat.Endpoint{
		URL:      s.URL,
		User:     s.User,
		Password: s.Password,
		TLS: tomcat.TLSOptions{
			Cert:     s.Cert,
			Key:      s.Key,
			CACert:   s.CACert,
			Insecure: !s.VerifyTLS(),
		},
		Headers: s.Headers,
	}
}
