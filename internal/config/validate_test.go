package config

import (
	"strings"
	"testing"
)

func TestValidateAcceptsValidServers(t *testing.T) {
	cfg := &Config{
		Settings: map[string]any{"timeout": int64(5), "echo": "yes"},
		Servers: map[string]ServerConfig{
			"local": {
				URL:  "http://localhost:8080/manager",
				User: "ace",
			},
			"prod": {
				URL:     "https://tomcat.example.com/manager",
				Cert:    "/etc/tomcat/client.pem",
				Key:     "/etc/tomcat/client.key",
				Timeout: "30s",
			},
		},
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidateRejectsMissingAndBadURLs(t *testing.T) {
	cfg := &Config{
		Servers: map[string]ServerConfig{
			"missing": {},
			"bad":     {URL: "://bad-url"},
			"ftp":     {URL: "ftp://tomcat.example.com/manager"},
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() error = nil, want non-nil")
	}

	msg := err.Error()
	if !strings.Contains(msg, "servers.missing.url: missing manager url") {
		t.Fatalf("Validate() error = %q, want missing url message", msg)
	}
	if !strings.Contains(msg, "servers.bad.url: invalid URL") {
		t.Fatalf("Validate() error = %q, want invalid URL message", msg)
	}
	if !strings.Contains(msg, `servers.ftp.url: unsupported scheme "ftp"`) {
		t.Fatalf("Validate() error = %q, want unsupported scheme message", msg)
	}
}

func TestValidateRejectsTimeoutKeyAndSettings(t *testing.T) {
	cfg := &Config{
		Settings: map[string]any{"colour": "always"},
		Servers: map[string]ServerConfig{
			"bad": {
				URL:     "http://localhost:8080/manager",
				Key:     "/etc/key.pem",
				Timeout: "soon",
			},
			"negative": {
				URL:     "http://localhost:8080/manager",
				Timeout: "-1s",
			},
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() error = nil, want non-nil")
	}

	msg := err.Error()
	for _, want := range []string{
		"servers.bad.key: set cert as well",
		"servers.bad.timeout: invalid duration",
		"servers.negative.timeout: must be >= 0",
		"colour",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Validate() error = %q, want %q", msg, want)
		}
	}
}

func TestValidateForCurrentEnvExpandsWithoutMutatingSource(t *testing.T) {
	t.Setenv("TOMCAT_URL", "https://tomcat.example.com/manager")

	cfg := &Config{
		Servers: map[string]ServerConfig{
			"prod": {URL: "${TOMCAT_URL}"},
		},
	}

	if err := ValidateForCurrentEnv(cfg); err != nil {
		t.Fatalf("ValidateForCurrentEnv() error = %v, want nil", err)
	}
	if got := cfg.Servers["prod"].URL; got != "${TOMCAT_URL}" {
		t.Fatalf("source URL = %q, want placeholder preserved", got)
	}
}
