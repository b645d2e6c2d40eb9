package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/lydakis/tomcat-manager/internal/prompt"
	"github.com/lydakis/tomcat-manager/internal/tomcat/tomcattest"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

// runCLI runs the program with isolated config and state directories,
// feeding stdin as the command stream.
func runCLI(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")

	oldIn, oldOut, oldErr := rootStdin, rootStdout, rootStderr
	oldNoColor := color.NoColor
	oldReadPassword := readPassword
	defer func() {
		rootStdin, rootStdout, rootStderr = oldIn, oldOut, oldErr
		color.NoColor = oldNoColor
		readPassword = oldReadPassword
	}()

	var out, errOut bytes.Buffer
	rootStdin = strings.NewReader(stdin)
	rootStdout = &out
	rootStderr = &errOut
	color.NoColor = true
	readPassword = func(*session) (string, error) { return "", prompt.ErrNoTerminal }

	code := Run(args)
	return runResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

func TestRunVersionFlag(t *testing.T) {
	oldVersion := buildVersion
	defer func() { buildVersion = oldVersion }()
	buildVersion = "1.2.3"

	res := runCLI(t, "", "--version")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d", res.code, ExitOK)
	}
	if res.stdout != "tomcat-manager 1.2.3\n" {
		t.Fatalf("stdout = %q, want %q", res.stdout, "tomcat-manager 1.2.3\n")
	}
	if res.stderr != "" {
		t.Fatalf("stderr = %q, want empty", res.stderr)
	}
}

func TestRunHelpFlag(t *testing.T) {
	res := runCLI(t, "", "-h")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d", res.code, ExitOK)
	}
	for _, want := range []string{"Usage:", "<manager_url|config_name>", "--noconfig", "--timeout"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("help output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestRunUnknownFlagIsUsageError(t *testing.T) {
	res := runCLI(t, "", "--bogus")
	if res.code != ExitUsage {
		t.Fatalf("code = %d, want %d", res.code, ExitUsage)
	}
	if !strings.Contains(res.stderr, "unknown flag") {
		t.Fatalf("stderr = %q, want unknown flag error", res.stderr)
	}
}

func TestRunNegativeTimeoutIsUsageError(t *testing.T) {
	res := runCLI(t, "", "-t", "-1", "version")
	if res.code != ExitUsage {
		t.Fatalf("code = %d, want %d", res.code, ExitUsage)
	}
}

func TestRunPasswordWithoutUserIsUsageError(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	res := runCLI(t, "", "-n", "-p", "admin", srv.URL, "list")
	if res.code != ExitUsage {
		t.Fatalf("code = %d, want %d", res.code, ExitUsage)
	}
	if !strings.Contains(res.stderr, "--password requires --user") {
		t.Fatalf("stderr = %q, want password without user error", res.stderr)
	}
	if got := srv.Requests(); got != 0 {
		t.Fatalf("requests = %d, want 0", got)
	}
}

func TestRunOneShotListRaw(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	res := runCLI(t, "", "-n", "-u", "admin", "-p", "admin", srv.URL, "list", "-r")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	want := "/:running:0:ROOT\n/manager:running:3:manager\n/shiny:stopped:0:shiny##v2.0.5\n"
	if res.stdout != want {
		t.Fatalf("stdout = %q, want %q", res.stdout, want)
	}
	if !strings.Contains(res.stderr, "--connected to "+srv.URL+" as admin") {
		t.Fatalf("stderr = %q, want connect feedback", res.stderr)
	}
	if !strings.Contains(res.stderr, "tomcat version: 9.0.41") {
		t.Fatalf("stderr = %q, want version feedback", res.stderr)
	}
}

func TestRunOneShotQuietSuppressesFeedback(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	res := runCLI(t, "", "-n", "-q", "-u", "admin", "-p", "admin", srv.URL, "start", "/shiny")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if res.stderr != "" {
		t.Fatalf("stderr = %q, want empty", res.stderr)
	}
	for _, app := range srv.Apps() {
		if app.Path == "/shiny" && app.State != "running" {
			t.Fatalf("/shiny state = %q, want running", app.State)
		}
	}
}

func TestRunStatusToStdout(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	res := runCLI(t, "", "-n", "-s", "-u", "admin", "-p", "admin", srv.URL, "stop", "/manager")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if !strings.Contains(res.stdout, "--stopped /manager") {
		t.Fatalf("stdout = %q, want stop feedback", res.stdout)
	}
}

func TestRunBadCredentialsFailsWithoutRunningCommand(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	res := runCLI(t, "", "-n", "-u", "admin", "-p", "wrong", srv.URL, "list")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "401") {
		t.Fatalf("stderr = %q, want 401 failure", res.stderr)
	}
	if res.stdout != "" {
		t.Fatalf("stdout = %q, want empty", res.stdout)
	}
	if got := srv.Requests(); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
}

func TestRunConnectNotFound(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	url := srv.Server.URL + "/nothing"
	res := runCLI(t, "", "-n", "-u", "admin", "-p", "admin", url, "list")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "tomcat manager not found at "+url) {
		t.Fatalf("stderr = %q, want not found message", res.stderr)
	}
}

func TestRunUnsupportedOperationNamesMinimumVersion(t *testing.T) {
	srv := tomcattest.NewServer(tomcattest.WithVersion("8.0.53"))
	defer srv.Close()

	res := runCLI(t, "", "-n", "-u", "admin", "-p", "admin", srv.URL, "sslreload")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "sslReload requires tomcat 8.5") {
		t.Fatalf("stderr = %q, want unsupported message", res.stderr)
	}
	// serverinfo only; the gate stops sslReload before the transport.
	if got := srv.Requests(); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
}

func TestRunRefusesServersBelowBaseline(t *testing.T) {
	srv := tomcattest.NewServer(tomcattest.WithVersion("7.0.109"))
	defer srv.Close()

	res := runCLI(t, "", "-n", "-u", "admin", "-p", "admin", srv.URL, "list", "-r")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "list requires tomcat 8.5 or later, server is 7.0") {
		t.Fatalf("stderr = %q, want unsupported message", res.stderr)
	}
	if res.stdout != "" {
		t.Fatalf("stdout = %q, want empty", res.stdout)
	}
	if got := srv.Requests(); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
}

func TestRunAddServerThenConnectByName(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	res := runCLI(t, "", "--config-file", cfgPath,
		"config", "add-server", "prod", srv.URL, "-u", "admin", "-p", "${TM_TEST_PASSWORD}")
	if res.code != ExitOK {
		t.Fatalf("add-server code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if !strings.Contains(res.stdout, `Added server "prod" in `+cfgPath) {
		t.Fatalf("stdout = %q, want added message", res.stdout)
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	if !strings.Contains(string(data), "${TM_TEST_PASSWORD}") {
		t.Fatalf("config = %q, want unexpanded password reference", data)
	}

	t.Setenv("TM_TEST_PASSWORD", "admin")
	res = runCLI(t, "", "--config-file", cfgPath, "prod", "list", "-r", "-s", "stopped")
	if res.code != ExitOK {
		t.Fatalf("list code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if res.stdout != "/shiny:stopped:0:shiny##v2.0.5\n" {
		t.Fatalf("stdout = %q, want only stopped apps", res.stdout)
	}
}

func TestRunAddServerRefusesOverwriteWithoutFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	args := []string{"--config-file", cfgPath, "config", "add-server", "prod", "http://localhost:8080/manager"}

	if res := runCLI(t, "", args...); res.code != ExitOK {
		t.Fatalf("first add code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	res := runCLI(t, "", args...)
	if res.code != ExitUsage {
		t.Fatalf("second add code = %d, want %d", res.code, ExitUsage)
	}
	if !strings.Contains(res.stderr, "already exists") {
		t.Fatalf("stderr = %q, want already exists", res.stderr)
	}

	res = runCLI(t, "", append(args, "--overwrite")...)
	if res.code != ExitOK {
		t.Fatalf("overwrite code = %d, want %d", res.code, ExitOK)
	}
	if !strings.Contains(res.stdout, `Updated server "prod"`) {
		t.Fatalf("stdout = %q, want updated message", res.stdout)
	}
}

func TestRunServerNameWinsOverStandaloneCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	cfg := "[servers.version]\nurl = \"http://127.0.0.1:1/manager\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	res := runCLI(t, "", "--config-file", cfgPath, "-t", "1", "version", "list")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if strings.Contains(res.stdout, "tomcat-manager ") {
		t.Fatalf("stdout = %q, want the server to be used instead of the version command", res.stdout)
	}
}

func TestRunInvalidConfigIsUsageError(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[servers.bad]\nurl = \"\"\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	res := runCLI(t, "", "--config-file", cfgPath, "version")
	if res.code != ExitUsage {
		t.Fatalf("code = %d, want %d", res.code, ExitUsage)
	}
	if !strings.Contains(res.stderr, "invalid config") {
		t.Fatalf("stderr = %q, want invalid config", res.stderr)
	}
}

func TestResolveBuildVersionHonorsInjectedValue(t *testing.T) {
	if got := resolveBuildVersion("1.2.3"); got != "1.2.3" {
		t.Fatalf("resolveBuildVersion() = %q, want %q", got, "1.2.3")
	}
}
