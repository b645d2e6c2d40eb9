package cli

import (
	"strings"
	"testing"

	"github.com/lydakis/tomcat-manager/internal/tomcat/tomcattest"
)

func TestShellCommandWithoutConnectionReportsNotConnected(t *testing.T) {
	res := runCLI(t, "list\nexit_code\n", "-n")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "not connected") {
		t.Fatalf("stderr = %q, want not connected", res.stderr)
	}
	if res.stdout != "1\n" {
		t.Fatalf("stdout = %q, want %q", res.stdout, "1\n")
	}
}

func TestShellExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{name: "ok", script: "version\nexit_code\n", want: "0"},
		{name: "unknown command", script: "frobnicate\nexit_code\n", want: "127"},
		{name: "usage", script: "connect\nexit_code\n", want: "2"},
		{name: "bad flag", script: "list --bogus\nexit_code\n", want: "2"},
		{name: "unbalanced quote", script: "connect 'http://x\nexit_code\n", want: "2"},
		{name: "exit_code keeps code", script: "frobnicate\nexit_code\nexit_code\n", want: "127\n127"},
		{name: "comments and blanks keep code", script: "frobnicate\n\n# note\nexit_code\n", want: "127"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.script, "-n")
			lines := strings.Split(strings.TrimRight(res.stdout, "\n"), "\n")
			got := strings.Join(lines[len(lines)-strings.Count(tt.want, "\n")-1:], "\n")
			if got != tt.want {
				t.Fatalf("exit_code output = %q, want %q (stdout %q, stderr %q)", got, tt.want, res.stdout, res.stderr)
			}
		})
	}
}

func TestShellUnknownCommandMessage(t *testing.T) {
	res := runCLI(t, "frobnicate\n", "-n")
	if res.code != ExitCommandNotFound {
		t.Fatalf("code = %d, want %d", res.code, ExitCommandNotFound)
	}
	if !strings.Contains(res.stderr, "unknown command: frobnicate") {
		t.Fatalf("stderr = %q, want unknown command", res.stderr)
	}
}

func TestShellConnectRunAndDisconnect(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	script := strings.Join([]string{
		"connect " + srv.URL + " admin admin",
		"which",
		"stop /manager",
		"list -r -s stopped -b path",
		"disconnect",
		"which",
	}, "\n") + "\n"
	res := runCLI(t, script, "-n")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d (last which fails)", res.code, ExitError)
	}

	wantOut := "connected to " + srv.URL + " as admin\n" +
		"/manager:stopped:3:manager\n" +
		"/shiny:stopped:0:shiny##v2.0.5\n"
	if res.stdout != wantOut {
		t.Fatalf("stdout = %q, want %q", res.stdout, wantOut)
	}
	for _, want := range []string{"--stopped /manager", "--disconnected from " + srv.URL, "not connected"} {
		if !strings.Contains(res.stderr, want) {
			t.Fatalf("stderr = %q, want %q", res.stderr, want)
		}
	}
}

func TestShellFailedConnectKeepsPreviousConnection(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	script := "connect " + srv.URL + " admin admin\n" +
		"connect " + srv.URL + " admin wrong\n" +
		"which\n"
	res := runCLI(t, script, "-n")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if res.stdout != "connected to "+srv.URL+" as admin\n" {
		t.Fatalf("stdout = %q, want previous connection", res.stdout)
	}
}

func TestShellServerReportsFailure(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	res := runCLI(t, "start /missing\n", "-n", "-u", "admin", "-p", "admin", srv.URL)
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "No context exists named [/missing]") {
		t.Fatalf("stderr = %q, want server failure message", res.stderr)
	}
}

func TestShellEchoesCommands(t *testing.T) {
	res := runCLI(t, "version\n", "-n", "-e")
	if !strings.HasPrefix(res.stdout, "tomcat-manager> version\n") {
		t.Fatalf("stdout = %q, want echoed command first", res.stdout)
	}
}

func TestShellSetAndShow(t *testing.T) {
	res := runCLI(t, "set quiet=true\nshow quiet\nset prompt 'tm> '\nshow prompt\n", "-n")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	lines := strings.Split(strings.TrimRight(res.stdout, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("stdout lines = %q, want 2", lines)
	}
	if !strings.HasPrefix(lines[0], "quiet=true ") || !strings.HasSuffix(lines[0], "# suppress status feedback") {
		t.Fatalf("show quiet = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `prompt="tm> "`) {
		t.Fatalf("show prompt = %q", lines[1])
	}
}

func TestShellSetErrors(t *testing.T) {
	tests := []struct {
		script string
		want   string
	}{
		{script: "set foo\n", want: "invalid syntax: try 'set {setting}={value}'"},
		{script: "set foo=bar\n", want: "unknown setting: 'foo'"},
		{script: "set timeout=soon\n", want: "timeout"},
		{script: "show foo\n", want: "unknown setting: 'foo'"},
	}
	for _, tt := range tests {
		res := runCLI(t, tt.script, "-n")
		if res.code != ExitError {
			t.Fatalf("%q: code = %d, want %d", tt.script, res.code, ExitError)
		}
		if !strings.Contains(res.stderr, tt.want) {
			t.Fatalf("%q: stderr = %q, want %q", tt.script, res.stderr, tt.want)
		}
	}
}

func TestShellHistory(t *testing.T) {
	res := runCLI(t, "version\nhistory\nhistory -c\nhistory\n", "-n")
	want := "tomcat-manager " + buildVersion + "\n" +
		"    1  version\n" +
		"    2  history\n" +
		"    1  history\n"
	if res.stdout != want {
		t.Fatalf("stdout = %q, want %q", res.stdout, want)
	}
}

func TestShellExitStopsReading(t *testing.T) {
	res := runCLI(t, "exit\nversion\n", "-n")
	if res.stdout != "" {
		t.Fatalf("stdout = %q, want nothing after exit", res.stdout)
	}
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d", res.code, ExitOK)
	}
}

func TestShellImplements(t *testing.T) {
	srv := tomcattest.NewServer(tomcattest.WithVersion("8.0.53"))
	defer srv.Close()

	res := runCLI(t, "implements sslReload\nimplements list\nimplements bogus\n", "-n", "-u", "admin", "-p", "admin", srv.URL)
	if res.code != ExitUsage {
		t.Fatalf("code = %d, want %d", res.code, ExitUsage)
	}
	lines := strings.Split(strings.TrimRight(res.stdout, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("stdout = %q, want 2 lines", res.stdout)
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "no (requires 8.5)") {
			t.Fatalf("implements on 8.0 = %q, want refused", line)
		}
	}
	if !strings.Contains(res.stderr, "older than the lowest supported tomcat") {
		t.Fatalf("stderr = %q, want old server warning", res.stderr)
	}
}

func TestShellMissingVersionFallsBackToBaseline(t *testing.T) {
	srv := tomcattest.NewServer(tomcattest.WithVersion(""))
	defer srv.Close()

	res := runCLI(t, "implements sslReload\n", "-n", "-u", "admin", "-p", "admin", srv.URL)
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if !strings.HasSuffix(strings.TrimSpace(res.stdout), "yes") {
		t.Fatalf("stdout = %q, want sslReload supported at the baseline", res.stdout)
	}
	if !strings.Contains(res.stderr, "assuming baseline") {
		t.Fatalf("stderr = %q, want baseline warning", res.stderr)
	}
}

func TestShellInfoCommands(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	script := "serverinfo -o json\nfindleakers\nsslreload www.example.com\n"
	res := runCLI(t, script, "-n", "-u", "admin", "-p", "admin", srv.URL)
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	for _, want := range []string{`"Tomcat Version": "Apache Tomcat/9.0.41"`, "/leaker1\n/leaker2\n"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("stdout = %q, want %q", res.stdout, want)
		}
	}
	if strings.Count(res.stdout, "/leaker1") != 1 {
		t.Fatalf("stdout = %q, want leakers listed once", res.stdout)
	}
	if !strings.Contains(res.stderr, "Reloaded TLS configuration for [www.example.com]") {
		t.Fatalf("stderr = %q, want sslreload feedback", res.stderr)
	}
}

func TestShellExpireValidatesIdle(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	res := runCLI(t, "expire /manager soon\n", "-n", "-u", "admin", "-p", "admin", srv.URL)
	if res.code != ExitUsage {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitUsage, res.stderr)
	}

	res = runCLI(t, "expire /manager 15\n", "-n", "-u", "admin", "-p", "admin", srv.URL)
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if !strings.Contains(res.stdout, ">15 minutes: 3 sessions were expired") {
		t.Fatalf("stdout = %q, want expire result", res.stdout)
	}
}

func TestCompletionQueries(t *testing.T) {
	res := runCLI(t, "", "-n", "__list", "commands")
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d", res.code, ExitOK)
	}
	for _, want := range []string{"connect\n", "list\n", "exit_code\n"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("commands = %q, want %q", res.stdout, want)
		}
	}
	if strings.Contains(res.stdout, "__list") {
		t.Fatalf("commands = %q, want hidden command omitted", res.stdout)
	}

	res = runCLI(t, "", "-n", "completion", "bash")
	if res.code != ExitOK || !strings.Contains(res.stdout, "__list servers") {
		t.Fatalf("completion bash code = %d, stdout %q", res.code, res.stdout)
	}
	res = runCLI(t, "", "-n", "completion", "tcsh")
	if res.code != ExitUsage {
		t.Fatalf("completion tcsh code = %d, want %d", res.code, ExitUsage)
	}
}
