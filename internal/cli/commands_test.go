package cli

import (
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lydakis/tomcat-manager/internal/tomcat"
)

func TestSplitAssignment(t *testing.T) {
	tests := []struct {
		args      []string
		wantName  string
		wantValue string
		wantOK    bool
	}{
		{args: []string{"quiet=true"}, wantName: "quiet", wantValue: "true", wantOK: true},
		{args: []string{"quiet", "=", "true"}, wantName: "quiet", wantValue: "true", wantOK: true},
		{args: []string{"quiet", "true"}, wantName: "quiet", wantValue: "true", wantOK: true},
		{args: []string{"prompt=tm> "}, wantName: "prompt", wantValue: "tm>", wantOK: true},
		{args: []string{"status_prefix="}, wantName: "status_prefix", wantValue: "", wantOK: true},
		{args: []string{"quiet"}},
		{args: []string{"=true"}},
		{args: []string{"a b=c"}},
	}
	for _, tt := range tests {
		name, value, ok := splitAssignment(tt.args)
		if ok != tt.wantOK || name != tt.wantName || value != tt.wantValue {
			t.Fatalf("splitAssignment(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.args, name, value, ok, tt.wantName, tt.wantValue, tt.wantOK)
		}
	}
}

func TestIndentXML(t *testing.T) {
	got, err := indentXML(`<status><jvm><memory free="1"/></jvm></status>`)
	if err != nil {
		t.Fatalf("indentXML() error = %v", err)
	}
	want := "<status>\n   <jvm>\n      <memory free=\"1\"></memory>\n   </jvm>\n</status>"
	if got != want {
		t.Fatalf("indentXML() = %q, want %q", got, want)
	}

	if _, err := indentXML("<status><jvm></status>"); err == nil {
		t.Fatal("indentXML() error = nil, want error for mismatched tags")
	}
}

func TestConnectFailure(t *testing.T) {
	url := "http://localhost:8080/manager"
	tests := []struct {
		name string
		r    *tomcat.Response
		want string
	}{
		{
			name: "not found",
			r:    &tomcat.Response{Failure: tomcat.FailureHTTP, StatusCode: http.StatusNotFound, Message: "http error: 404 Not Found"},
			want: "tomcat manager not found at " + url,
		},
		{
			name: "not a manager",
			r:    &tomcat.Response{Failure: tomcat.FailureMalformed, StatusCode: http.StatusOK, Message: "malformed response"},
			want: "tomcat manager not found at " + url,
		},
		{
			name: "auth",
			r:    &tomcat.Response{Failure: tomcat.FailureAuthentication, StatusCode: http.StatusUnauthorized, Message: "http error: 401 Unauthorized"},
			want: "http error: 401 Unauthorized",
		},
	}
	for _, tt := range tests {
		if got := connectFailure(url, tt.r); got != tt.want {
			t.Fatalf("%s: connectFailure() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestConfigEditRunsEditorAndReloads(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	oldRunEditor := runEditor
	defer func() { runEditor = oldRunEditor }()
	var gotArgv []string
	runEditor = func(argv []string) error {
		gotArgv = argv
		return os.WriteFile(argv[len(argv)-1], []byte("[settings]\nprompt = \"edited> \"\n"), 0o600)
	}

	res := runCLI(t, "set editor='vi -n'\nconfig edit\nshow prompt\n", "--config-file", cfgPath)
	if res.code != ExitOK {
		t.Fatalf("code = %d, want %d (stderr %q)", res.code, ExitOK, res.stderr)
	}
	if want := []string{"vi", "-n", cfgPath}; !reflect.DeepEqual(gotArgv, want) {
		t.Fatalf("editor argv = %q, want %q", gotArgv, want)
	}
	if !strings.Contains(res.stdout, `prompt="edited> "`) {
		t.Fatalf("stdout = %q, want reloaded prompt", res.stdout)
	}
	if !strings.Contains(res.stderr, "--reloading configuration") {
		t.Fatalf("stderr = %q, want reload feedback", res.stderr)
	}
}

func TestConfigEditWithoutEditor(t *testing.T) {
	res := runCLI(t, "config edit\n", "-n")
	if res.code != ExitError {
		t.Fatalf("code = %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "no editor: use 'set editor={path}' to specify one") {
		t.Fatalf("stderr = %q, want no editor message", res.stderr)
	}
}

func TestConfigFilePrintsPath(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.toml")
	res := runCLI(t, "", "--config-file", cfgPath, "config", "file")
	if res.stdout != cfgPath+"\n" {
		t.Fatalf("stdout = %q, want %q", res.stdout, cfgPath+"\n")
	}
}
