// Package tomcattest runs an in-process fake of the Tomcat Manager text
// interface for tests.
package tomcattest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	DefaultUser     = "admin"
	DefaultPassword = "admin"
	DefaultVersion  = "9.0.41"
)

// App is one deployed application held by the fake server.
type App struct {
	Path     string
	State    string
	Sessions int
	Dir      string
}

func (a App) row() string {
	return fmt.Sprintf("%s:%s:%d:%s", a.Path, a.State, a.Sessions, a.Dir)
}

type canned struct {
	status int
	body   string
}

// Server is a fake manager application mounted at /manager.
type Server struct {
	*httptest.Server

	// URL of the manager application, for example http://127.0.0.1:1234/manager.
	URL      string
	User     string
	Password string

	mu        sync.Mutex
	version   string
	apps      []App
	overrides map[string]canned
	requests  []*http.Request
	uploads   map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by serverinfo. An empty version
// omits the Tomcat Version line.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithApps replaces the default application list.
func WithApps(apps ...App) Option {
	return func(s *Server) { s.apps = append([]App(nil), apps...) }
}

// WithCredentials changes the accepted basic auth credentials.
func WithCredentials(user, password string) Option {
	return func(s *Server) {
		s.User = user
		s.Password = password
	}
}

// NewServer starts a fake manager. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		User:     DefaultUser,
		Password: DefaultPassword,
		version:  DefaultVersion,
		apps: []App{
			{Path: "/", State: "running", Sessions: 0, Dir: "ROOT"},
			{Path: "/manager", State: "running", Sessions: 3, Dir: "manager"},
			{Path: "/shiny", State: "stopped", Sessions: 0, Dir: "shiny##v2.0.5"},
		},
		overrides: make(map[string]canned),
		uploads:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/manager/", s.serveManager)
	mux.HandleFunc("/moved/manager/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, strings.TrimPrefix(r.URL.RequestURI(), "/moved"), http.StatusFound)
	})
	s.Server = httptest.NewServer(mux)
	s.URL = s.Server.URL + "/manager"
	return s
}

// MovedURL is a manager URL that redirects to URL.
func (s *Server) MovedURL() string {
	return s.Server.URL + "/moved/manager"
}

// Respond makes the next and all later requests to command return body with
// status, bypassing the fake's own behavior. command is the endpoint name,
// for example "list" or "serverinfo".
func (s *Server) Respond(command string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[command] = canned{status: status, body: body}
}

// Requests returns the number of requests received so far.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent request, or nil.
func (s *Server) LastRequest() *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// Apps returns a snapshot of the deployed applications.
func (s *Server) Apps() []App {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]App(nil), s.apps...)
}

// Uploaded returns the byte count of the last war uploaded to path.
func (s *Server) Uploaded(path string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.uploads[path]
	return n, ok
}

func (s *Server) serveManager(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Clone(r.Context()))

	user, password, ok := r.BasicAuth()
	if !ok || user != s.User || password != s.Password {
		w.Header().Set("WWW-Authenticate", `Basic realm="Tomcat Manager Application"`)
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	}

	if r.URL.Path == "/manager/status/all" {
		s.writeCanned(w, "status", http.StatusOK, statusXML)
		return
	}

	command, found := strings.CutPrefix(r.URL.Path, "/manager/text/")
	if !found {
		http.NotFound(w, r)
		return
	}
	if c, ok := s.overrides[command]; ok {
		w.WriteHeader(c.status)
		io.WriteString(w, c.body) //nolint: errcheck
		return
	}

	q := r.URL.Query()
	path := q.Get("path")
	switch command {
	case "serverinfo":
		s.text(w, s.serverInfo())
	case "list":
		rows := make([]string, 0, len(s.apps)+1)
		rows = append(rows, "OK - Listed applications for virtual host [localhost]")
		for _, app := range s.apps {
			rows = append(rows, app.row())
		}
		s.text(w, strings.Join(rows, "\n")+"\n")
	case "start", "stop", "reload", "undeploy", "sessions", "expire":
		s.appCommand(w, command, path, q.Get("version"), q.Get("idle"))
	case "deploy":
		s.deploy(w, r, path)
	case "vminfo":
		s.text(w, "OK - VM info\n2024-01-01 00:00:00 UTC\nRuntime information:\n  vmName: OpenJDK 64-Bit Server VM\n")
	case "threaddump":
		s.text(w, "OK - JVM thread dump\n\"main\" #1 prio=5 os_prio=0 tid=0x1 nid=0x1 runnable\n")
	case "sslConnectorCiphers":
		s.text(w, "OK - Connector / SSL Cipher information\nConnector[HTTP/1.1-8080]\n  SSL is not enabled for this connector\n")
	case "sslConnectorCerts":
		s.text(w, "OK - Connector / Certificate Chain information\nConnector[HTTP/1.1-8080]\nSSL is not enabled for this connector\n")
	case "sslConnectorTrustedCerts":
		s.text(w, "OK - Connector / Trusted Certificate information\nConnector[HTTP/1.1-8080]\nSSL is not enabled for this connector\n")
	case "sslReload":
		host := q.Get("tlsHostName")
		if host == "" {
			s.text(w, "OK - Reloaded TLS configuration for all TLS virtual hosts\n")
		} else {
			s.text(w, fmt.Sprintf("OK - Reloaded TLS configuration for [%s]\n", host))
		}
	case "resources":
		s.resources(w, q.Get("type"))
	case "findleaks":
		s.text(w, "OK - Found potential memory leaks in the following applications:\n/leaker1\n/leaker2\n/leaker1\n")
	default:
		s.text(w, fmt.Sprintf("FAIL - Unknown command [/%s]\n", command))
	}
}

func (s *Server) writeCanned(w http.ResponseWriter, command string, status int, body string) {
	if c, ok := s.overrides[command]; ok {
		status, body = c.status, c.body
	}
	w.WriteHeader(status)
	io.WriteString(w, body) //nolint: errcheck
}

func (s *Server) text(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain;charset=utf-8")
	io.WriteString(w, body) //nolint: errcheck
}

func (s *Server) serverInfo() string {
	lines := []string{"OK - Server info"}
	if s.version != "" {
		lines = append(lines, "Tomcat Version: Apache Tomcat/"+s.version)
	}
	lines = append(lines,
		"OS Name: Linux",
		"OS Version: 6.1.0-13-amd64",
		"OS Architecture: amd64",
		"JVM Version: 17.0.9+9-Debian-1deb12u1",
		"JVM Vendor: Debian",
	)
	return strings.Join(lines, "\n") + "\n"
}

func (s *Server) find(path, version string) int {
	for i, app := range s.apps {
		if app.Path != path {
			continue
		}
		_, v, _ := strings.Cut(app.Dir, "##")
		if version == "" || v == version {
			return i
		}
	}
	return -1
}

func (s *Server) appCommand(w http.ResponseWriter, command, path, version, idle string) {
	if path == "" {
		s.text(w, "FAIL - Invalid context path null was specified\n")
		return
	}
	i := s.find(path, version)
	if i < 0 {
		s.text(w, fmt.Sprintf("FAIL - No context exists named [%s]\n", path))
		return
	}

	switch command {
	case "start":
		s.apps[i].State = "running"
		s.text(w, fmt.Sprintf("OK - Started application at context path [%s]\n", path))
	case "stop":
		s.apps[i].State = "stopped"
		s.text(w, fmt.Sprintf("OK - Stopped application at context path [%s]\n", path))
	case "reload":
		s.text(w, fmt.Sprintf("OK - Reloaded application at context path [%s]\n", path))
	case "undeploy":
		s.apps = append(s.apps[:i], s.apps[i+1:]...)
		s.text(w, fmt.Sprintf("OK - Undeployed application at context path [%s]\n", path))
	case "sessions":
		s.text(w, fmt.Sprintf("OK - Session information for application at context path [%s]\nDefault maximum session inactive interval is 30 minutes\n<1 minutes: %d sessions\n", path, s.apps[i].Sessions))
	case "expire":
		if idle == "" {
			idle = "0"
		}
		s.text(w, fmt.Sprintf("OK - Session information for application at context path [%s]\nDefault maximum session inactive interval is 30 minutes\n>%s minutes: %d sessions were expired\n", path, idle, s.apps[i].Sessions))
		s.apps[i].Sessions = 0
	}
}

func (s *Server) deploy(w http.ResponseWriter, r *http.Request, path string) {
	q := r.URL.Query()
	if path == "" {
		s.text(w, "FAIL - Invalid context path null was specified\n")
		return
	}

	size := -1
	if r.Method == http.MethodPut {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		size = len(data)
	} else if q.Get("war") == "" && q.Get("config") == "" {
		s.text(w, "FAIL - Invalid parameters supplied for command [/deploy]\n")
		return
	}

	version := q.Get("version")
	if i := s.find(path, version); i >= 0 {
		if q.Get("update") != "true" {
			s.text(w, fmt.Sprintf("FAIL - Application already exists at path [%s]\n", path))
			return
		}
		s.apps = append(s.apps[:i], s.apps[i+1:]...)
	}

	dir := strings.TrimPrefix(path, "/")
	if version != "" {
		dir += "##" + version
	}
	s.apps = append(s.apps, App{Path: path, State: "running", Dir: dir})
	if size >= 0 {
		s.uploads[path] = size
	}
	s.text(w, fmt.Sprintf("OK - Deployed application at context path [%s]\n", path))
}

func (s *Server) resources(w http.ResponseWriter, class string) {
	all := []string{
		"UserDatabase:org.apache.catalina.users.MemoryUserDatabase",
		"jdbc/orders:org.apache.tomcat.dbcp.dbcp2.BasicDataSource",
	}
	lines := []string{"OK - Listed global resources of all types"}
	if class != "" {
		lines[0] = "OK - Listed global resources of type " + class
	}
	for _, line := range all {
		if class == "" || strings.HasSuffix(line, ":"+class) {
			lines = append(lines, line)
		}
	}
	s.text(w, strings.Join(lines, "\n")+"\n")
}

const statusXML = `<?xml version="1.0" encoding="utf-8"?><status><jvm><memory free='1024' total='2048' max='4096'/></jvm></status>`
