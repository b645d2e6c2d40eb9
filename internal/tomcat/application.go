package tomcat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// State is the run state of a deployed application.
type State int

const (
	StateUnknown State = iota
	StateRunning
	StateStopped
)

// ParseState maps a list token to a State. Unrecognized tokens are StateUnknown.
func ParseState(token string) State {
	switch token {
	case "running":
		return StateRunning
	case "stopped":
		return StateStopped
	default:
		return StateUnknown
	}
}

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const versionSep = "##"

// MarshalText renders the state token used on the wire.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Application is one row of the list endpoint.
type Application struct {
	Path     string `json:"path" yaml:"path"`
	State    State  `json:"state" yaml:"state"`
	Sessions int    `json:"sessions" yaml:"sessions"`
	// Tag is the fourth field verbatim: the deployment directory, optionally
	// followed by "##" and a parallel deployment version.
	Tag string `json:"tag" yaml:"tag"`
	// SessionsErr is set when the session count was not a non-negative
	// integer. Sessions is 0 in that case.
	SessionsErr error `json:"-" yaml:"-"`
}

func parseApplication(line string) (Application, bool) {
	fields := strings.SplitN(line, ":", 4)
	if len(fields) < 4 {
		return Application{}, false
	}

	app := Application{
		Path:  fields[0],
		State: ParseState(fields[1]),
		Tag:   fields[3],
	}
	n, err := strconv.Atoi(fields[2])
	switch {
	case err != nil:
		app.SessionsErr = fmt.Errorf("invalid session count %q", fields[2])
	case n < 0:
		app.SessionsErr = fmt.Errorf("negative session count %d", n)
	default:
		app.Sessions = n
	}
	return app, true
}

// Directory returns the tag without its version suffix.
func (a Application) Directory() string {
	dir, _, _ := strings.Cut(a.Tag, versionSep)
	return dir
}

// Version returns the parallel deployment version, or "" if there is none.
func (a Application) Version() string {
	_, version, _ := strings.Cut(a.Tag, versionSep)
	return version
}

// String renders the application in list row form.
func (a Application) String() string {
	return fmt.Sprintf("%s:%s:%d:%s", a.Path, a.State, a.Sessions, a.Tag)
}

// SortOrder selects the key used by SortApplications.
type SortOrder int

const (
	SortByState SortOrder = iota
	SortByPath
)

// SortApplications orders apps in place. SortByState groups by state, then
// path, then version; SortByPath orders by path, version, then state.
func SortApplications(apps []Application, order SortOrder) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, b := apps[i], apps[j]
		if order == SortByState && a.State != b.State {
			return a.State.String() < b.State.String()
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Version() != b.Version() {
			return a.Version() < b.Version()
		}
		return a.State.String() < b.State.String()
	})
}

// ServerInfo holds the key/value pairs reported by the serverinfo endpoint.
type ServerInfo map[string]string

// Well-known serverinfo keys.
const (
	InfoTomcatVersion  = "Tomcat Version"
	InfoOSName         = "OS Name"
	InfoOSVersion      = "OS Version"
	InfoOSArchitecture = "OS Architecture"
	InfoJVMVersion     = "JVM Version"
	InfoJVMVendor      = "JVM Vendor"
)

func (s ServerInfo) TomcatVersion() string  { return s[InfoTomcatVersion] }
func (s ServerInfo) OSName() string         { return s[InfoOSName] }
func (s ServerInfo) OSVersion() string      { return s[InfoOSVersion] }
func (s ServerInfo) OSArchitecture() string { return s[InfoOSArchitecture] }
func (s ServerInfo) JVMVersion() string     { return s[InfoJVMVersion] }
func (s ServerInfo) JVMVendor() string      { return s[InfoJVMVendor] }

// Version extracts the major and minor Tomcat version. It reports false when
// the Tomcat Version entry is missing or carries no dotted version.
func (s ServerInfo) Version() (Version, bool) {
	return ParseVersion(s.TomcatVersion())
}
