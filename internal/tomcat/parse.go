package tomcat

import (
	"strings"
)

const (
	sentinelOK   = "OK"
	sentinelFail = "FAIL"
	statusSep    = " - "

	maxQuotedStatus = 60
)

// ParseResponse interprets a manager text body.
//
// It never fails: a body without a recognizable status line produces a fail
// Response of kind FailureMalformed.
func ParseResponse(body string) *Response {
	lines := splitLines(body)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return failResponse(FailureMalformed, "empty response from server")
	}

	outcome, msg, ok := parseStatusLine(lines[0])
	if !ok {
		return failResponse(FailureMalformed, "unrecognized status line %q", truncate(lines[0], maxQuotedStatus))
	}

	r := &Response{
		Outcome: outcome,
		Message: msg,
		Result:  strings.Join(lines[1:], "\n"),
	}
	if outcome != OutcomeOK {
		r.Failure = FailureServer
	}
	return r
}

// parseStatusLine accepts "OK - msg" and "FAIL - msg". The sentinel is case
// sensitive and the message is kept verbatim.
func parseStatusLine(line string) (Outcome, string, bool) {
	sentinel, msg, found := strings.Cut(line, statusSep)
	if !found {
		// "OK -" with nothing after the separator
		sentinel = strings.TrimSuffix(line, " -")
		if sentinel == line {
			return OutcomeFail, "", false
		}
		msg = ""
	}

	switch sentinel {
	case sentinelOK:
		return OutcomeOK, msg, true
	case sentinelFail:
		return OutcomeFail, msg, true
	default:
		return OutcomeFail, "", false
	}
}

// ParseApplications reads list rows of the form path:state:sessions:directory.
// Rows with fewer than four fields are skipped; order is preserved.
func ParseApplications(result string) []Application {
	var apps []Application
	for _, line := range splitLines(result) {
		if line == "" {
			continue
		}
		app, ok := parseApplication(line)
		if !ok {
			continue
		}
		apps = append(apps, app)
	}
	return apps
}

// ParseList combines ParseResponse and ParseApplications. Apps is populated
// only when the status line is OK.
func ParseList(body string) *ListResponse {
	r := &ListResponse{Response: ParseResponse(body)}
	if r.OK() {
		r.Apps = ParseApplications(r.Result)
	}
	return r
}

// ParseServerInfo reads "Key: value" lines. Lines without a colon are ignored.
func ParseServerInfo(result string) ServerInfo {
	info := make(ServerInfo)
	for _, line := range splitLines(result) {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		info[key] = strings.TrimSpace(value)
	}
	return info
}

// ParseResources reads "name:class" lines.
func ParseResources(result string) map[string]string {
	resources := make(map[string]string)
	for _, line := range splitLines(result) {
		name, class, found := strings.Cut(line, ":")
		if !found || name == "" {
			continue
		}
		resources[name] = strings.TrimSpace(class)
	}
	return resources
}

// ParseLeakers returns the distinct non-empty lines of result in order.
func ParseLeakers(result string) []string {
	var leakers []string
	seen := make(map[string]struct{})
	for _, line := range splitLines(result) {
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		leakers = append(leakers, line)
	}
	return leakers
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
