package tomcat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by every operation other than Connect when
	// the Manager has no successful connection.
	ErrNotConnected = errors.New("not connected")
	// ErrInvalidArgument is returned when a required operation argument is missing.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownOperation is returned when an operation has no capability entry.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Outcome is the sentinel reported on the first line of a manager response.
type Outcome int

const (
	OutcomeFail Outcome = iota
	OutcomeOK
)

func (o Outcome) String() string {
	if o == OutcomeOK {
		return "OK"
	}
	return "FAIL"
}

// FailureKind says why a Response did not succeed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureServer means the manager answered with a FAIL status line.
	FailureServer
	// FailureMalformed means the body had no recognizable status line.
	FailureMalformed
	// FailureNetwork covers refused connections, DNS errors and timeouts.
	FailureNetwork
	// FailureAuthentication means HTTP 401 or 403.
	FailureAuthentication
	// FailureHTTP covers any other non-2xx status.
	FailureHTTP
	// FailureUnsupported means the connected server is too old for the operation.
	FailureUnsupported
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureServer:
		return "server"
	case FailureMalformed:
		return "malformed"
	case FailureNetwork:
		return "network"
	case FailureAuthentication:
		return "authentication"
	case FailureHTTP:
		return "http"
	case FailureUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Response is the result of one manager operation.
//
// Message is always a single line. Result holds every line after the status
// line, newline separated, and is empty for failures that never reached the
// manager.
type Response struct {
	Outcome    Outcome
	Message    string
	Failure    FailureKind
	StatusCode int
	URL        string
	Result     string
}

// OK reports whether the operation succeeded.
func (r *Response) OK() bool {
	return r != nil && r.Outcome == OutcomeOK
}

// Err returns nil for a successful response and a *ResponseError otherwise.
func (r *Response) Err() error {
	if r == nil {
		return &ResponseError{Kind: FailureMalformed, Message: "no response"}
	}
	if r.OK() {
		return nil
	}
	return &ResponseError{Kind: r.Failure, StatusCode: r.StatusCode, Message: r.Message}
}

// ResponseError is the error form of a failed Response.
type ResponseError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return e.Message
}

func failResponse(kind FailureKind, format string, args ...any) *Response {
	return &Response{
		Outcome: OutcomeFail,
		Failure: kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// ListResponse carries the applications reported by the list endpoint.
type ListResponse struct {
	*Response
	Apps []Application
}

// ServerInfoResponse carries the key/value pairs reported by serverinfo.
type ServerInfoResponse struct {
	*Response
	Info ServerInfo
}

// ResourcesResponse maps global JNDI resource names to their class names.
type ResourcesResponse struct {
	*Response
	Resources map[string]string
}

// LeakersResponse lists the paths of applications that leak memory.
type LeakersResponse struct {
	*Response
	Leakers []string
}
