// Package tomcat is a client for the Tomcat Manager text interface.
//
// A Manager holds the connection state for one manager endpoint. Connect
// negotiates the server version; every other operation first checks the
// connection and the capability table and only then issues one HTTP call.
// Server side failures are reported as fail Responses, never as errors.
package tomcat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds each manager request unless overridden.
const DefaultTimeout = 10 * time.Second

const serverInfoSuffix = "/text/serverinfo"

var discardLogger = slog.New(slog.DiscardHandler)

// Endpoint identifies a manager application and how to authenticate to it.
type Endpoint struct {
	URL      string
	User     string
	Password string
	TLS      TLSOptions
	Headers  map[string]string
}

// state is replaced as a whole on connect and disconnect.
type state struct {
	baseURL   string
	user      string
	password  string
	version   Version
	transport Transport
}

// Manager is the connection state for one Tomcat Manager endpoint. It is not
// safe for concurrent use.
type Manager struct {
	logger       *slog.Logger
	transport    Transport
	requirements Requirements
	timeout      time.Duration
	userAgent    string

	st *state
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTransport fixes the transport instead of building an HTTPTransport per
// endpoint on connect.
func WithTransport(t Transport) Option {
	return func(m *Manager) {
		m.transport = t
	}
}

// WithRequirements replaces the capability table.
func WithRequirements(r Requirements) Option {
	return func(m *Manager) {
		m.requirements = r.clone()
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithUserAgent sets the User-Agent sent by the built-in HTTP transport.
func WithUserAgent(ua string) Option {
	return func(m *Manager) {
		m.userAgent = ua
	}
}

// New returns a disconnected Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		logger:       discardLogger,
		requirements: defaultRequirements,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the per-request timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// SetTimeout changes the per-request timeout. Zero disables it.
func (m *Manager) SetTimeout(d time.Duration) {
	m.timeout = d
}

// Connected reports whether the last Connect succeeded and no Disconnect followed.
func (m *Manager) Connected() bool {
	return m.st != nil
}

// URL returns the connected manager URL, after any redirects.
func (m *Manager) URL() string {
	if m.st == nil {
		return ""
	}
	return m.st.baseURL
}

// User returns the connected user name.
func (m *Manager) User() string {
	if m.st == nil {
		return ""
	}
	return m.st.user
}

// ServerVersion returns the negotiated version. ok is false when disconnected.
func (m *Manager) ServerVersion() (v Version, ok bool) {
	if m.st == nil {
		return Version{}, false
	}
	return m.st.version, true
}

// Connect validates ep by fetching serverinfo. On success the endpoint, the
// credentials and the server version replace the current state. On failure
// the current state, connected or not, is kept as it was.
func (m *Manager) Connect(ctx context.Context, ep Endpoint) (*ServerInfoResponse, error) {
	base := strings.TrimRight(strings.TrimSpace(ep.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: no url specified", ErrInvalidArgument)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", ErrInvalidArgument, base, err)
	}

	transport := m.transport
	if transport == nil {
		t, err := NewHTTPTransport(HTTPOptions{
			TLS:       ep.TLS,
			Headers:   ep.Headers,
			UserAgent: m.userAgent,
			Logger:    m.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		transport = t
	}

	candidate := &state{
		baseURL:   base,
		user:      ep.User,
		password:  ep.Password,
		transport: transport,
	}
	r := &ServerInfoResponse{Response: m.do(ctx, candidate, &Request{
		Method: http.MethodGet,
		URL:    base + serverInfoSuffix,
	})}
	if !r.OK() {
		m.logger.Debug("connect failed", slog.String("url", base), slog.String("error", r.Message))
		return r, nil
	}

	r.Info = ParseServerInfo(r.Result)
	version, ok := r.Info.Version()
	if !ok {
		m.logger.Warn("server did not report a tomcat version; assuming baseline",
			slog.String("url", base), slog.String("baseline", Baseline.String()))
		version = Baseline
	}
	if !version.Supported() {
		m.logger.Warn("server is older than the lowest supported tomcat; operations will be refused",
			slog.String("url", base), slog.String("version", version.String()), slog.String("baseline", Baseline.String()))
	}
	candidate.version = version
	if redirected := stripServerInfo(r.URL); redirected != "" {
		candidate.baseURL = redirected
	}

	m.st = candidate
	m.logger.Debug("connected", slog.String("url", candidate.baseURL), slog.String("version", version.String()))
	return r, nil
}

func stripServerInfo(final string) string {
	if final == "" {
		return ""
	}
	u, err := url.Parse(final)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	s := u.String()
	if !strings.HasSuffix(s, serverInfoSuffix) {
		return ""
	}
	return strings.TrimSuffix(s, serverInfoSuffix)
}

// Disconnect forgets the endpoint, credentials and server version. It is
// safe to call when already disconnected.
func (m *Manager) Disconnect() {
	m.st = nil
}

func (m *Manager) requireConnected() (*state, error) {
	if m.st == nil {
		return nil, ErrNotConnected
	}
	return m.st, nil
}

// Implements reports whether the connected server supports op.
func (m *Manager) Implements(op Operation) (bool, error) {
	st, err := m.requireConnected()
	if err != nil {
		return false, err
	}
	err = m.requirements.Check(op, st.version, true)
	var unsupported *UnsupportedError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &unsupported):
		return false, nil
	default:
		return false, err
	}
}

// gate runs the connection and capability checks for op. A non-nil Response
// means the operation must stop and return it.
func (m *Manager) gate(op Operation) (*state, *Response, error) {
	st, err := m.requireConnected()
	if err != nil {
		return nil, nil, err
	}
	err = m.requirements.Check(op, st.version, true)
	var unsupported *UnsupportedError
	switch {
	case err == nil:
		return st, nil, nil
	case errors.As(err, &unsupported):
		return nil, failResponse(FailureUnsupported, "%s", unsupported.Error()), nil
	default:
		return nil, nil, err
	}
}

// do issues req and converts the outcome into a Response.
func (m *Manager) do(ctx context.Context, st *state, req *Request) *Response {
	raw, fail := m.roundTrip(ctx, st, req)
	if fail != nil {
		return fail
	}
	r := ParseResponse(raw.Body)
	r.StatusCode = raw.StatusCode
	r.URL = raw.URL
	return r
}

// roundTrip performs req and maps transport errors and non-2xx statuses to
// fail Responses.
func (m *Manager) roundTrip(ctx context.Context, st *state, req *Request) (*RawResponse, *Response) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	req.User = st.user
	req.Password = st.password

	raw, err := st.transport.RoundTrip(ctx, req)
	if err != nil {
		return nil, networkFailure(err)
	}

	switch {
	case raw.StatusCode == http.StatusUnauthorized || raw.StatusCode == http.StatusForbidden:
		r := failResponse(FailureAuthentication, "http error: %s", statusText(raw))
		r.StatusCode = raw.StatusCode
		r.URL = raw.URL
		return nil, r
	case raw.StatusCode < 200 || raw.StatusCode > 299:
		r := failResponse(FailureHTTP, "http error: %s", statusText(raw))
		r.StatusCode = raw.StatusCode
		r.URL = raw.URL
		return nil, r
	}
	return raw, nil
}

func networkFailure(err error) *Response {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return failResponse(FailureNetwork, "connection timeout")
	case errors.As(err, &netErr) && netErr.Timeout():
		return failResponse(FailureNetwork, "connection timeout")
	case errors.Is(err, context.Canceled):
		return failResponse(FailureNetwork, "request canceled")
	default:
		return failResponse(FailureNetwork, "connection error: %s", firstLine(err.Error()))
	}
}

func statusText(raw *RawResponse) string {
	if raw.Status != "" {
		return raw.Status
	}
	return fmt.Sprintf("%d %s", raw.StatusCode, http.StatusText(raw.StatusCode))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
