package tomcat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

// DeployOptions are the optional deploy parameters.
type DeployOptions struct {
	// Version tags a parallel deployment.
	Version string
	// Update undeploys an existing application at the same path first.
	Update bool
}

func (o DeployOptions) apply(q url.Values) {
	if o.Version != "" {
		q.Set("version", o.Version)
	}
	if o.Update {
		q.Set("update", "true")
	}
}

func (m *Manager) get(ctx context.Context, st *state, op Operation, q url.Values) *Response {
	return m.do(ctx, st, &Request{
		Method: http.MethodGet,
		URL:    st.baseURL + "/text/" + string(op),
		Query:  q,
	})
}

func appQuery(path, version string) (url.Values, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path specified", ErrInvalidArgument)
	}
	q := url.Values{"path": {path}}
	if version != "" {
		q.Set("version", version)
	}
	return q, nil
}

func (m *Manager) appCommand(ctx context.Context, op Operation, path, version string) (*Response, error) {
	st, fail, err := m.gate(op)
	if err != nil || fail != nil {
		return fail, err
	}
	q, err := appQuery(path, version)
	if err != nil {
		return nil, err
	}
	return m.get(ctx, st, op, q), nil
}

func (m *Manager) textCommand(ctx context.Context, op Operation, q url.Values) (*Response, error) {
	st, fail, err := m.gate(op)
	if err != nil || fail != nil {
		return fail, err
	}
	return m.get(ctx, st, op, q), nil
}

// ServerInfo fetches the server and JVM description.
func (m *Manager) ServerInfo(ctx context.Context) (*ServerInfoResponse, error) {
	r, err := m.textCommand(ctx, OpServerInfo, nil)
	if r == nil {
		return nil, err
	}
	out := &ServerInfoResponse{Response: r}
	if r.OK() {
		out.Info = ParseServerInfo(r.Result)
	}
	return out, err
}

// List returns the deployed applications in server order.
func (m *Manager) List(ctx context.Context) (*ListResponse, error) {
	r, err := m.textCommand(ctx, OpList, nil)
	if r == nil {
		return nil, err
	}
	out := &ListResponse{Response: r}
	if r.OK() {
		out.Apps = ParseApplications(r.Result)
		for _, app := range out.Apps {
			if app.SessionsErr != nil {
				m.logger.Warn("list row has a bad session count",
					slog.String("path", app.Path),
					slog.String("error", app.SessionsErr.Error()),
				)
			}
		}
	}
	return out, err
}

// Start starts a deployed application.
func (m *Manager) Start(ctx context.Context, path, version string) (*Response, error) {
	return m.appCommand(ctx, OpStart, path, version)
}

// Stop stops a running application without undeploying it.
func (m *Manager) Stop(ctx context.Context, path, version string) (*Response, error) {
	return m.appCommand(ctx, OpStop, path, version)
}

// Reload stops and starts an application, picking up changed classes.
func (m *Manager) Reload(ctx context.Context, path, version string) (*Response, error) {
	return m.appCommand(ctx, OpReload, path, version)
}

// Undeploy stops an application and removes it from the server.
func (m *Manager) Undeploy(ctx context.Context, path, version string) (*Response, error) {
	return m.appCommand(ctx, OpUndeploy, path, version)
}

// Sessions reports session statistics for an application.
func (m *Manager) Sessions(ctx context.Context, path, version string) (*Response, error) {
	return m.appCommand(ctx, OpSessions, path, version)
}

// Expire expires sessions idle for at least idle minutes.
func (m *Manager) Expire(ctx context.Context, path, version string, idle int) (*Response, error) {
	st, fail, err := m.gate(OpExpire)
	if err != nil || fail != nil {
		return fail, err
	}
	q, err := appQuery(path, version)
	if err != nil {
		return nil, err
	}
	q.Set("idle", strconv.Itoa(idle))
	return m.get(ctx, st, OpExpire, q), nil
}

// DeployLocalWAR uploads war to the server. size may be -1 when unknown.
func (m *Manager) DeployLocalWAR(ctx context.Context, path string, war io.Reader, size int64, opts DeployOptions) (*Response, error) {
	st, fail, err := m.gate(OpDeploy)
	if err != nil || fail != nil {
		return fail, err
	}
	q, err := appQuery(path, "")
	if err != nil {
		return nil, err
	}
	if war == nil {
		return nil, fmt.Errorf("%w: no warfile specified", ErrInvalidArgument)
	}
	opts.apply(q)
	return m.do(ctx, st, &Request{
		Method:        http.MethodPut,
		URL:           st.baseURL + "/text/" + string(OpDeploy),
		Query:         q,
		Body:          war,
		ContentLength: size,
	}), nil
}

// DeployLocalWARFile opens filename and uploads it with DeployLocalWAR.
func (m *Manager) DeployLocalWARFile(ctx context.Context, path, filename string, opts DeployOptions) (*Response, error) {
	if _, err := m.requireConnected(); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: no warfile specified", ErrInvalidArgument)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: opening warfile: %v", ErrInvalidArgument, err)
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return m.DeployLocalWAR(ctx, path, f, size, opts)
}

// DeployServerWAR deploys a war file already present on the server.
func (m *Manager) DeployServerWAR(ctx context.Context, path, warfile string, opts DeployOptions) (*Response, error) {
	st, fail, err := m.gate(OpDeploy)
	if err != nil || fail != nil {
		return fail, err
	}
	q, err := appQuery(path, "")
	if err != nil {
		return nil, err
	}
	if warfile == "" {
		return nil, fmt.Errorf("%w: no warfile specified", ErrInvalidArgument)
	}
	q.Set("war", warfile)
	opts.apply(q)
	return m.get(ctx, st, OpDeploy, q), nil
}

// DeployServerContext deploys from a context file on the server, optionally
// with a war file also on the server.
func (m *Manager) DeployServerContext(ctx context.Context, path, contextfile, warfile string, opts DeployOptions) (*Response, error) {
	st, fail, err := m.gate(OpDeploy)
	if err != nil || fail != nil {
		return fail, err
	}
	q, err := appQuery(path, "")
	if err != nil {
		return nil, err
	}
	if contextfile == "" {
		return nil, fmt.Errorf("%w: no contextfile specified", ErrInvalidArgument)
	}
	q.Set("config", contextfile)
	if warfile != "" {
		q.Set("war", warfile)
	}
	opts.apply(q)
	return m.get(ctx, st, OpDeploy, q), nil
}

// StatusXML fetches the full server status document. The status servlet has
// no status line, so any 2xx response is a success with the XML in Result.
func (m *Manager) StatusXML(ctx context.Context) (*Response, error) {
	st, fail, err := m.gate(OpStatus)
	if err != nil || fail != nil {
		return fail, err
	}
	raw, fail := m.roundTrip(ctx, st, &Request{
		Method: http.MethodGet,
		URL:    st.baseURL + "/status/all",
		Query:  url.Values{"XML": {"true"}},
	})
	if fail != nil {
		return fail, nil
	}
	return &Response{
		Outcome:    OutcomeOK,
		StatusCode: raw.StatusCode,
		URL:        raw.URL,
		Result:     raw.Body,
	}, nil
}

// VMInfo fetches JVM diagnostics.
func (m *Manager) VMInfo(ctx context.Context) (*Response, error) {
	return m.textCommand(ctx, OpVMInfo, nil)
}

// ThreadDump fetches a JVM thread dump.
func (m *Manager) ThreadDump(ctx context.Context) (*Response, error) {
	return m.textCommand(ctx, OpThreadDump, nil)
}

func (m *Manager) SSLConnectorCiphers(ctx context.Context) (*Response, error) {
	return m.textCommand(ctx, OpSSLConnectorCiphers, nil)
}

func (m *Manager) SSLConnectorCerts(ctx context.Context) (*Response, error) {
	return m.textCommand(ctx, OpSSLConnectorCerts, nil)
}

func (m *Manager) SSLConnectorTrustedCerts(ctx context.Context) (*Response, error) {
	return m.textCommand(ctx, OpSSLConnectorTrustedCerts, nil)
}

// SSLReload reloads TLS keys and certificates for host, or for every virtual
// host when host is empty.
func (m *Manager) SSLReload(ctx context.Context, host string) (*Response, error) {
	var q url.Values
	if host != "" {
		q = url.Values{"tlsHostName": {host}}
	}
	return m.textCommand(ctx, OpSSLReload, q)
}

// Resources lists global JNDI resources, optionally restricted to a class name.
func (m *Manager) Resources(ctx context.Context, class string) (*ResourcesResponse, error) {
	var q url.Values
	if class != "" {
		q = url.Values{"type": {class}}
	}
	r, err := m.textCommand(ctx, OpResources, q)
	if r == nil {
		return nil, err
	}
	out := &ResourcesResponse{Response: r}
	if r.OK() {
		out.Resources = ParseResources(r.Result)
	}
	return out, err
}

// FindLeakers triggers a full GC on the server and lists applications that
// leaked memory across reloads. Duplicates are removed.
func (m *Manager) FindLeakers(ctx context.Context) (*LeakersResponse, error) {
	r, err := m.textCommand(ctx, OpFindLeakers, url.Values{"statusLine": {"true"}})
	if r == nil {
		return nil, err
	}
	out := &LeakersResponse{Response: r}
	if r.OK() {
		out.Leakers = ParseLeakers(r.Result)
	}
	return out, err
}
