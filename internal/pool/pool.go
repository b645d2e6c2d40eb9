// Package pool keeps one connected tomcat.Manager per configured server.
package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/lydakis/tomcat-manager/internal/tomcat"
)

// entry serializes use of one Manager, which is not safe for concurrent use.
// closed is set, under mu, once the Manager has been disconnected.
type entry struct {
	mu     sync.Mutex
	m      *tomcat.Manager
	closed bool
}

// Pool manages manager connections, creating them on demand.
type Pool struct {
	cfg     *config.Config
	opts    []tomcat.Option
	timeout time.Duration

	mu    sync.Mutex
	conns map[string]*entry
}

// New creates a pool over the servers in cfg. opts are passed to every
// Manager; timeout applies to servers without their own timeout.
func New(cfg *config.Config, timeout time.Duration, opts ...tomcat.Option) *Pool {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Pool{
		cfg:     cfg,
		opts:    opts,
		timeout: timeout,
		conns:   make(map[string]*entry),
	}
}

// Servers returns the configured server names in sorted order.
func (p *Pool) Servers() []string {
	names := make([]string, 0, len(p.cfg.Servers))
	for name := range p.cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getOrCreate returns the entry for server, connecting first if needed. A
// failed connect yields a fail Response and caches nothing. The connect runs
// without holding p.mu so a slow server does not stall the others.
func (p *Pool) getOrCreate(ctx context.Context, server string) (*entry, *tomcat.Response, error) {
	p.mu.Lock()
	e, ok := p.conns[server]
	p.mu.Unlock()
	if ok {
		return e, nil, nil
	}

	scfg, ok := p.cfg.Servers[server]
	if !ok {
		return nil, nil, fmt.Errorf("unknown server: %s", server)
	}

	timeout := p.timeout
	if d, ok := scfg.TimeoutDuration(); ok {
		timeout = d
	}
	opts := append(append([]tomcat.Option(nil), p.opts...), tomcat.WithTimeout(timeout))
	m := tomcat.New(opts...)

	r, err := m.Connect(ctx, scfg.Endpoint())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", server, err)
	}
	if !r.OK() {
		return nil, r.Response, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.conns[server]; ok {
		// Another caller connected first.
		m.Disconnect()
		return current, nil, nil
	}
	e = &entry{m: m}
	p.conns[server] = e
	return e, nil, nil
}

// invalidate disconnects e and drops it from the pool. The caller holds e.mu.
func (p *Pool) invalidate(server string, e *entry) {
	e.closed = true
	e.m.Disconnect()

	p.mu.Lock()
	if current, ok := p.conns[server]; ok && current == e {
		delete(p.conns, server)
	}
	p.mu.Unlock()
}

// Do runs fn with the connected Manager for server. Calls for one server are
// serialized. A network or authentication failure drops the connection so
// the next call reconnects; callers queued behind it reconnect too.
func (p *Pool) Do(ctx context.Context, server string, fn func(*tomcat.Manager) (*tomcat.Response, error)) (*tomcat.Response, error) {
	for {
		e, fail, err := p.getOrCreate(ctx, server)
		if err != nil || fail != nil {
			return fail, err
		}

		e.mu.Lock()
		if e.closed || !e.m.Connected() {
			p.invalidate(server, e)
			e.mu.Unlock()
			continue
		}
		r, err := fn(e.m)
		if err == nil && r != nil && (r.Failure == tomcat.FailureNetwork || r.Failure == tomcat.FailureAuthentication) {
			p.invalidate(server, e)
		}
		e.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Close disconnects a specific server.
func (p *Pool) Close(server string) {
	p.mu.Lock()
	e, ok := p.conns[server]
	if ok {
		delete(p.conns, server)
	}
	p.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.closed = true
		e.m.Disconnect()
		e.mu.Unlock()
	}
}

// CloseAll disconnects all servers.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*entry)
	p.mu.Unlock()

	for _, e := range conns {
		e.mu.Lock()
		e.closed = true
		e.m.Disconnect()
		e.mu.Unlock()
	}
}
