// Package mcpserver exposes manager operations as MCP tools.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/lydakis/tomcat-manager/internal/pool"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverArg = "server"

type handlers struct {
	pool   *pool.Pool
	logger *slog.Logger
}

type toolDef struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

// New builds an MCP server whose tools run against the servers in p.
func New(p *pool.Pool, version string, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handlers{pool: p, logger: logger}

	s := server.NewMCPServer(
		"tomcat-manager",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	for _, def := range h.tools() {
		s.AddTool(def.tool, def.handler)
	}
	return s
}

// ServeStdio runs s on stdin and stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) tools() []toolDef {
	appProps := map[string]any{
		"path":    map[string]any{"type": "string", "description": "Context path, for example /shiny"},
		"version": map[string]any{"type": "string", "description": "Parallel deployment version"},
	}
	return []toolDef{
		{
			tool: mcp.Tool{
				Name:        "tomcat_servers",
				Description: "List the configured Tomcat servers",
				InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{}},
			},
			handler: h.servers,
		},
		{tool: serverTool("tomcat_list", "List deployed applications", nil), handler: h.list},
		{tool: serverTool("tomcat_serverinfo", "Show Tomcat, OS and JVM versions", nil), handler: h.serverInfo},
		{tool: serverTool("tomcat_start", "Start an application", appProps, "path"), handler: h.appCommand(startOp)},
		{tool: serverTool("tomcat_stop", "Stop an application", appProps, "path"), handler: h.appCommand(stopOp)},
		{tool: serverTool("tomcat_reload", "Reload an application", appProps, "path"), handler: h.appCommand(reloadOp)},
		{tool: serverTool("tomcat_undeploy", "Undeploy an application", appProps, "path"), handler: h.appCommand(undeployOp)},
		{tool: serverTool("tomcat_sessions", "Show session statistics for an application", appProps, "path"), handler: h.appCommand(sessionsOp)},
		{
			tool: serverTool("tomcat_expire", "Expire idle sessions of an application", withProps(appProps, map[string]any{
				"idle": map[string]any{"type": "number", "description": "Expire sessions idle at least this many minutes"},
			}), "path", "idle"),
			handler: h.expire,
		},
		{
			tool: serverTool("tomcat_deploy_server", "Deploy a war or context file that is already on the server", withProps(appProps, map[string]any{
				"war":     map[string]any{"type": "string", "description": "War file path on the server"},
				"context": map[string]any{"type": "string", "description": "Context file path on the server"},
				"update":  map[string]any{"type": "boolean", "description": "Replace an existing application"},
			}), "path"),
			handler: h.deployServer,
		},
		{tool: serverTool("tomcat_vminfo", "Show JVM diagnostics", nil), handler: h.textCommand(vmInfoOp)},
		{tool: serverTool("tomcat_threaddump", "Show a JVM thread dump", nil), handler: h.textCommand(threadDumpOp)},
		{tool: serverTool("tomcat_status", "Show the server status document as XML", nil), handler: h.textCommand(statusOp)},
		{
			tool: serverTool("tomcat_resources", "List global JNDI resources", map[string]any{
				"type": map[string]any{"type": "string", "description": "Only resources of this Java class"},
			}),
			handler: h.resources,
		},
		{tool: serverTool("tomcat_findleakers", "Find applications that leak memory (forces a full GC)", nil), handler: h.findLeakers},
		{
			tool: serverTool("tomcat_sslreload", "Reload TLS certificates and keys", map[string]any{
				"host": map[string]any{"type": "string", "description": "Virtual host; all hosts when omitted"},
			}),
			handler: h.sslReload,
		},
	}
}

func serverTool(name, description string, props map[string]any, required ...string) mcp.Tool {
	all := withProps(map[string]any{
		serverArg: map[string]any{"type": "string", "description": "Configured server name"},
	}, props)
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: all,
			Required:   append([]string{serverArg}, required...),
		},
	}
}

func withProps(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (h *handlers) servers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultStructuredOnly(map[string]any{"servers": h.pool.Servers()}), nil
}
