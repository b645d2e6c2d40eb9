package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lydakis/tomcat-manager/internal/tomcat"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type appOp func(m *tomcat.Manager, ctx context.Context, path, version string) (*tomcat.Response, error)

var (
	startOp    appOp = (*tomcat.Manager).Start
	stopOp     appOp = (*tomcat.Manager).Stop
	reloadOp   appOp = (*tomcat.Manager).Reload
	undeployOp appOp = (*tomcat.Manager).Undeploy
	sessionsOp appOp = (*tomcat.Manager).Sessions
)

type textOp func(m *tomcat.Manager, ctx context.Context) (*tomcat.Response, error)

var (
	vmInfoOp     textOp = (*tomcat.Manager).VMInfo
	threadDumpOp textOp = (*tomcat.Manager).ThreadDump
	statusOp     textOp = (*tomcat.Manager).StatusXML
)

// run executes fn against the named server and folds every error into the
// tool result.
func (h *handlers) run(ctx context.Context, request mcp.CallToolRequest, fn func(*tomcat.Manager) (*tomcat.Response, error)) (*tomcat.Response, *mcp.CallToolResult) {
	name, err := request.RequireString(serverArg)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	r, err := h.pool.Do(ctx, name, fn)
	if err != nil {
		h.logger.Debug("tool failed", slog.String("tool", request.Params.Name), slog.String("error", err.Error()))
		return nil, mcp.NewToolResultError(err.Error())
	}
	if !r.OK() {
		return nil, failureResult(r)
	}
	return r, nil
}

func failureResult(r *tomcat.Response) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("FAIL (%s): %s", r.Failure, r.Message))
}

func textResult(r *tomcat.Response) *mcp.CallToolResult {
	parts := make([]string, 0, 2)
	if r.Message != "" {
		parts = append(parts, r.Message)
	}
	if r.Result != "" {
		parts = append(parts, r.Result)
	}
	return mcp.NewToolResultText(strings.Join(parts, "\n"))
}

func (h *handlers) appCommand(op appOp) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		version := request.GetString("version", "")

		r, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
			return op(m, ctx, path, version)
		})
		if fail != nil {
			return fail, nil
		}
		return textResult(r), nil
	}
}

func (h *handlers) textCommand(op textOp) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		r, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
			return op(m, ctx)
		})
		if fail != nil {
			return fail, nil
		}
		return textResult(r), nil
	}
}

func (h *handlers) list(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var apps []tomcat.Application
	r, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
		lr, err := m.List(ctx)
		if err != nil {
			return nil, err
		}
		apps = lr.Apps
		return lr.Response, nil
	})
	if fail != nil {
		return fail, nil
	}

	rows := make([]map[string]any, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, map[string]any{
			"path":      app.Path,
			"state":     app.State.String(),
			"sessions":  app.Sessions,
			"directory": app.Directory(),
			"version":   app.Version(),
		})
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{
		"message": r.Message,
		"apps":    rows,
	}), nil
}

func (h *handlers) serverInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var info tomcat.ServerInfo
	_, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
		sr, err := m.ServerInfo(ctx)
		if err != nil {
			return nil, err
		}
		info = sr.Info
		return sr.Response, nil
	})
	if fail != nil {
		return fail, nil
	}

	out := make(map[string]any, len(info))
	for k, v := range info {
		out[k] = v
	}
	return mcp.NewToolResultStructuredOnly(out), nil
}

func (h *handlers) expire(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	version := request.GetString("version", "")
	idle := int(request.GetFloat("idle", 0))

	r, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
		return m.Expire(ctx, path, version, idle)
	})
	if fail != nil {
		return fail, nil
	}
	return textResult(r), nil
}

func (h *handlers) deployServer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	war := request.GetString("war", "")
	contextFile := request.GetString("context", "")
	if war == "" && contextFile == "" {
		return mcp.NewToolResultError("one of war or context is required"), nil
	}
	opts := tomcat.DeployOptions{
		Version: request.GetString("version", ""),
		Update:  request.GetBool("update", false),
	}

	r, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
		if contextFile != "" {
			return m.DeployServerContext(ctx, path, contextFile, war, opts)
		}
		return m.DeployServerWAR(ctx, path, war, opts)
	})
	if fail != nil {
		return fail, nil
	}
	return textResult(r), nil
}

func (h *handlers) resources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class := request.GetString("type", "")
	var resources map[string]string
	_, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
		rr, err := m.Resources(ctx, class)
		if err != nil {
			return nil, err
		}
		resources = rr.Resources
		return rr.Response, nil
	})
	if fail != nil {
		return fail, nil
	}

	out := make(map[string]any, len(resources))
	for k, v := range resources {
		out[k] = v
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{"resources": out}), nil
}

func (h *handlers) findLeakers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var leakers []string
	_, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
		lr, err := m.FindLeakers(ctx)
		if err != nil {
			return nil, err
		}
		leakers = lr.Leakers
		return lr.Response, nil
	})
	if fail != nil {
		return fail, nil
	}
	if leakers == nil {
		leakers = []string{}
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{"leakers": leakers}), nil
}

func (h *handlers) sslReload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host := request.GetString("host", "")
	r, fail := h.run(ctx, request, func(m *tomcat.Manager) (*tomcat.Response, error) {
		return m.SSLReload(ctx, host)
	})
	if fail != nil {
		return fail, nil
	}
	return textResult(r), nil
}
