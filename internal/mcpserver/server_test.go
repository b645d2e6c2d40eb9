package mcpserver

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lydakis/tomcat-manager/internal/config"
	"github.com/lydakis/tomcat-manager/internal/pool"
	"github.com/lydakis/tomcat-manager/internal/tomcat/tomcattest"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlers(t *testing.T, srv *tomcattest.Server) *handlers {
	t.Helper()
	cfg := &config.Config{Servers: map[string]config.ServerConfig{
		"local": {URL: srv.URL, User: srv.User, Password: srv.Password},
	}}
	p := pool.New(cfg, 5*time.Second)
	t.Cleanup(p.CloseAll)
	return &handlers{pool: p, logger: slog.New(slog.DiscardHandler)}
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content type = %T", result.Content[0])
	return text.Text
}

func TestListReturnsStructuredApps(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()
	h := newHandlers(t, srv)

	result, err := h.list(context.Background(), call("tomcat_list", map[string]any{"server": "local"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	typed, ok := result.StructuredContent.(map[string]any)
	require.True(t, ok, "StructuredContent type = %T", result.StructuredContent)
	apps, ok := typed["apps"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, apps, 3)
	assert.Equal(t, "/shiny", apps[2]["path"])
	assert.Equal(t, "stopped", apps[2]["state"])
	assert.Equal(t, "v2.0.5", apps[2]["version"])
}

func TestStopUnknownAppIsToolError(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()
	h := newHandlers(t, srv)

	result, err := h.appCommand(stopOp)(context.Background(), call("tomcat_stop", map[string]any{
		"server": "local",
		"path":   "/missing",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "FAIL (server): No context exists named [/missing]", resultText(t, result))
}

func TestStartChangesState(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()
	h := newHandlers(t, srv)

	result, err := h.appCommand(startOp)(context.Background(), call("tomcat_start", map[string]any{
		"server": "local",
		"path":   "/shiny",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Started application at context path [/shiny]")
	assert.Equal(t, "running", srv.Apps()[2].State)
}

func TestMissingArgumentsAreToolErrors(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()
	h := newHandlers(t, srv)
	ctx := context.Background()

	result, err := h.appCommand(stopOp)(ctx, call("tomcat_stop", map[string]any{"server": "local"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = h.list(ctx, call("tomcat_list", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = h.deployServer(ctx, call("tomcat_deploy_server", map[string]any{"server": "local", "path": "/x"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, 0, srv.Requests())
}

func TestUnknownServerIsToolError(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()
	h := newHandlers(t, srv)

	result, err := h.list(context.Background(), call("tomcat_list", map[string]any{"server": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown server: nope")
}

func TestDeployServerAndFindLeakers(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()
	h := newHandlers(t, srv)
	ctx := context.Background()

	result, err := h.deployServer(ctx, call("tomcat_deploy_server", map[string]any{
		"server":  "local",
		"path":    "/orders",
		"war":     "/srv/wars/orders.war",
		"version": "7",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Equal(t, "/srv/wars/orders.war", srv.LastRequest().URL.Query().Get("war"))

	result, err = h.findLeakers(ctx, call("tomcat_findleakers", map[string]any{"server": "local"}))
	require.NoError(t, err)
	typed := result.StructuredContent.(map[string]any)
	assert.Equal(t, []string{"/leaker1", "/leaker2"}, typed["leakers"])
}

func TestServerOverStreamableHTTP(t *testing.T) {
	srv := tomcattest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := &config.Config{Servers: map[string]config.ServerConfig{
		"local": {URL: srv.URL, User: srv.User, Password: srv.Password},
	}}
	p := pool.New(cfg, 5*time.Second)
	defer p.CloseAll()

	httpServer := server.NewTestStreamableHTTPServer(New(p, "test", nil))
	defer httpServer.Close()

	c, err := mcpclient.NewStreamableHttpClient(httpServer.URL)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: "2025-11-25",
			ClientInfo:      mcp.Implementation{Name: "tomcat-manager-test", Version: "0.0.0"},
		},
	})
	require.NoError(t, err)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"tomcat_servers", "tomcat_list", "tomcat_stop", "tomcat_sslreload"} {
		assert.True(t, names[want], "missing tool %s", want)
	}

	result, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name:      "tomcat_serverinfo",
		Arguments: map[string]any{"server": "local"},
	}})
	require.NoError(t, err)
	require.False(t, result.IsError)
	typed, ok := result.StructuredContent.(map[string]any)
	require.True(t, ok, "StructuredContent type = %T", result.StructuredContent)
	assert.Equal(t, "Apache Tomcat/9.0.41", typed["Tomcat Version"])
}
