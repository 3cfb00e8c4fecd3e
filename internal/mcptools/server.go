package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the rewrite tools registered.
func NewServer(svc *RewriteService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "reaict",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "optimize_component",
		Description: "Rewrite the React function components of a .jsx or .tsx file with memoized hooks. Returns the new file text and a per-component outcome.",
	}, svc.OptimizeComponent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_components",
		Description: "List the capitalized function declarations of a .jsx or .tsx file that directly return JSX. Does not call the model.",
	}, svc.DetectComponents)

	return server
}

// RunStdio runs the server on stdio, blocking until stdin is closed or the
// context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP tools over streamable HTTP on addr.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
