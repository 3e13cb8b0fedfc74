package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vocabtrainer/server/internal/transport"
)

// Config contains server configuration.
type Config struct {
	Dispatcher *transport.Dispatcher
	Logger     *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and
// middleware over a single Dispatcher; there is no per-tenant auth layer
// since vocabtrainer is single-user.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "vocabtrainer",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Dispatcher))

	return server
}
