package mcpserver

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"bingo-live/internal/app/public"
)

// Server exposes the public lobby and account operations as MCP tools
// so agent clients can browse and fund without speaking raw HTTP.
// Joining and marking stay on the websocket.
type Server struct {
	publicSvc *public.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(svc *public.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"bingo-live",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s := &Server{
		publicSvc:  svc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerLobbyTools()
	s.registerAccountTools()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}
