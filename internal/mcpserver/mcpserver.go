package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/recruitsim/internal/service/simulation"
)

// Server wraps the MCP server and registers the recruitment tools.
type Server struct {
	server *mcp.Server
	svc    *simulation.Service
}

// NewServer creates a new MCP server backed by svc. A nil svc uses a
// service built from the default configuration.
func NewServer(version string, svc *simulation.Service) *Server {
	if version == "" {
		version = "dev"
	}
	if svc == nil {
		svc = simulation.New()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "recruitsim",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, svc: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_distribution",
		Description: describeBuildDistribution(),
	}, s.handleBuildDistribution)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "simulate_recruitment",
		Description: describeSimulateRecruitment(),
	}, s.handleSimulateRecruitment)
}
