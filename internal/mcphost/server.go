// Package mcphost exposes every registered node as an MCP tool.
package mcphost

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/metalagman/openainodes/internal/host"
	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/nodes"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server. Tools are registered by NewServer;
// run it with s.Run(ctx, transport).
type Server struct {
	MCPServer *sdkmcp.Server
	invoker   host.Invoker
}

// NewServer creates an MCP server with one tool per node of the invoker's registry.
func NewServer(invoker host.Invoker) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: "openainodes", Title: nodes.PackName, Version: nodes.PackVersion},
			nil,
		),
		invoker: invoker,
	}
	for _, desc := range invoker.Registry.Descriptors() {
		s.MCPServer.AddTool(&sdkmcp.Tool{
			Name:        desc.Name,
			Title:       desc.Title,
			Description: desc.Description,
			InputSchema: desc.Schema(),
		}, s.handler(desc.Name))
	}
	return s
}

// Run serves the tools over transport until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, transport)
}

// handler runs the named node. Invalid arguments come back as a failure outcome.
func (s *Server) handler(name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		in := node.Inputs{}
		if raw := req.Params.Arguments; len(raw) > 0 {
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, fmt.Errorf("decode %s arguments: %w", name, err)
			}
		}

		res, err := s.invoker.Invoke(ctx, name, in)
		if err != nil {
			return nil, err
		}
		out := res.Map()
		text, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode %s outcome: %w", name, err)
		}
		return &sdkmcp.CallToolResult{
			Content:           []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
			StructuredContent: out,
			IsError:           !res.Outcome.Success,
		}, nil
	}
}
