package gateway

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Names reported to MCP clients.
const (
	ServerName = "Gemini Search Server"
	ToolName   = "query"
)

// NewMCPServer returns an MCP server exposing the query tool.
func (g *Gateway) NewMCPServer(version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(QueryTool(), g.handleQuery)
	return s
}

// QueryTool describes the query tool and its single text argument.
func QueryTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Search on internet for real-time information"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The search query or question to send to the AI agent"),
		),
	)
}

func (g *Gateway) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(ErrEmptyQuery.Error()), nil
	}

	out, err := g.Query(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
