package client

import (
	"context"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const protocolVersion = "2025-11-25"

// Client talks to a running gemini-mcp server over streamable HTTP.
type Client struct {
	c *mcpclient.Client
}

// Dial connects to the MCP endpoint at url and performs the initialize handshake.
func Dial(ctx context.Context, url string, headers map[string]string, version string) (*Client, error) {
	var opts []transport.StreamableHTTPCOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(headers))
	}

	c, err := mcpclient.NewStreamableHttpClient(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("starting HTTP client: %w", err)
	}

	if _, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: protocolVersion,
			ClientInfo: mcp.Implementation{
				Name:    "gemini-mcp",
				Version: version,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing: %w", err)
	}

	return &Client{c: c}, nil
}

// Query calls the query tool with text.
func (c *Client) Query(ctx context.Context, text string) (*mcp.CallToolResult, error) {
	return c.c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "query",
			Arguments: map[string]any{"text": text},
		},
	})
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.c.Close()
}
