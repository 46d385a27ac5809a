package client

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func newQueryServer(t *testing.T, handler server.ToolHandlerFunc) string {
	t.Helper()

	s := server.NewMCPServer("gemini-mcp-test", "1.0.0")
	s.AddTool(mcp.NewTool("query", mcp.WithString("text", mcp.Required())), handler)

	httpServer := server.NewTestStreamableHTTPServer(s)
	t.Cleanup(httpServer.Close)
	return httpServer.URL
}

func TestClientQueryReturnsToolText(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := newQueryServer(t, func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText("answer: " + text), nil
	})

	c, err := Dial(ctx, url, map[string]string{"X-Gemini-Test": "1"}, "test")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	result, err := c.Query(ctx, "hello")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	out, code := Unwrap(result)
	if code != ExitOK {
		t.Fatalf("Unwrap code = %d, want %d", code, ExitOK)
	}
	if out != "answer: hello" {
		t.Fatalf("Unwrap output = %q, want %q", out, "answer: hello")
	}
}

func TestClientQueryToolErrorMapsToToolExit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := newQueryServer(t, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("Gemini CLI query timed out after 30 seconds"), nil
	})

	c, err := Dial(ctx, url, nil, "test")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	result, err := c.Query(ctx, "hello")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	out, code := Unwrap(result)
	if code != ExitToolErr {
		t.Fatalf("Unwrap code = %d, want %d", code, ExitToolErr)
	}
	if out != "Gemini CLI query timed out after 30 seconds" {
		t.Fatalf("Unwrap output = %q, want timeout message", out)
	}
}

func TestDialUnavailableServerFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := server.NewMCPServer("gemini-mcp-test", "1.0.0")
	httpServer := server.NewTestStreamableHTTPServer(s)
	url := httpServer.URL
	httpServer.Close()

	if _, err := Dial(ctx, url, nil, "test"); err == nil {
		t.Fatal("Dial() error = nil, want non-nil for unavailable server")
	}
}
