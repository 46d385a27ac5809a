package client

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Exit codes for the query command.
const (
	ExitOK       = 0
	ExitToolErr  = 1
	ExitUsageErr = 2
	ExitInternal = 3
)

// Unwrap extracts the text output from a CallToolResult.
// Returns the output and an exit code.
func Unwrap(result *mcp.CallToolResult) (string, int) {
	if result == nil {
		return "", ExitInternal
	}

	exitCode := ExitOK
	if result.IsError {
		exitCode = ExitToolErr
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := renderContent(content); ok {
			parts = append(parts, text)
			continue
		}
		if raw, err := json.Marshal(content); err == nil {
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "\n"), exitCode
}

func renderContent(content mcp.Content) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		return c.Text, true
	default:
		var typed struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		raw, err := json.Marshal(content)
		if err != nil || json.Unmarshal(raw, &typed) != nil || typed.Type != "text" {
			return "", false
		}
		return typed.Text, true
	}
}
