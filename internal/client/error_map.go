package client

import (
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ClassifyCallError maps a transport or protocol error to an exit code.
func ClassifyCallError(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, mcp.ErrInvalidParams) || errors.Is(err, mcp.ErrMethodNotFound) {
		return ExitUsageErr
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "-32602") || strings.Contains(msg, "-32601") {
		return ExitUsageErr
	}
	if strings.Contains(msg, "invalid params") || strings.Contains(msg, "method not found") {
		return ExitUsageErr
	}

	return ExitInternal
}
