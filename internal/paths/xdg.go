package paths

import (
	"os"
	"path/filepath"
)

const appName = "gemini-mcp"

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

// ConfigDir returns the gemini-mcp config directory ($XDG_CONFIG_HOME/gemini-mcp).
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName)
	}
	return filepath.Join(homeDir(), ".config", appName)
}

// ConfigFile returns the path to config.toml.
// GEMINI_MCP_CONFIG, when set, names the file directly.
func ConfigFile() string {
	if v := os.Getenv("GEMINI_MCP_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(ConfigDir(), "config.toml")
}
