package config

import (
	"net"
	"strconv"
	"time"
)

// Transport names.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Defaults applied to a missing config file or omitted keys.
const (
	DefaultCommand           = "gemini"
	DefaultPort              = 13001
	DefaultHost              = "0.0.0.0"
	DefaultEndpoint          = "/mcp"
	DefaultHealthPath        = "/health"
	DefaultHealthMessage     = "healthy"
	DefaultHeartbeatInterval = "25s"
)

// Config is the top-level gemini-mcp configuration.
type Config struct {
	// Command is the executable spawned per query, resolved on PATH.
	Command   string       `toml:"command"`
	Transport string       `toml:"transport"`
	Listen    ListenConfig `toml:"listen"`
	Health    HealthConfig `toml:"health"`
	// HeartbeatInterval is a Go duration; "0s" disables pings.
	HeartbeatInterval string `toml:"heartbeat_interval"`
}

// ListenConfig controls the streamable HTTP listener.
type ListenConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Endpoint string `toml:"endpoint"`
}

// HealthConfig controls the plain HTTP health check.
type HealthConfig struct {
	Path    string `toml:"path"`
	Message string `toml:"message"`
}

// Default returns a config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Addr returns the host:port the HTTP listener binds.
func (l ListenConfig) Addr() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// Heartbeat parses HeartbeatInterval. Call Validate first; parse errors yield 0.
func (c *Config) Heartbeat() time.Duration {
	d, err := time.ParseDuration(c.HeartbeatInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// IsStdio returns true if the server speaks MCP over stdin/stdout.
func (c *Config) IsStdio() bool {
	return c.Transport == TransportStdio
}

func applyDefaults(cfg *Config) {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}
	if cfg.Listen.Host == "" {
		cfg.Listen.Host = DefaultHost
	}
	if cfg.Listen.Port == 0 {
		cfg.Listen.Port = DefaultPort
	}
	if cfg.Listen.Endpoint == "" {
		cfg.Listen.Endpoint = DefaultEndpoint
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = DefaultHealthPath
	}
	if cfg.Health.Message == "" {
		cfg.Health.Message = DefaultHealthMessage
	}
	if cfg.HeartbeatInterval == "" {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
}
