package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lydakis/gemini-mcp/internal/paths"
)

// PortEnv overrides listen.port when set.
const PortEnv = "PORT"

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the default config file and applies the environment.
// If the config file does not exist, it returns the defaults (no error).
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path.
func LoadFrom(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	expandConfigEnvVars(cfg)
	if err := applyPortEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// ExampleConfigPath returns the default config file path (for help messages).
func ExampleConfigPath() string {
	return paths.ConfigFile()
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyPortEnv(cfg *Config) error {
	raw, ok := os.LookupEnv(PortEnv)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: invalid port %q: %w", PortEnv, raw, err)
	}
	cfg.Listen.Port = port
	return nil
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Command = expandEnvVars(cfg.Command)
	cfg.Transport = expandEnvVars(cfg.Transport)
	cfg.Listen.Host = expandEnvVars(cfg.Listen.Host)
	cfg.Listen.Endpoint = expandEnvVars(cfg.Listen.Endpoint)
	cfg.Health.Path = expandEnvVars(cfg.Health.Path)
	cfg.Health.Message = expandEnvVars(cfg.Health.Message)
	cfg.HeartbeatInterval = expandEnvVars(cfg.HeartbeatInterval)
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
