package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error

	if strings.TrimSpace(cfg.Command) == "" {
		errs = append(errs, errors.New("command: must not be empty"))
	}

	switch cfg.Transport {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("transport: must be %q or %q, got %q", TransportHTTP, TransportStdio, cfg.Transport))
	}

	if cfg.Listen.Port < 1 || cfg.Listen.Port > 65535 {
		errs = append(errs, fmt.Errorf("listen.port: must be between 1 and 65535, got %d", cfg.Listen.Port))
	}
	errs = append(errs, validatePath("listen.endpoint", cfg.Listen.Endpoint)...)
	errs = append(errs, validatePath("health.path", cfg.Health.Path)...)
	if cfg.Listen.Endpoint == cfg.Health.Path {
		errs = append(errs, fmt.Errorf("health.path: must differ from listen.endpoint %q", cfg.Listen.Endpoint))
	}

	if cfg.HeartbeatInterval != "" {
		d, err := time.ParseDuration(cfg.HeartbeatInterval)
		if err != nil {
			errs = append(errs, fmt.Errorf("heartbeat_interval: invalid duration %q: %w", cfg.HeartbeatInterval, err))
		} else if d < 0 {
			errs = append(errs, fmt.Errorf("heartbeat_interval: must be >= 0, got %q", cfg.HeartbeatInterval))
		}
	}

	return errors.Join(errs...)
}

func validatePath(field, p string) []error {
	switch {
	case !strings.HasPrefix(p, "/"):
		return []error{fmt.Errorf("%s: must start with /, got %q", field, p)}
	case p == "/":
		return []error{fmt.Errorf("%s: must not be the root path", field)}
	case strings.ContainsAny(p, " {}"):
		return []error{fmt.Errorf("%s: must be a literal path, got %q", field, p)}
	}
	return nil
}
