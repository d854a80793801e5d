package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/elrobot/internal/domain/policy"
)

const (
	envPrefix = "ELROBOT_"
	envConfig = "ELROBOT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or ELROBOT_CONFIG when path is empty
//  3. env (prefix ELROBOT_, "__" separates nested keys)
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ELROBOT_LINEAR_SCALE -> linear_scale, ELROBOT_BUS__DRIVER -> bus.driver
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envConfig {
			return ""
		}
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// A configured identity table replaces the stock one instead of merging.
	if k.Exists("named_identities") {
		cfg.NamedIdentities = k.StringMap("named_identities")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values components rely on.
func (c *Config) Validate() error {
	switch c.Role {
	case RoleDetector, RoleRecognizer:
	default:
		return fmt.Errorf("%w: role %q must be %s or %s", ErrInvalidConfig, c.Role, RoleDetector, RoleRecognizer)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative", ErrInvalidConfig)
	}
	if c.Prefix == "" {
		return fmt.Errorf("%w: prefix must not be empty", ErrInvalidConfig)
	}
	switch c.Bus.Driver {
	case DriverRedis, DriverMQTT:
	default:
		return fmt.Errorf("%w: bus driver %q", ErrInvalidConfig, c.Bus.Driver)
	}
	switch c.Bus.Mode {
	case ModePeer, ModeClient:
	default:
		return fmt.Errorf("%w: bus mode %q must be %s or %s", ErrInvalidConfig, c.Bus.Mode, ModePeer, ModeClient)
	}
	if c.Bus.Driver == DriverRedis && len(c.Bus.Listen) > 0 {
		return fmt.Errorf("%w: bus listen is only supported by the %s driver", ErrInvalidConfig, DriverMQTT)
	}
	if len(c.Bus.Connect) == 0 {
		return fmt.Errorf("%w: bus connect must list at least one endpoint", ErrInvalidConfig)
	}
	if c.Detection.Width <= 0 {
		return fmt.Errorf("%w: detection width must be positive", ErrInvalidConfig)
	}
	if c.Detection.Quality < 1 || c.Detection.Quality > 100 {
		return fmt.Errorf("%w: detection quality must be within 1..100", ErrInvalidConfig)
	}
	switch c.Detection.Backend {
	case BackendHelper:
		if len(c.Detection.HelperCommand) == 0 {
			return fmt.Errorf("%w: helper backend needs a helper command", ErrInvalidConfig)
		}
	case BackendCascade:
	default:
		return fmt.Errorf("%w: detection backend %q", ErrInvalidConfig, c.Detection.Backend)
	}
	if c.Recognition.Tolerance <= 0 {
		return fmt.Errorf("%w: recognition tolerance must be positive", ErrInvalidConfig)
	}
	if _, err := policy.NamedMotions(c.NamedIdentities); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.CmdVel == "" {
		return fmt.Errorf("%w: cmd_vel must not be empty", ErrInvalidConfig)
	}
	if c.Geometry.OffAxis < 0 || c.Geometry.Far > c.Geometry.Near {
		return fmt.Errorf("%w: geometry needs off_axis >= 0 and far <= near", ErrInvalidConfig)
	}
	if c.Ingest.QueueSize <= 0 || c.Ingest.Workers <= 0 {
		return fmt.Errorf("%w: ingest queue_size and workers must be positive", ErrInvalidConfig)
	}
	if c.Metrics.RefreshInterval <= 0 {
		return fmt.Errorf("%w: metrics refresh_interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// GeometryThresholds converts the geometry section for the decision engine.
func (c *Config) GeometryThresholds() policy.Geometry {
	return policy.Geometry{
		Center:  c.Geometry.Center,
		OffAxis: c.Geometry.OffAxis,
		Near:    c.Geometry.Near,
		Far:     c.Geometry.Far,
	}
}
