package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CANMNT_ADDR.
	EnvPrefix = "CANMNT_"
	// EnvConfigFile names the optional YAML config file.
	EnvConfigFile = "CANMNT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. YAML file if CANMNT_CONFIG is set
//  3. env (prefix CANMNT_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CANMNT_LIVE_PULSE_INTERVAL_SEC -> live_pulse_interval_sec. Underscores are
	// kept so keys match the koanf tags; list values are comma separated.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "allowed_origins" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants the rest of the service relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LivePulseIntervalSec <= 0:
		return fmt.Errorf("%w: live_pulse_interval_sec must be positive", ErrInvalidConfig)
	case c.SeasonStatsIntervalSec < 0:
		return fmt.Errorf("%w: season_stats_interval_sec must not be negative", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case c.LedgerCapacity <= 0:
		return fmt.Errorf("%w: ledger_capacity must be positive", ErrInvalidConfig)
	case c.LedgerQueueSize <= 0:
		return fmt.Errorf("%w: ledger_queue_size must be positive", ErrInvalidConfig)
	case c.LedgerWorkers <= 0:
		return fmt.Errorf("%w: ledger_workers must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	if _, err := time.Parse(time.RFC3339, c.KickoffAt); err != nil {
		return fmt.Errorf("%w: kickoff_at: %w", ErrInvalidConfig, err)
	}
	if c.UpstreamURL != "" {
		u, err := url.Parse(c.UpstreamURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: upstream_url must be an absolute URL", ErrInvalidConfig)
		}
	}
	return nil
}

func splitList(s string) []string {
	out := make([]string, 0, 4)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
