// Package config defines service configuration and its defaults.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and env vars on top.
// - All functions that touch the outside world accept context.Context first.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"time"
)

// DefaultKickoff is the Canada opener: June 12, 2026, 3:00 PM Eastern.
const DefaultKickoff = "2026-06-12T15:00:00-04:00"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// UpstreamURL is the base URL of the stats API. Empty runs on mock data.
	UpstreamURL string `koanf:"upstream_url"`

	// UpstreamTimeoutMS bounds a single upstream request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// LivePulseIntervalSec is the live event polling interval.
	LivePulseIntervalSec int `koanf:"live_pulse_interval_sec"`

	// SeasonStatsIntervalSec is the season stats polling interval; 0 fetches once.
	SeasonStatsIntervalSec int `koanf:"season_stats_interval_sec"`

	// KickoffAt is the RFC3339 kickoff time the countdown targets.
	KickoffAt string `koanf:"kickoff_at"`

	// LedgerCapacity caps how many entries the ledger keeps.
	LedgerCapacity int `koanf:"ledger_capacity"`

	// LedgerQueueSize bounds the queue between the live refresher and ledger workers.
	LedgerQueueSize int `koanf:"ledger_queue_size"`

	// LedgerWorkers sets the number of ledger writer goroutines.
	LedgerWorkers int `koanf:"ledger_workers"`

	// DedupeSize bounds the set of live event keys remembered for dedupe.
	DedupeSize int `koanf:"dedupe_size"`

	// AllowedOrigins lists CORS origins for browser clients.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// RedisURL enables the Redis snapshot store when set.
	RedisURL string `koanf:"redis_url"`

	// NATSURL enables cross-instance broadcast of live updates when set.
	NATSURL string `koanf:"nats_url"`

	// NATSSubject is the subject live updates are published on.
	NATSSubject string `koanf:"nats_subject"`
}

// New returns a Config populated with defaults. The context is reserved for
// loaders that need it and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8000",
		UpstreamTimeoutMS:      10_000,
		LivePulseIntervalSec:   60,
		SeasonStatsIntervalSec: 0,
		KickoffAt:              DefaultKickoff,
		LedgerCapacity:         5_000,
		LedgerQueueSize:        1_024,
		LedgerWorkers:          2,
		DedupeSize:             10_000,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://127.0.0.1:3000",
		},
		NATSSubject: "canmnt.live_pulse",
	}
}

// UpstreamTimeout returns the upstream request timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// LivePulseInterval returns the live pulse polling interval.
func (c *Config) LivePulseInterval() time.Duration {
	return time.Duration(c.LivePulseIntervalSec) * time.Second
}

// SeasonStatsInterval returns the season stats polling interval.
func (c *Config) SeasonStatsInterval() time.Duration {
	return time.Duration(c.SeasonStatsIntervalSec) * time.Second
}

// Kickoff parses KickoffAt. Load guarantees it parses.
func (c *Config) Kickoff() time.Time {
	t, err := time.Parse(time.RFC3339, c.KickoffAt)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, DefaultKickoff)
	}
	return t
}
