package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/canmnt/internal/domain/types"
	"github.com/okian/canmnt/pkg/logger"
)

// Run executes the probe and returns its statistics. The error wraps
// ErrVerification when a served view breaks a board rule and ErrRequests when
// any poll failed.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := withDefaults(config)
	log := logger.Get().Named("probe")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting war room probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.Duration("interval", cfg.Interval),
		logger.Duration("timeout", cfg.Timeout))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if _, err := c.get(ctx, pathHealth); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	log.Info(ctx, "service is healthy")

	// Step 2: Poll and verify
	for round := 1; round <= cfg.Rounds; round++ {
		pollRound(ctx, c, cfg, stats, round, log)
		if round == cfg.Rounds {
			break
		}
		select {
		case <-ctx.Done():
			return finish(stats, log), ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}

	finish(stats, log)
	switch {
	case stats.Violations > 0:
		return stats, fmt.Errorf("%w: %d violations", ErrVerification, stats.Violations)
	case stats.Failures > 0:
		return stats, fmt.Errorf("%w: %d of %d", ErrRequests, stats.Failures, stats.Requests)
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

func withDefaults(config *Config) Config {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = DefaultRounds
	}
	if cfg.Interval < 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// pollRound fetches each view once and records what it finds.
func pollRound(ctx context.Context, c *client, cfg Config, stats *Stats, round int, log logger.Logger) {
	stats.Rounds++
	rlog := log.With(logger.Int("round", round))

	var board types.RosterTiers
	if fetch(ctx, c, pathRosterTiers, &board, stats, rlog) {
		stats.Players = len(board.All())
		report(ctx, rlog, pathRosterTiers, VerifyBoard(board), stats)
		if board.Error != "" {
			rlog.Warn(ctx, "roster board degraded", logger.String("error", board.Error), logger.String("source", board.Source))
		}
		if cfg.Verbose {
			rlog.Info(ctx, "roster board",
				logger.Int("locks", len(board.Locks)),
				logger.Int("probables", len(board.Probables)),
				logger.Int("bubble", len(board.Bubble)),
				logger.Int("cold", len(board.Cold)),
				logger.String("source", board.Source))
		}
	}

	var pulse types.LivePulse
	if fetch(ctx, c, pathLivePulse, &pulse, stats, rlog) {
		stats.LiveEvents = len(pulse.Events)
		if pulse.Error != "" {
			rlog.Warn(ctx, "live pulse degraded", logger.String("error", pulse.Error), logger.Bool("stale", pulse.Stale))
		}
		if cfg.Verbose {
			rlog.Info(ctx, "live pulse", logger.Int("events", len(pulse.Events)), logger.String("lastUpdated", pulse.LastUpdated))
		}
	}

	var led types.Ledger
	if fetch(ctx, c, pathLedger, &led, stats, rlog) {
		stats.LedgerEntries = led.Count
		report(ctx, rlog, pathLedger, VerifyLedger(led), stats)
		if cfg.Verbose {
			rlog.Info(ctx, "ledger", logger.Int("entries", led.Count))
		}
	}
}

func fetch(ctx context.Context, c *client, path string, v any, stats *Stats, log logger.Logger) bool {
	stats.Requests++
	if err := c.getJSON(ctx, path, v); err != nil {
		stats.Failures++
		log.Error(ctx, "poll failed", logger.String("path", path), logger.Error(err))
		return false
	}
	return true
}

func report(ctx context.Context, log logger.Logger, path string, vs []Violation, stats *Stats) {
	stats.Violations += len(vs)
	for _, v := range vs {
		log.Error(ctx, "verification failed", logger.String("path", path), logger.String("rule", v.Rule), logger.String("detail", v.Detail))
	}
}

// finish stamps the end time and logs the summary.
func finish(stats *Stats, log logger.Logger) *Stats {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(context.Background(), "final statistics",
		logger.Int("rounds", stats.Rounds),
		logger.Int("requests", stats.Requests),
		logger.Int("failures", stats.Failures),
		logger.Int("violations", stats.Violations),
		logger.Int("players", stats.Players),
		logger.Int("liveEvents", stats.LiveEvents),
		logger.Int("ledgerEntries", stats.LedgerEntries),
		logger.Duration("duration", stats.Duration))
	return stats
}
