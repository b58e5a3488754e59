package service

import (
	"time"

	"github.com/okian/canmnt/internal/adapters/pubsub"
	"github.com/okian/canmnt/internal/adapters/snapshot"
	"github.com/okian/canmnt/internal/adapters/upstream"
	"github.com/okian/canmnt/internal/app/refresher"
	"github.com/okian/canmnt/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the upstream. Without one the service runs on mock data.
func WithFetcher(f upstream.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithSnapshots sets the store used to persist last-good payloads.
func WithSnapshots(store snapshot.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.snapshots = store
		}
	}
}

// WithBroadcaster sets the pubsub live updates are published on.
func WithBroadcaster(ps *pubsub.PubSub) Option {
	return func(s *Service) {
		if ps != nil {
			s.broadcaster = ps
		}
	}
}

// WithClock replaces the wall clock and ticker factory.
func WithClock(c refresher.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithKickoff sets the time the countdown targets.
func WithKickoff(t time.Time) Option {
	return func(s *Service) {
		if !t.IsZero() {
			s.kickoff = t
		}
	}
}

// WithLivePulseInterval sets the live event polling interval.
func WithLivePulseInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.liveInterval = d
		}
	}
}

// WithSeasonStatsInterval sets the season stats polling interval. Zero fetches once.
func WithSeasonStatsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.seasonInterval = d
		}
	}
}

// WithLedgerCapacity caps the number of ledger entries kept.
func WithLedgerCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.ledgerCapacity = n
		}
	}
}

// WithWorkerCount sets the number of ledger workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ledger queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many live event keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
