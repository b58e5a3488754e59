// Package refresher polls an upstream endpoint on a fixed interval and keeps
// the last good payload in memory.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/okian/canmnt/internal/adapters/snapshot"
	"github.com/okian/canmnt/pkg/logger"
	"github.com/okian/canmnt/pkg/metrics"
)

// Where the current data came from.
const (
	SourceUpstream = "upstream"
	SourceSnapshot = "snapshot"
	SourceFallback = "mock"
)

// Fetch outcomes reported to metrics.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeEmpty   = "empty"
)

// FetchFunc reads one payload from the upstream.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is a point-in-time copy of a refresher's data and health.
type State[T any] struct {
	Data        T         `json:"data"`
	Error       string    `json:"error,omitempty"`
	Stale       bool      `json:"stale"`
	LastSuccess time.Time `json:"last_success"`
	LastAttempt time.Time `json:"last_attempt"`
	Attempts    int       `json:"attempts"`
	Failures    int       `json:"failures"`
	Source      string    `json:"source"`
}

// Config describes one polled endpoint.
type Config[T any] struct {
	// Name identifies the refresher in logs, metrics and snapshot keys.
	Name  string
	Fetch FetchFunc[T]
	// Fallback is served until the first successful fetch.
	Fallback T
	// Interval between attempts. Zero fetches once on start.
	Interval time.Duration
	// ErrorMessage is shown to viewers while the last attempt has failed.
	ErrorMessage string
	// Accept rejects payloads that should not replace the current data.
	Accept func(T) bool
	// OnUpdate runs after every accepted payload, on the refresher goroutine.
	OnUpdate func(ctx context.Context, data T)

	Clock     Clock
	Snapshots snapshot.Store
	Logger    logger.Logger
}

// Refresher owns the polling loop for one endpoint.
type Refresher[T any] struct {
	cfg Config[T]

	mu    sync.RWMutex
	state State[T]

	attemptMu sync.Mutex
	running   atomic.Bool
}

// New validates cfg and returns a refresher serving cfg.Fallback.
func New[T any](cfg Config[T]) (*Refresher[T], error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if cfg.Fetch == nil {
		return nil, fmt.Errorf("%w: %s: fetch is required", ErrInvalidConfig, cfg.Name)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("%w: %s: negative interval", ErrInvalidConfig, cfg.Name)
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Get().Named("refresher").Named(cfg.Name)
	}
	return &Refresher[T]{
		cfg: cfg,
		state: State[T]{
			Data:   cfg.Fallback,
			Stale:  true,
			Source: SourceFallback,
		},
	}, nil
}

// Name returns the configured name.
func (r *Refresher[T]) Name() string { return r.cfg.Name }

// Interval returns the configured interval.
func (r *Refresher[T]) Interval() time.Duration { return r.cfg.Interval }

// State returns a copy of the current state.
func (r *Refresher[T]) State() State[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Run seeds from the snapshot store, fetches immediately and then once per
// interval until ctx is cancelled. The ticker is released before Run returns.
func (r *Refresher[T]) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, r.cfg.Name)
	}
	defer r.running.Store(false)

	r.restore(ctx)
	r.attempt(ctx)

	if r.cfg.Interval == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := r.cfg.Clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.cfg.Logger.Debug(ctx, "refresher stopped")
			return nil
		case <-ticker.C():
			r.attempt(ctx)
		}
	}
}

// Refresh performs one out-of-band attempt and returns the resulting state.
func (r *Refresher[T]) Refresh(ctx context.Context) State[T] {
	r.attempt(ctx)
	return r.State()
}

func (r *Refresher[T]) attempt(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r.attemptMu.Lock()
	defer r.attemptMu.Unlock()

	started := r.cfg.Clock.Now()
	data, err := r.cfg.Fetch(ctx)
	if err == nil && r.cfg.Accept != nil && !r.cfg.Accept(data) {
		err = ErrEmptyPayload
	}
	latency := float64(r.cfg.Clock.Now().Sub(started).Milliseconds())

	switch {
	case errors.Is(err, ErrEmptyPayload):
		metrics.RecordUpstreamFetch(r.cfg.Name, outcomeEmpty, latency)
		r.cfg.Logger.Warn(ctx, "empty payload, keeping current data")
		r.update(func(s *State[T]) {
			s.Attempts++
			s.LastAttempt = started
		})
	case err != nil:
		if ctx.Err() != nil {
			// Shutting down; not an upstream failure.
			return
		}
		metrics.RecordUpstreamFetch(r.cfg.Name, outcomeError, latency)
		r.cfg.Logger.Warn(ctx, "fetch failed, keeping last good data", logger.Error(err))
		r.update(func(s *State[T]) {
			s.Attempts++
			s.Failures++
			s.LastAttempt = started
			s.Error = r.cfg.ErrorMessage
			if s.Error == "" {
				s.Error = err.Error()
			}
			s.Stale = true
		})
	default:
		metrics.RecordUpstreamFetch(r.cfg.Name, outcomeSuccess, latency)
		r.update(func(s *State[T]) {
			s.Data = data
			s.Attempts++
			s.LastAttempt = started
			s.LastSuccess = started
			s.Error = ""
			s.Stale = false
			s.Source = SourceUpstream
		})
		r.persist(ctx, data)
		if r.cfg.OnUpdate != nil {
			r.cfg.OnUpdate(ctx, data)
		}
	}
}

func (r *Refresher[T]) update(fn func(*State[T])) {
	r.mu.Lock()
	fn(&r.state)
	s := r.state
	r.mu.Unlock()
	metrics.UpdateRefresherState(r.cfg.Name, s.Stale, s.LastSuccess)
}

// restore seeds the state from the last persisted payload, if any.
func (r *Refresher[T]) restore(ctx context.Context) {
	if r.cfg.Snapshots == nil {
		return
	}
	raw, err := r.cfg.Snapshots.Load(ctx, r.cfg.Name)
	if errors.Is(err, snapshot.ErrNotFound) {
		return
	}
	if err != nil {
		r.cfg.Logger.Warn(ctx, "load snapshot", logger.Error(err))
		return
	}
	var data T
	if err := sonic.Unmarshal(raw, &data); err != nil {
		r.cfg.Logger.Warn(ctx, "decode snapshot", logger.Error(err))
		return
	}
	if r.cfg.Accept != nil && !r.cfg.Accept(data) {
		return
	}
	r.update(func(s *State[T]) {
		s.Data = data
		s.Source = SourceSnapshot
	})
	r.cfg.Logger.Info(ctx, "restored snapshot", logger.Int("bytes", len(raw)))
	if r.cfg.OnUpdate != nil {
		r.cfg.OnUpdate(ctx, data)
	}
}

func (r *Refresher[T]) persist(ctx context.Context, data T) {
	if r.cfg.Snapshots == nil {
		return
	}
	raw, err := sonic.Marshal(data)
	if err != nil {
		r.cfg.Logger.Warn(ctx, "encode snapshot", logger.Error(err))
		return
	}
	if err := r.cfg.Snapshots.Save(ctx, r.cfg.Name, raw); err != nil {
		r.cfg.Logger.Warn(ctx, "save snapshot", logger.Error(err))
	}
}
