// Package service wires the refreshers, the ledger pipeline and the broadcaster
// into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	"github.com/okian/canmnt/internal/adapters/mock"
	eventqueue "github.com/okian/canmnt/internal/adapters/mq/queue"
	workerpool "github.com/okian/canmnt/internal/adapters/mq/worker"
	"github.com/okian/canmnt/internal/adapters/pubsub"
	repository "github.com/okian/canmnt/internal/adapters/repository"
	"github.com/okian/canmnt/internal/adapters/snapshot"
	"github.com/okian/canmnt/internal/adapters/upstream"
	"github.com/okian/canmnt/internal/app/refresher"
	"github.com/okian/canmnt/internal/domain/countdown"
	"github.com/okian/canmnt/internal/domain/dedupe"
	"github.com/okian/canmnt/internal/domain/ledger"
	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/internal/domain/tiers"
	"github.com/okian/canmnt/internal/domain/types"
	"github.com/okian/canmnt/pkg/logger"
	"github.com/okian/canmnt/pkg/metrics"
)

// Messages shown to viewers while an endpoint is failing.
const (
	LivePulseErrorMessage   = "Unable to load live events"
	SeasonStatsErrorMessage = "Failed to load player stats. Using mock data."
	SeasonStatsStaleMessage = "Failed to refresh player stats. Showing last loaded data."
)

// Service implements the API dependencies for the war room dashboard.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	fetcher     upstream.Fetcher
	snapshots   snapshot.Store
	broadcaster *pubsub.PubSub
	clock       refresher.Clock

	// Core components
	ledger  *repository.MemoryLedger
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	live    *refresher.Refresher[model.LivePulseResponse]
	season  *refresher.Refresher[model.SeasonStatsResponse]

	boardMu sync.RWMutex
	board   tiers.Board

	// Configuration
	kickoff        time.Time
	liveInterval   time.Duration
	seasonInterval time.Duration
	ledgerCapacity int
	workerCount    int
	queueSize      int
	dedupeSize     int

	// State
	started bool
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group

	logger logger.Logger
}

// New constructs a Service. Without WithFetcher it serves the mock dataset.
func New(opts ...Option) (*Service, error) {
	kickoff, _ := time.Parse(time.RFC3339, "2026-06-12T15:00:00-04:00")
	s := &Service{
		kickoff:        kickoff,
		liveInterval:   60 * time.Second,
		seasonInterval: 0,
		ledgerCapacity: 5_000,
		workerCount:    2,
		queueSize:      1_024,
		dedupeSize:     10_000,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.clock == nil {
		s.clock = refresher.SystemClock()
	}
	if s.fetcher == nil {
		s.fetcher = mock.NewSource(s.clock.Now)
	}
	if s.snapshots == nil {
		s.snapshots = snapshot.NewMemory()
	}
	if s.broadcaster == nil {
		s.broadcaster = pubsub.New()
	}

	s.ledger = repository.NewMemoryLedger(repository.WithCapacity(s.ledgerCapacity))
	s.deduper = dedupe.NewMemory(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.ledger)
	s.setBoard(tiers.Classify(mock.Players()))

	now := s.clock.Now()
	live, err := refresher.New(refresher.Config[model.LivePulseResponse]{
		Name:         upstream.EndpointLivePulse,
		Fetch:        s.fetcher.LivePulse,
		Fallback:     mock.LivePulse(now),
		Interval:     s.liveInterval,
		ErrorMessage: LivePulseErrorMessage,
		OnUpdate:     s.onLivePulse,
		Clock:        s.clock,
		Snapshots:    s.snapshots,
		Logger:       s.logger.Named(upstream.EndpointLivePulse),
	})
	if err != nil {
		return nil, fmt.Errorf("live pulse refresher: %w", err)
	}

	season, err := refresher.New(refresher.Config[model.SeasonStatsResponse]{
		Name: upstream.EndpointSeasonStats,
		Fetch: func(ctx context.Context) (model.SeasonStatsResponse, error) {
			return s.fetcher.SeasonStats(ctx, "")
		},
		Fallback:     mock.SeasonStats("", now),
		Interval:     s.seasonInterval,
		ErrorMessage: SeasonStatsErrorMessage,
		Accept: func(resp model.SeasonStatsResponse) bool {
			return len(resp.Players) > 0
		},
		OnUpdate:  s.onSeasonStats,
		Clock:     s.clock,
		Snapshots: s.snapshots,
		Logger:    s.logger.Named(upstream.EndpointSeasonStats),
	})
	if err != nil {
		return nil, fmt.Errorf("season stats refresher: %w", err)
	}

	s.live = live
	s.season = season
	return s, nil
}

// Start seeds the ledger and launches the workers and both refreshers. The
// refreshers stop when ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}

	s.logger.Info(ctx, "starting war room service...")

	seeded, err := s.ledger.Seed(ctx, mock.LedgerHistory(s.clock.Now()))
	if err != nil {
		return fmt.Errorf("seed ledger: %w", err)
	}

	// Workers outlive ctx so Stop can drain the queue.
	s.pool.Start(context.WithoutCancel(ctx))
	metrics.UpdateQueueCapacity(s.queue.Cap())

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return s.live.Run(gctx) })
	g.Go(func() error { return s.season.Run(gctx) })
	s.cancel = cancel
	s.group = g

	s.started = true
	s.logger.Info(ctx, "war room service started",
		logger.Int("ledger_seeded", seeded),
		logger.Int("workers", s.pool.Size()),
		logger.Duration("live_interval", s.liveInterval),
		logger.Duration("season_interval", s.seasonInterval),
	)
	return nil
}

// Stop cancels the refreshers, waits for them and drains the ledger queue.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping war room service...")

	s.cancel()
	err := s.group.Wait()
	if perr := s.pool.Shutdown(ctx); perr != nil {
		err = errors.Join(err, perr)
	}

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "war room service stopped")
	return err
}

func (s *Service) onLivePulse(ctx context.Context, resp model.LivePulseResponse) {
	now := s.clock.Now()
	queued := 0
	for _, ev := range resp.Events {
		entry := model.LedgerEntryFromEvent(ev, now)
		if s.deduper.SeenAndRecord(ctx, entry.Key) {
			continue
		}
		if !s.queue.Enqueue(ctx, entry) {
			// Let the next poll retry it.
			s.deduper.Unrecord(ctx, entry.Key)
			s.logger.Warn(ctx, "ledger queue rejected entry", logger.String("key", entry.Key))
			continue
		}
		queued++
	}
	metrics.UpdateQueueSize(s.queue.Len())
	if queued > 0 {
		s.logger.Debug(ctx, "queued live events", logger.Int("count", queued))
	}
	s.publishLivePulse(ctx)
}

func (s *Service) publishLivePulse(ctx context.Context) {
	raw, err := sonic.Marshal(s.LivePulse())
	if err != nil {
		s.logger.Error(ctx, "encode live pulse update", logger.Error(err))
		return
	}
	s.broadcaster.Publish(pubsub.Event{Type: pubsub.EventLivePulseUpdated, Data: raw})
}

func (s *Service) onSeasonStats(_ context.Context, resp model.SeasonStatsResponse) {
	s.setBoard(tiers.Classify(resp.Players))
}

func (s *Service) setBoard(b tiers.Board) {
	s.boardMu.Lock()
	s.board = b
	s.boardMu.Unlock()
	for t, n := range b.Counts() {
		metrics.UpdateTierSize(string(t), n)
	}
}

func (s *Service) currentBoard() tiers.Board {
	s.boardMu.RLock()
	defer s.boardMu.RUnlock()
	return s.board
}

// Countdown returns the time left until kickoff.
func (s *Service) Countdown() countdown.Countdown {
	return countdown.Remaining(s.clock.Now(), s.kickoff)
}

// LivePulse returns the current live event feed.
func (s *Service) LivePulse() types.LivePulse {
	st := s.live.State()
	events := st.Data.Events
	if events == nil {
		events = []model.PlayerEvent{}
	}
	return types.LivePulse{
		Events:      events,
		LastUpdated: st.Data.LastUpdated,
		Error:       st.Error,
		Stale:       st.Stale,
		Source:      st.Source,
	}
}

// RosterTiers returns the roster board classified from the current season stats.
func (s *Service) RosterTiers() types.RosterTiers {
	st := s.season.State()
	board := s.currentBoard()
	season := st.Data.Season
	if season == "" {
		season = model.CurrentSeason
	}
	return types.RosterTiers{
		Board:       board,
		Counts:      board.Counts(),
		Season:      season,
		LastUpdated: st.Data.LastUpdated,
		Error:       seasonError(st),
		Stale:       st.Stale,
		Source:      st.Source,
	}
}

// seasonError names what the board falls back to. Only the built-in set is
// mock data; a snapshot or an earlier upstream payload is not.
func seasonError(st refresher.State[model.SeasonStatsResponse]) string {
	if st.Error == "" || st.Source == refresher.SourceFallback {
		return st.Error
	}
	return SeasonStatsStaleMessage
}

// SeasonStats returns season stats. An empty player returns the polled set;
// otherwise the upstream is asked directly and the polled set answers when it
// fails.
func (s *Service) SeasonStats(ctx context.Context, player string) (model.SeasonStatsResponse, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return s.season.State().Data, nil
	}

	resp, err := s.fetcher.SeasonStats(ctx, player)
	if err == nil {
		return resp, nil
	}
	s.logger.Warn(ctx, "season stats pass-through failed", logger.String("player", player), logger.Error(err))

	cached := s.season.State().Data
	players := make(map[string]model.PlayerSeasonStats)
	for id, p := range cached.Players {
		if ledger.MatchPlayer(player, p.Player) {
			players[id] = p
		}
	}
	if len(players) == 0 {
		return model.SeasonStatsResponse{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return model.SeasonStatsResponse{
		Season:      cached.Season,
		Players:     players,
		Count:       len(players),
		LastUpdated: cached.LastUpdated,
	}, nil
}

// Ledger returns the ledger entries matching f, newest first.
func (s *Service) Ledger(ctx context.Context, f ledger.Filter) (types.Ledger, error) {
	f = f.Normalize()
	if err := f.Validate(ctx); err != nil {
		return types.Ledger{}, err
	}
	entries, err := s.ledger.Query(ctx, f, s.clock.Now())
	if err != nil {
		return types.Ledger{}, err
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	return types.Ledger{Entries: entries, Count: len(entries), Filters: f}, nil
}

// Refresh runs one out-of-band attempt on every refresher.
func (s *Service) Refresh(ctx context.Context) types.RefreshResult {
	var (
		res types.RefreshResult
		g   errgroup.Group
	)
	g.Go(func() error {
		res.LivePulse = status(s.live.Refresh(ctx))
		return nil
	})
	g.Go(func() error {
		st := s.season.Refresh(ctx)
		res.SeasonStats = status(st)
		res.SeasonStats.Error = seasonError(st)
		return nil
	})
	_ = g.Wait()
	return res
}

func status[T any](st refresher.State[T]) types.RefreshStatus {
	return types.RefreshStatus{
		OK:          st.Error == "",
		Error:       st.Error,
		Source:      st.Source,
		LastSuccess: st.LastSuccess,
		Failures:    st.Failures,
	}
}

// Subscribe registers a live-pulse update subscriber.
func (s *Service) Subscribe() chan pubsub.Event {
	return s.broadcaster.Subscribe()
}

// Unsubscribe removes a subscriber returned by Subscribe.
func (s *Service) Unsubscribe(ch chan pubsub.Event) {
	s.broadcaster.Unsubscribe(ch)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	ctx := context.Background()
	live := s.live.State()
	season := s.season.State()
	queueLen := s.queue.Len()
	ledgerSize := s.ledger.Count(ctx)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateLedgerEntries(ledgerSize)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(goroutines)

	return map[string]interface{}{
		"started":        started,
		"workerCount":    s.pool.Size(),
		"queueLength":    queueLen,
		"queueCapacity":  s.queue.Cap(),
		"dedupeSize":     s.deduper.Size(),
		"ledgerEntries":  ledgerSize,
		"subscribers":    s.broadcaster.Subscribers(),
		"livePulse":      refresherStats(live),
		"seasonStats":    refresherStats(season),
		"memoryBytes":    mem.Alloc,
		"goroutineCount": goroutines,
	}
}

func refresherStats[T any](st refresher.State[T]) map[string]interface{} {
	return map[string]interface{}{
		"source":      st.Source,
		"stale":       st.Stale,
		"error":       st.Error,
		"attempts":    st.Attempts,
		"failures":    st.Failures,
		"lastSuccess": st.LastSuccess,
		"lastAttempt": st.LastAttempt,
	}
}
