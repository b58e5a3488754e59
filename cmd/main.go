package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/canmnt/internal/adapters/http/api"
	"github.com/okian/canmnt/internal/adapters/http/site"
	"github.com/okian/canmnt/internal/adapters/http/swagger"
	"github.com/okian/canmnt/internal/adapters/pubsub"
	"github.com/okian/canmnt/internal/adapters/snapshot"
	"github.com/okian/canmnt/internal/adapters/upstream"
	app "github.com/okian/canmnt/internal/app"
	"github.com/okian/canmnt/internal/config"
	"github.com/okian/canmnt/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("canmnt: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	ad, err := buildAdapters(ctx, cfg)
	if err != nil {
		return err
	}
	defer ad.close(ctx)

	svc, err := app.New(
		app.WithLogger(log.Named("service")),
		app.WithFetcher(ad.fetcher),
		app.WithSnapshots(ad.snapshots),
		app.WithBroadcaster(ad.broadcaster),
		app.WithKickoff(cfg.Kickoff()),
		app.WithLivePulseInterval(cfg.LivePulseInterval()),
		app.WithSeasonStatsInterval(cfg.SeasonStatsInterval()),
		app.WithLedgerCapacity(cfg.LedgerCapacity),
		app.WithQueueSize(cfg.LedgerQueueSize),
		app.WithWorkerCount(cfg.LedgerWorkers),
		app.WithDedupeSize(cfg.DedupeSize),
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	srv := newServer(cfg.Addr, newHandler(ctx, cfg, svc), ad.broadcaster)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.Bool("mock_mode", cfg.UpstreamURL == ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		log.Info(shutdownCtx, "server stopped")
		return nil
	})
	return g.Wait()
}

// adapters holds the backends chosen by configuration.
type adapters struct {
	fetcher     upstream.Fetcher
	snapshots   snapshot.Store
	broadcaster *pubsub.PubSub
}

// buildAdapters picks the upstream, the snapshot store and the broadcast bridge.
// An empty upstream_url leaves the fetcher nil so the service runs on mock data.
func buildAdapters(ctx context.Context, cfg *config.Config) (*adapters, error) {
	log := logger.Get()
	d := &adapters{}

	if cfg.UpstreamURL != "" {
		d.fetcher = upstream.NewClient(upstream.ClientConfig{
			BaseURL: cfg.UpstreamURL,
			Timeout: cfg.UpstreamTimeout(),
		})
	} else {
		log.Info(ctx, "no upstream_url configured; serving mock data")
	}

	if cfg.RedisURL != "" {
		store, err := snapshot.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		d.snapshots = store
	} else {
		d.snapshots = snapshot.NewMemory()
	}

	if cfg.NATSURL != "" {
		bridge, err := pubsub.DialNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			_ = d.snapshots.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		ps, err := pubsub.NewWithUpstream(bridge)
		if err != nil {
			_ = bridge.Close()
			_ = d.snapshots.Close()
			return nil, fmt.Errorf("subscribe nats: %w", err)
		}
		d.broadcaster = ps
	} else {
		d.broadcaster = pubsub.New()
	}
	return d, nil
}

func (d *adapters) close(ctx context.Context) {
	log := logger.Get()
	if err := d.broadcaster.Close(); err != nil {
		log.Warn(ctx, "close broadcaster", logger.Error(err))
	}
	if err := d.snapshots.Close(); err != nil {
		log.Warn(ctx, "close snapshot store", logger.Error(err))
	}
}

// newHandler registers the API, the docs and the dashboard on one router.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	r := api.NewRouter(cfg.AllowedOrigins)
	api.NewServer(svc, svc).Register(ctx, r)
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	return r
}

// newServer builds the HTTP server. Live streams are ended as soon as
// shutdown starts so Shutdown does not wait on them.
func newServer(addr string, h http.Handler, streams *pubsub.PubSub) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	srv.RegisterOnShutdown(streams.Drain)
	return srv
}

// startServiceMetricsUpdater refreshes the service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats publishes queue, ledger and system gauges.
			_ = svc.GetStats()
		}
	}
}
