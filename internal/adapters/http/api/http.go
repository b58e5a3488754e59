// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/canmnt/internal/adapters/pubsub"
	"github.com/okian/canmnt/internal/domain/countdown"
	"github.com/okian/canmnt/internal/domain/ledger"
	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/internal/domain/types"
	"github.com/okian/canmnt/pkg/logger"
)

const corsMaxAge = 300

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Countdown() countdown.Countdown
	LivePulse() types.LivePulse
	RosterTiers() types.RosterTiers
	SeasonStats(ctx context.Context, player string) (model.SeasonStatsResponse, error)
	Ledger(ctx context.Context, f ledger.Filter) (types.Ledger, error)
	Refresh(ctx context.Context) types.RefreshResult

	// Subscribe and Unsubscribe manage live-pulse update subscriptions.
	Subscribe() chan pubsub.Event
	Unsubscribe(ch chan pubsub.Event)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	countdownHandler   *CountdownHandler
	livePulseHandler   *LivePulseHandler
	rosterHandler      *RosterHandler
	seasonStatsHandler *SeasonStatsHandler
	ledgerHandler      *LedgerHandler
	refreshHandler     *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{keepAlive: defaultKeepAlive}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		countdownHandler:   NewCountdownHandler(deps),
		livePulseHandler:   NewLivePulseHandler(deps, o.keepAlive, o.logger),
		rosterHandler:      NewRosterHandler(deps),
		seasonStatsHandler: NewSeasonStatsHandler(deps, o.logger),
		ledgerHandler:      NewLedgerHandler(deps),
		refreshHandler:     NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/countdown", MetricsMiddleware(s.countdownHandler.HandleGetCountdown, "countdown"))
		r.Get("/live-pulse", MetricsMiddleware(s.livePulseHandler.HandleGetLivePulse, "live_pulse"))
		r.Get("/live-pulse/stream", s.livePulseHandler.HandleStream)
		r.Get("/roster-tiers", MetricsMiddleware(s.rosterHandler.HandleGetRosterTiers, "roster_tiers"))
		r.Get("/season-stats", MetricsMiddleware(s.seasonStatsHandler.HandleGetSeasonStats, "season_stats"))
		r.Get("/ledger", MetricsMiddleware(s.ledgerHandler.HandleGetLedger, "ledger"))
		r.Post("/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "not_found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		})
	})
}

// NewRouter returns a chi router with the shared middleware stack and CORS
// for allowedOrigins.
func NewRouter(allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}))
	return r
}

// Option configures a Server.
type Option func(*options)

type options struct {
	keepAlive time.Duration
	logger    logger.Logger
}

// WithKeepAlive sets how often idle streams receive a comment line.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.keepAlive = d
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigStd.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
