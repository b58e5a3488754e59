package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/canmnt/internal/domain/countdown"
	"github.com/okian/canmnt/internal/domain/ledger"
	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/internal/domain/types"
	"github.com/okian/canmnt/pkg/logger"
)

// CountdownDependencies provides the kickoff countdown.
type CountdownDependencies interface {
	Countdown() countdown.Countdown
}

// CountdownHandler handles countdown requests.
type CountdownHandler struct {
	deps CountdownDependencies
}

// NewCountdownHandler creates a new countdown handler.
func NewCountdownHandler(deps CountdownDependencies) *CountdownHandler {
	return &CountdownHandler{deps: deps}
}

// HandleGetCountdown handles GET /api/countdown requests.
func (h *CountdownHandler) HandleGetCountdown(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Countdown())
}

// RosterDependencies provides the roster board.
type RosterDependencies interface {
	RosterTiers() types.RosterTiers
}

// RosterHandler handles roster tier requests.
type RosterHandler struct {
	deps RosterDependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps RosterDependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

// HandleGetRosterTiers handles GET /api/roster-tiers requests.
func (h *RosterHandler) HandleGetRosterTiers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.RosterTiers())
}

// SeasonStatsDependencies provides season stats lookups.
type SeasonStatsDependencies interface {
	SeasonStats(ctx context.Context, player string) (model.SeasonStatsResponse, error)
}

// SeasonStatsHandler handles season stats requests.
type SeasonStatsHandler struct {
	deps   SeasonStatsDependencies
	logger logger.Logger
}

// NewSeasonStatsHandler creates a new season stats handler.
func NewSeasonStatsHandler(deps SeasonStatsDependencies, l logger.Logger) *SeasonStatsHandler {
	return &SeasonStatsHandler{deps: deps, logger: l}
}

// HandleGetSeasonStats handles GET /api/season-stats?player=NAME requests.
func (h *SeasonStatsHandler) HandleGetSeasonStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_season_stats"
	player := r.URL.Query().Get("player")
	resp, err := h.deps.SeasonStats(r.Context(), player)
	if err != nil {
		h.logger.Warn(r.Context(), "season stats unavailable", logger.String("player", player), logger.Error(err))
		writeError(w, http.StatusBadGateway, "upstream_unavailable", wrapKind(op, ErrUpstreamUnavailable, nil))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// LedgerDependencies provides filtered ledger reads.
type LedgerDependencies interface {
	Ledger(ctx context.Context, f ledger.Filter) (types.Ledger, error)
}

// LedgerHandler handles ledger requests.
type LedgerHandler struct {
	deps LedgerDependencies
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps LedgerDependencies) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

// HandleGetLedger handles GET /api/ledger?event_type=&time_range=&player= requests.
func (h *LedgerHandler) HandleGetLedger(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ledger"
	q := r.URL.Query()
	f := ledger.Filter{
		EventType: q.Get("event_type"),
		TimeRange: q.Get("time_range"),
		Player:    q.Get("player"),
	}
	view, err := h.deps.Ledger(r.Context(), f)
	switch {
	case errors.Is(err, ledger.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", wrapKind(op, err, nil))
	default:
		writeJSON(w, http.StatusOK, view)
	}
}

// RefreshDependencies triggers manual refreshes.
type RefreshDependencies interface {
	Refresh(ctx context.Context) types.RefreshResult
}

// RefreshHandler handles manual refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandleRefresh handles POST /api/refresh requests. Upstream failures are
// reported in the body; the request itself still succeeds.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Refresh(r.Context()))
}
