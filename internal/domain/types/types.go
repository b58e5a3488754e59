// Package types contains the response shapes shared by the service and the HTTP layer.
package types

import (
	"time"

	"github.com/okian/canmnt/internal/domain/ledger"
	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/internal/domain/tiers"
)

// LivePulse is the live event feed as shown to viewers.
type LivePulse struct {
	Events      []model.PlayerEvent `json:"events"`
	LastUpdated string              `json:"last_updated"`
	Error       string              `json:"error,omitempty"`
	Stale       bool                `json:"stale"`
	Source      string              `json:"source"`
}

// RosterTiers is the classified roster board.
type RosterTiers struct {
	tiers.Board
	Counts      map[tiers.Tier]int `json:"counts"`
	Season      string             `json:"season"`
	LastUpdated string             `json:"last_updated"`
	Error       string             `json:"error,omitempty"`
	Stale       bool               `json:"stale"`
	Source      string             `json:"source"`
}

// Ledger is a filtered slice of the event ledger.
type Ledger struct {
	Entries []model.LedgerEntry `json:"entries"`
	Count   int                 `json:"count"`
	Filters ledger.Filter       `json:"filters"`
}

// RefreshStatus reports the outcome of one manual refresh.
type RefreshStatus struct {
	OK          bool      `json:"ok"`
	Error       string    `json:"error,omitempty"`
	Source      string    `json:"source"`
	LastSuccess time.Time `json:"last_success"`
	Failures    int       `json:"failures"`
}

// RefreshResult is returned by a manual refresh of every refresher.
type RefreshResult struct {
	LivePulse   RefreshStatus `json:"live_pulse"`
	SeasonStats RefreshStatus `json:"season_stats"`
}
