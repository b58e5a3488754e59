package model

import (
	"strings"
	"time"
)

// Ledger entry sources.
const (
	SourceMock = "mock"
	SourceLive = "live"
)

// LedgerEntry is one row of the historical event ledger.
type LedgerEntry struct {
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Minute     string    `json:"minute"`
	Player     string    `json:"player"`
	Event      string    `json:"event"`
	Type       EventType `json:"type"`
	Context    string    `json:"context"`
	Opponent   string    `json:"opponent,omitempty"`
	League     string    `json:"league"`
	Team       string    `json:"team,omitempty"`
	Source     string    `json:"source"`
}

// EventKey identifies a live event across polls. The upstream renumbers ids on
// every response, so the key is built from the event's content instead.
func EventKey(player, event, context, minute string) string {
	return strings.Join([]string{player, event, context, minute}, "|")
}

// LedgerEntryFromEvent converts a live event observed at now into a ledger row.
// The occurrence time is recovered from the relative timestamp label; labels
// that do not parse fall back to now.
func LedgerEntryFromEvent(e PlayerEvent, now time.Time) LedgerEntry {
	at, err := ParseRelative(e.Timestamp, now)
	if err != nil {
		at = now
	}
	return LedgerEntry{
		Key:        EventKey(e.Player, e.Event, e.Context, e.Minute),
		OccurredAt: at.UTC(),
		Minute:     e.Minute,
		Player:     e.Player,
		Event:      e.Event,
		Type:       e.Type,
		Context:    e.Context,
		Opponent:   opponentFromContext(e.Context, e.Team),
		League:     e.League,
		Team:       e.Team,
		Source:     SourceLive,
	}
}

// opponentFromContext pulls the other side out of a "Home 2-1 Away" scoreline.
func opponentFromContext(context, team string) string {
	fields := strings.Fields(context)
	for i, f := range fields {
		if !isScore(f) {
			continue
		}
		home := strings.Join(fields[:i], " ")
		away := strings.Join(fields[i+1:], " ")
		switch {
		case team == "":
			return ""
		case strings.EqualFold(home, team):
			return away
		case strings.EqualFold(away, team):
			return home
		case strings.Contains(team, home) || strings.Contains(home, team):
			return away
		default:
			return home
		}
	}
	return ""
}

func isScore(s string) bool {
	left, right, ok := strings.Cut(s, "-")
	return ok && isDigits(left) && isDigits(right)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
