package model

// EventType classifies a player event.
type EventType string

// Event types reported by the live pulse. CleanSheet only appears in the ledger.
const (
	EventGoal         EventType = "goal"
	EventAssist       EventType = "assist"
	EventCard         EventType = "card"
	EventSubstitution EventType = "substitution"
	EventCleanSheet   EventType = "cleansheet"
)

// IsLive reports whether t may appear in a live-pulse payload.
func (t EventType) IsLive() bool {
	switch t {
	case EventGoal, EventAssist, EventCard, EventSubstitution:
		return true
	default:
		return false
	}
}

// PlayerEvent is a single live-pulse entry, newest first as returned by the source.
type PlayerEvent struct {
	ID        int       `json:"id"`
	Player    string    `json:"player"`
	Event     string    `json:"event"` // display label, e.g. "Yellow Card"
	Type      EventType `json:"type"`
	Context   string    `json:"context"`
	Minute    string    `json:"minute"`
	Timestamp string    `json:"timestamp"` // relative label, e.g. "18 minutes ago"
	League    string    `json:"league"`
	Team      string    `json:"team,omitempty"`
}

// LivePulseResponse is the upstream live-pulse envelope.
type LivePulseResponse struct {
	Events      []PlayerEvent `json:"events"`
	LastUpdated string        `json:"last_updated"`
}
