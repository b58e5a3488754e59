// Package tiers sorts players into roster-likelihood tiers by form rating.
package tiers

import (
	"math"
	"sort"

	"github.com/okian/canmnt/internal/domain/model"
)

// Tier is a roster-likelihood bucket.
type Tier string

const (
	Locks     Tier = "locks"
	Probables Tier = "probables"
	Bubble    Tier = "bubble"
	Cold      Tier = "cold"
)

// Thresholds on the rounded form rating.
const (
	LockThreshold     = 75
	ProbableThreshold = 60
	BubbleThreshold   = 45
)

// DefaultPosition is shown for players missing from the position table.
const DefaultPosition = "MF"

// Ordered lists the tiers from most to least likely.
var Ordered = []Tier{Locks, Probables, Bubble, Cold} //nolint:gochecknoglobals // fixed tier order

var positions = map[string]string{ //nolint:gochecknoglobals // static lookup
	"Alphonso Davies":   "LB",
	"Jonathan David":    "ST",
	"Stephen Eustáquio": "CM",
	"Maxime Crépeau":    "GK",
	"Tajon Buchanan":    "RW",
	"Cyle Larin":        "ST",
	"Alistair Johnston": "RB",
	"Ismaël Koné":       "CM",
	"Kamal Miller":      "CB",
	"Richie Laryea":     "RB",
}

// Player is one row on the roster board.
type Player struct {
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	Form       int     `json:"form"`
	FormRating float64 `json:"form_rating"`
	Minutes    int     `json:"minutes"`
	Goals      int     `json:"goals"`
	Assists    int     `json:"assists"`
	League     string  `json:"league"`
	Team       string  `json:"team,omitempty"`
}

// Board holds the four tiers. Each slice is sorted by form, then raw rating,
// descending.
type Board struct {
	Locks     []Player `json:"locks"`
	Probables []Player `json:"probables"`
	Bubble    []Player `json:"bubble"`
	Cold      []Player `json:"cold"`
}

// Position returns the board position for a player name.
func Position(name string) string {
	if p, ok := positions[name]; ok {
		return p
	}
	return DefaultPosition
}

// RoundForm rounds a raw form rating half-up to the integer used on the board.
func RoundForm(rating float64) int {
	return int(math.Floor(rating + 0.5))
}

// TierOf maps a rounded form value to its tier.
func TierOf(form int) Tier {
	switch {
	case form >= LockThreshold:
		return Locks
	case form >= ProbableThreshold:
		return Probables
	case form >= BubbleThreshold:
		return Bubble
	default:
		return Cold
	}
}

// Classify partitions stats into tiers. It never fails; empty input yields an
// empty board with non-nil slices.
func Classify(stats map[string]model.PlayerSeasonStats) Board {
	players := make([]Player, 0, len(stats))
	for _, s := range stats {
		players = append(players, Player{
			Name:       s.Player,
			Position:   Position(s.Player),
			Form:       RoundForm(s.FormRating),
			FormRating: s.FormRating,
			Minutes:    s.Minutes,
			Goals:      s.Goals,
			Assists:    s.Assists,
			League:     s.League,
			Team:       s.Team,
		})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Form != players[j].Form {
			return players[i].Form > players[j].Form
		}
		if players[i].FormRating != players[j].FormRating {
			return players[i].FormRating > players[j].FormRating
		}
		return players[i].Name < players[j].Name
	})

	b := Board{
		Locks:     []Player{},
		Probables: []Player{},
		Bubble:    []Player{},
		Cold:      []Player{},
	}
	for _, p := range players {
		switch TierOf(p.Form) {
		case Locks:
			b.Locks = append(b.Locks, p)
		case Probables:
			b.Probables = append(b.Probables, p)
		case Bubble:
			b.Bubble = append(b.Bubble, p)
		default:
			b.Cold = append(b.Cold, p)
		}
	}
	return b
}

// Tier returns the players in t.
func (b Board) Tier(t Tier) []Player {
	switch t {
	case Locks:
		return b.Locks
	case Probables:
		return b.Probables
	case Bubble:
		return b.Bubble
	case Cold:
		return b.Cold
	default:
		return nil
	}
}

// Counts returns the number of players per tier.
func (b Board) Counts() map[Tier]int {
	counts := make(map[Tier]int, len(Ordered))
	for _, t := range Ordered {
		counts[t] = len(b.Tier(t))
	}
	return counts
}

// All returns every player on the board, most likely first.
func (b Board) All() []Player {
	out := make([]Player, 0, len(b.Locks)+len(b.Probables)+len(b.Bubble)+len(b.Cold))
	for _, t := range Ordered {
		out = append(out, b.Tier(t)...)
	}
	return out
}
