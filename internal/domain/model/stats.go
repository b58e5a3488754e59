// Package model contains domain models passed between layers.
package model

// PlayerSeasonStats is one player's season line as reported by the upstream.
// Fields mirror the JSON returned by GET /api/season-stats.
type PlayerSeasonStats struct {
	Player     string  `json:"player"`
	Team       string  `json:"team"`
	League     string  `json:"league"`
	Season     string  `json:"season"`
	Matches    int     `json:"matches"`
	Minutes    int     `json:"minutes"`
	Goals      int     `json:"goals"`
	Assists    int     `json:"assists"`
	Rating     float64 `json:"rating"`
	FormRating float64 `json:"form_rating"` // 0-100, drives tier placement
}

// SeasonStatsResponse is the upstream season-stats envelope.
type SeasonStatsResponse struct {
	Season      string                       `json:"season"`
	Players     map[string]PlayerSeasonStats `json:"players"`
	Count       int                          `json:"count"`
	LastUpdated string                       `json:"last_updated"`
}

// CurrentSeason is the label the upstream uses for the 2025/26 campaign.
const CurrentSeason = "2025/26"
