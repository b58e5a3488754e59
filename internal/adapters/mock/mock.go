// Package mock holds the built-in dataset served when the upstream is
// unavailable or not configured.
package mock

import (
	"context"
	"strings"
	"time"

	"github.com/okian/canmnt/internal/domain/model"
)

// LiveEvents returns the fallback live-pulse feed, newest first.
func LiveEvents() []model.PlayerEvent {
	return []model.PlayerEvent{
		{ID: 1, Player: "Alphonso Davies", Event: "Goal", Type: model.EventGoal, Context: "Bayern Munich 3-1 Borussia Dortmund", Minute: "67'", Timestamp: "2 minutes ago", League: "Bundesliga", Team: "Bayern Munich"},
		{ID: 2, Player: "Jonathan David", Event: "Assist", Type: model.EventAssist, Context: "Lille 2-0 Lyon", Minute: "54'", Timestamp: "18 minutes ago", League: "Ligue 1", Team: "LOSC Lille"},
		{ID: 3, Player: "Tajon Buchanan", Event: "Goal", Type: model.EventGoal, Context: "Inter Milan 1-0 Napoli", Minute: "23'", Timestamp: "1 hour ago", League: "Serie A", Team: "Inter Milan"},
		{ID: 4, Player: "Stephen Eustáquio", Event: "Yellow Card", Type: model.EventCard, Context: "Porto 1-1 Benfica", Minute: "78'", Timestamp: "3 hours ago", League: "Primeira Liga", Team: "FC Porto"},
		{ID: 5, Player: "Cyle Larin", Event: "Goal", Type: model.EventGoal, Context: "Real Valladolid 2-1 Real Betis", Minute: "89'", Timestamp: "5 hours ago", League: "La Liga", Team: "Real Valladolid"},
		{ID: 6, Player: "Alphonso Davies", Event: "Assist", Type: model.EventAssist, Context: "Bayern Munich 2-0 RB Leipzig", Minute: "34'", Timestamp: "8 hours ago", League: "Bundesliga", Team: "Bayern Munich"},
		{ID: 7, Player: "Kamal Miller", Event: "Yellow Card", Type: model.EventCard, Context: "CF Montréal 1-1 Atlanta United", Minute: "82'", Timestamp: "12 hours ago", League: "MLS", Team: "CF Montréal"},
		{ID: 8, Player: "Jonathan David", Event: "Goal", Type: model.EventGoal, Context: "Lille 3-2 Marseille", Minute: "90+2'", Timestamp: "1 day ago", League: "Ligue 1", Team: "LOSC Lille"},
	}
}

// LivePulse wraps LiveEvents in the upstream envelope.
func LivePulse(now time.Time) model.LivePulseResponse {
	return model.LivePulseResponse{
		Events:      LiveEvents(),
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
}

func stat(name, team, league string, matches, minutes, goals, assists int, rating, form float64) model.PlayerSeasonStats {
	return model.PlayerSeasonStats{
		Player:     name,
		Team:       team,
		League:     league,
		Season:     model.CurrentSeason,
		Matches:    matches,
		Minutes:    minutes,
		Goals:      goals,
		Assists:    assists,
		Rating:     rating,
		FormRating: form,
	}
}

// Players returns the fallback season stats keyed by player slug.
func Players() map[string]model.PlayerSeasonStats {
	return map[string]model.PlayerSeasonStats{
		"alphonso-davies":   stat("Alphonso Davies", "Bayern Munich", "Bundesliga", 19, 1620, 3, 8, 7.41, 85),
		"jonathan-david":    stat("Jonathan David", "LOSC Lille", "Ligue 1", 19, 1580, 15, 4, 7.78, 92),
		"stephen-eustaquio": stat("Stephen Eustáquio", "FC Porto", "Primeira Liga", 18, 1450, 2, 5, 7.12, 78),
		"maxime-crepeau":    stat("Maxime Crépeau", "Portland Timbers", "MLS", 18, 1620, 0, 0, 7.05, 81),
		"tajon-buchanan":    stat("Tajon Buchanan", "Inter Milan", "Serie A", 16, 1120, 4, 6, 7.02, 74),
		"cyle-larin":        stat("Cyle Larin", "Real Valladolid", "La Liga", 17, 1340, 9, 2, 6.98, 76),
		"alistair-johnston": stat("Alistair Johnston", "Celtic", "Scottish Premiership", 17, 1480, 1, 4, 7.09, 79),
		"ismael-kone":       stat("Ismaël Koné", "Watford", "Championship", 16, 1260, 3, 7, 6.95, 72),
		"jonathan-osorio":   stat("Jonathan Osorio", "Toronto FC", "MLS", 13, 980, 2, 3, 6.74, 68),
		"derek-cornelius":   stat("Derek Cornelius", "Marseille", "Ligue 1", 14, 1150, 1, 1, 6.81, 71),
		"richie-laryea":     stat("Richie Laryea", "Toronto FC", "MLS", 12, 890, 0, 5, 6.7, 66),
		"liam-millar":       stat("Liam Millar", "Hull City", "Championship", 14, 1020, 4, 2, 6.77, 69),
		"lucas-cavallini":   stat("Lucas Cavallini", "Vancouver Whitecaps", "MLS", 9, 520, 1, 1, 6.41, 54),
		"samuel-piette":     stat("Samuel Piette", "CF Montréal", "MLS", 10, 680, 0, 2, 6.5, 58),
	}
}

// SeasonStats wraps Players in the upstream envelope. A non-empty player
// narrows the result to that player, matched case-insensitively.
func SeasonStats(player string, now time.Time) model.SeasonStatsResponse {
	players := Players()
	if player = strings.TrimSpace(player); player != "" {
		for id, p := range players {
			if !strings.EqualFold(p.Player, player) {
				delete(players, id)
			}
		}
	}
	return model.SeasonStatsResponse{
		Season:      model.CurrentSeason,
		Players:     players,
		Count:       len(players),
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
}

var est = time.FixedZone("EST", -5*3600) //nolint:gochecknoglobals // history timestamps are published in EST

// historyAnchor is the reference point the history rows are laid out against.
var historyAnchor = time.Date(2024, 12, 15, 0, 0, 0, 0, est) //nolint:gochecknoglobals // fixed layout anchor

type historyRow struct {
	at       time.Time
	minute   string
	player   string
	event    string
	typ      model.EventType
	context  string
	opponent string
	league   string
}

var history = []historyRow{ //nolint:gochecknoglobals // static dataset
	{time.Date(2024, 12, 14, 14, 30, 0, 0, est), "67'", "Alphonso Davies", "Goal", model.EventGoal, "Made it 3-1", "Borussia Dortmund", "Bundesliga"},
	{time.Date(2024, 12, 14, 12, 15, 0, 0, est), "54'", "Jonathan David", "Assist", model.EventAssist, "Made it 2-0", "Lyon", "Ligue 1"},
	{time.Date(2024, 12, 14, 9, 45, 0, 0, est), "23'", "Tajon Buchanan", "Goal", model.EventGoal, "Made it 1-0", "Napoli", "Serie A"},
	{time.Date(2024, 12, 13, 16, 20, 0, 0, est), "78'", "Stephen Eustáquio", "Yellow Card", model.EventCard, "Tactical Foul", "Benfica", "Primeira Liga"},
	{time.Date(2024, 12, 13, 14, 0, 0, 0, est), "89'", "Cyle Larin", "Goal", model.EventGoal, "Made it 2-1", "Real Betis", "La Liga"},
	{time.Date(2024, 12, 12, 15, 30, 0, 0, est), "12'", "Alphonso Davies", "Assist", model.EventAssist, "Made it 1-0", "FC Augsburg", "Bundesliga"},
	{time.Date(2024, 12, 11, 13, 45, 0, 0, est), "56'", "Jonathan David", "Goal", model.EventGoal, "Made it 2-1", "Marseille", "Ligue 1"},
	{time.Date(2024, 12, 10, 16, 0, 0, 0, est), "90+2'", "Cyle Larin", "Goal", model.EventGoal, "Made it 3-2", "Valencia", "La Liga"},
}

// LedgerHistory returns the seed ledger rows, shifted so the history ends
// shortly before now while keeping the gaps between rows.
func LedgerHistory(now time.Time) []model.LedgerEntry {
	shift := now.Sub(historyAnchor)
	out := make([]model.LedgerEntry, 0, len(history))
	for _, r := range history {
		out = append(out, model.LedgerEntry{
			Key:        model.EventKey(r.player, r.event, r.context, r.minute) + "|" + r.opponent,
			OccurredAt: r.at.Add(shift).UTC(),
			Minute:     r.minute,
			Player:     r.player,
			Event:      r.event,
			Type:       r.typ,
			Context:    r.context,
			Opponent:   r.opponent,
			League:     r.league,
			Source:     model.SourceMock,
		})
	}
	return out
}

// Source serves the mock dataset through the same interface as the upstream client.
type Source struct {
	now func() time.Time
}

// NewSource creates a mock source using now for timestamps. A nil now uses time.Now.
func NewSource(now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{now: now}
}

// SeasonStats implements upstream.Fetcher.
func (s *Source) SeasonStats(ctx context.Context, player string) (model.SeasonStatsResponse, error) {
	if err := ctx.Err(); err != nil {
		return model.SeasonStatsResponse{}, err
	}
	return SeasonStats(player, s.now()), nil
}

// LivePulse implements upstream.Fetcher.
func (s *Source) LivePulse(ctx context.Context) (model.LivePulseResponse, error) {
	if err := ctx.Err(); err != nil {
		return model.LivePulseResponse{}, err
	}
	return LivePulse(s.now()), nil
}
