// Package ledger holds the filtering rules for the historical event ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/canmnt/internal/domain/model"
)

// ErrInvalidFilter is returned for filter values outside the allowed sets.
var ErrInvalidFilter = errors.New("invalid ledger filter")

// All matches every value of a filter dimension.
const All = "all"

// Time ranges.
const (
	Range7Days  = "7days"
	Range30Days = "30days"
	RangeSeason = "season"
)

// SeasonStart is the first day of the 2025/26 season.
var SeasonStart = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // fixed season boundary

var validate = validator.New() //nolint:gochecknoglobals // validator caches struct metadata

// Filter narrows a ledger query. Empty fields mean "all".
type Filter struct {
	EventType string `json:"event_type" validate:"omitempty,oneof=all goal assist card cleansheet substitution"`
	TimeRange string `json:"time_range" validate:"omitempty,oneof=all 7days 30days season"`
	Player    string `json:"player" validate:"omitempty,max=64"`
}

// Normalize lowercases the enum fields and fills in defaults.
func (f Filter) Normalize() Filter {
	f.EventType = orAll(strings.ToLower(strings.TrimSpace(f.EventType)))
	f.TimeRange = orAll(strings.ToLower(strings.TrimSpace(f.TimeRange)))
	f.Player = orAll(strings.TrimSpace(f.Player))
	return f
}

// Validate checks the filter against the allowed values.
func (f Filter) Validate(ctx context.Context) error {
	if err := validate.StructCtx(ctx, f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return nil
}

// Since returns the lower bound on occurrence time implied by the range, or
// the zero time when unbounded.
func (f Filter) Since(now time.Time) time.Time {
	switch f.TimeRange {
	case Range7Days:
		return now.Add(-7 * 24 * time.Hour)
	case Range30Days:
		return now.Add(-30 * 24 * time.Hour)
	case RangeSeason:
		return SeasonStart
	default:
		return time.Time{}
	}
}

// Match reports whether e passes every filter dimension. f must be normalized.
func (f Filter) Match(e model.LedgerEntry, now time.Time) bool {
	if f.EventType != All && string(e.Type) != f.EventType {
		return false
	}
	if since := f.Since(now); !since.IsZero() && e.OccurredAt.Before(since) {
		return false
	}
	return f.Player == All || MatchPlayer(f.Player, e.Player)
}

// Apply returns the entries that match, preserving order.
func (f Filter) Apply(entries []model.LedgerEntry, now time.Time) []model.LedgerEntry {
	f = f.Normalize()
	out := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e, now) {
			out = append(out, e)
		}
	}
	return out
}

// MatchPlayer compares a filter value against a full player name. The value
// may be the full name or a surname slug; accents and case are ignored.
func MatchPlayer(value, name string) bool {
	want := Slug(value)
	if want == "" {
		return false
	}
	full := Slug(name)
	if want == full {
		return true
	}
	parts := strings.Fields(full)
	return len(parts) > 0 && parts[len(parts)-1] == want
}

// Slug lowercases s and strips diacritics: "Stephen Eustáquio" -> "stephen eustaquio".
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func orAll(s string) string {
	if s == "" {
		return All
	}
	return s
}
