package probe

import (
	"fmt"

	"github.com/okian/canmnt/internal/domain/tiers"
	"github.com/okian/canmnt/internal/domain/types"
)

// Violation is one broken rule found in a served view.
type Violation struct {
	Rule   string
	Detail string
}

func (v Violation) String() string { return v.Rule + ": " + v.Detail }

// VerifyBoard checks that every player sits in the tier its form implies,
// that no player appears twice, and that each tier is sorted by form then raw
// rating descending with ties broken by name.
func VerifyBoard(view types.RosterTiers) []Violation {
	var out []Violation
	seen := make(map[string]tiers.Tier)

	for _, t := range tiers.Ordered {
		players := view.Tier(t)
		for i, p := range players {
			if got := tiers.TierOf(p.Form); got != t {
				out = append(out, Violation{"threshold", fmt.Sprintf("%s (form %d) listed in %s, expected %s", p.Name, p.Form, t, got)})
			}
			if r := tiers.RoundForm(p.FormRating); r != p.Form {
				out = append(out, Violation{"rounding", fmt.Sprintf("%s form %d does not match rating %.2f", p.Name, p.Form, p.FormRating)})
			}
			if prev, dup := seen[p.Name]; dup {
				out = append(out, Violation{"disjoint", fmt.Sprintf("%s listed in both %s and %s", p.Name, prev, t)})
			}
			seen[p.Name] = t

			if i == 0 {
				continue
			}
			if q := players[i-1]; ranksBelow(q, p) {
				out = append(out, Violation{"order", fmt.Sprintf("%s: %s (%.2f) ahead of %s (%.2f)", t, q.Name, q.FormRating, p.Name, p.FormRating)})
			}
		}
		if view.Counts != nil && view.Counts[t] != len(players) {
			out = append(out, Violation{"counts", fmt.Sprintf("%s count %d, listed %d", t, view.Counts[t], len(players))})
		}
	}
	return out
}

// ranksBelow reports whether q is listed ahead of p but should follow it.
func ranksBelow(q, p tiers.Player) bool {
	if q.Form != p.Form {
		return q.Form < p.Form
	}
	if q.FormRating != p.FormRating {
		return q.FormRating < p.FormRating
	}
	return q.Name > p.Name
}

// VerifyLedger checks the reported count and that entries run newest first.
func VerifyLedger(view types.Ledger) []Violation {
	var out []Violation
	if view.Count != len(view.Entries) {
		out = append(out, Violation{"count", fmt.Sprintf("count %d, listed %d", view.Count, len(view.Entries))})
	}
	for i := 1; i < len(view.Entries); i++ {
		if view.Entries[i].OccurredAt.After(view.Entries[i-1].OccurredAt) {
			out = append(out, Violation{"order", fmt.Sprintf("entry %d newer than entry %d", i, i-1)})
		}
	}
	return out
}
