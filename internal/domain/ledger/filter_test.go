package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/canmnt/internal/domain/ledger"
	"github.com/okian/canmnt/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2025, 12, 14, 20, 0, 0, 0, time.UTC)

func entry(player string, typ model.EventType, age time.Duration) model.LedgerEntry {
	return model.LedgerEntry{
		Key:        player + string(typ) + age.String(),
		Player:     player,
		Type:       typ,
		OccurredAt: now.Add(-age),
	}
}

func players(es []model.LedgerEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Player
	}
	return out
}

func TestFilterValidate(t *testing.T) {
	ctx := context.Background()

	Convey("Given ledger filters", t, func() {
		Convey("When values are in range", func() {
			for _, f := range []ledger.Filter{
				{},
				{EventType: "goal", TimeRange: "7days", Player: "davies"},
				{EventType: "CleanSheet", TimeRange: "Season"},
				{EventType: "substitution", TimeRange: "30days", Player: "Stephen Eustáquio"},
			} {
				So(f.Normalize().Validate(ctx), ShouldBeNil)
			}
		})

		Convey("When values are unknown", func() {
			for _, f := range []ledger.Filter{
				{EventType: "own_goal"},
				{TimeRange: "yesterday"},
				{Player: "a-very-long-player-name-that-nobody-on-the-roster-could-possibly-have"},
			} {
				err := f.Normalize().Validate(ctx)
				So(errors.Is(err, ledger.ErrInvalidFilter), ShouldBeTrue)
			}
		})

		Convey("When normalizing an empty filter", func() {
			f := ledger.Filter{}.Normalize()
			So(f, ShouldResemble, ledger.Filter{EventType: "all", TimeRange: "all", Player: "all"})
		})
	})
}

func TestFilterApply(t *testing.T) {
	Convey("Given a ledger", t, func() {
		entries := []model.LedgerEntry{
			entry("Alphonso Davies", model.EventGoal, 2*time.Hour),
			entry("Jonathan David", model.EventAssist, 3*24*time.Hour),
			entry("Stephen Eustáquio", model.EventCard, 10*24*time.Hour),
			entry("Cyle Larin", model.EventGoal, 40*24*time.Hour),
			entry("Alphonso Davies", model.EventAssist, 200*24*time.Hour),
		}

		Convey("When no filter is set", func() {
			So(len(ledger.Filter{}.Apply(entries, now)), ShouldEqual, 5)
		})

		Convey("When filtering by event type", func() {
			got := ledger.Filter{EventType: "goal"}.Apply(entries, now)
			So(players(got), ShouldResemble, []string{"Alphonso Davies", "Cyle Larin"})
		})

		Convey("When filtering by time range", func() {
			So(len(ledger.Filter{TimeRange: "7days"}.Apply(entries, now)), ShouldEqual, 2)
			So(len(ledger.Filter{TimeRange: "30days"}.Apply(entries, now)), ShouldEqual, 3)
			So(len(ledger.Filter{TimeRange: "season"}.Apply(entries, now)), ShouldEqual, 4)
		})

		Convey("When filtering by player slug", func() {
			So(players(ledger.Filter{Player: "davies"}.Apply(entries, now)), ShouldResemble, []string{"Alphonso Davies", "Alphonso Davies"})
			So(players(ledger.Filter{Player: "eustaquio"}.Apply(entries, now)), ShouldResemble, []string{"Stephen Eustáquio"})
			So(players(ledger.Filter{Player: "david"}.Apply(entries, now)), ShouldResemble, []string{"Jonathan David"})
			So(players(ledger.Filter{Player: "JONATHAN DAVID"}.Apply(entries, now)), ShouldResemble, []string{"Jonathan David"})
			So(ledger.Filter{Player: "koné"}.Apply(entries, now), ShouldBeEmpty)
		})

		Convey("When filters are combined", func() {
			got := ledger.Filter{EventType: "assist", TimeRange: "season", Player: "davies"}.Apply(entries, now)
			So(got, ShouldBeEmpty)

			got = ledger.Filter{EventType: "goal", TimeRange: "7days", Player: "davies"}.Apply(entries, now)
			So(players(got), ShouldResemble, []string{"Alphonso Davies"})
		})
	})
}

func TestSlug(t *testing.T) {
	Convey("Given accented names", t, func() {
		So(ledger.Slug("Stephen Eustáquio"), ShouldEqual, "stephen eustaquio")
		So(ledger.Slug("  Ismaël   Koné "), ShouldEqual, "ismael kone")
		So(ledger.Slug("CF Montréal"), ShouldEqual, "cf montreal")
		So(ledger.MatchPlayer("crepeau", "Maxime Crépeau"), ShouldBeTrue)
		So(ledger.MatchPlayer("", "Maxime Crépeau"), ShouldBeFalse)
	})
}
