package mock_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/canmnt/internal/adapters/mock"
	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/internal/domain/tiers"
	"github.com/smartystreets/goconvey/convey"
)

func TestMockDataset(t *testing.T) {
	now := time.Date(2025, 12, 14, 20, 0, 0, 0, time.UTC)

	convey.Convey("Given the mock dataset", t, func() {
		convey.Convey("Then the live feed has eight valid events, newest first", func() {
			events := mock.LiveEvents()
			convey.So(events, convey.ShouldHaveLength, 8)
			var prev time.Time
			for i, e := range events {
				convey.So(e.Type.IsLive(), convey.ShouldBeTrue)
				at, err := model.ParseRelative(e.Timestamp, now)
				convey.So(err, convey.ShouldBeNil)
				if i > 0 {
					convey.So(at.After(prev), convey.ShouldBeFalse)
				}
				prev = at
			}
		})

		convey.Convey("Then the season stats classify into every tier but cold", func() {
			board := tiers.Classify(mock.Players())
			convey.So(len(board.Locks), convey.ShouldEqual, 6)
			convey.So(len(board.Probables), convey.ShouldEqual, 6)
			convey.So(len(board.Bubble), convey.ShouldEqual, 2)
			convey.So(board.Cold, convey.ShouldBeEmpty)
			convey.So(board.Locks[0].Name, convey.ShouldEqual, "Jonathan David")
		})

		convey.Convey("Then season stats can be narrowed to one player", func() {
			resp := mock.SeasonStats("cyle larin", now)
			convey.So(resp.Count, convey.ShouldEqual, 1)
			convey.So(resp.Season, convey.ShouldEqual, model.CurrentSeason)
			for _, p := range resp.Players {
				convey.So(p.Player, convey.ShouldEqual, "Cyle Larin")
			}
			convey.So(mock.SeasonStats("Nobody", now).Count, convey.ShouldEqual, 0)
			convey.So(mock.SeasonStats("", now).Count, convey.ShouldEqual, 14)
		})

		convey.Convey("Then the ledger history ends before now and keeps its spacing", func() {
			rows := mock.LedgerHistory(now)
			convey.So(rows, convey.ShouldHaveLength, 8)
			convey.So(rows[0].OccurredAt.Before(now), convey.ShouldBeTrue)
			convey.So(now.Sub(rows[0].OccurredAt), convey.ShouldEqual, 9*time.Hour+30*time.Minute)
			convey.So(rows[0].OccurredAt.Sub(rows[1].OccurredAt), convey.ShouldEqual, 2*time.Hour+15*time.Minute)
			seen := map[string]bool{}
			for _, r := range rows {
				convey.So(seen[r.Key], convey.ShouldBeFalse)
				seen[r.Key] = true
				convey.So(r.Source, convey.ShouldEqual, model.SourceMock)
			}
		})
	})
}

func TestSource(t *testing.T) {
	convey.Convey("Given a mock source with a fixed clock", t, func() {
		fixed := time.Date(2025, 12, 14, 20, 0, 0, 0, time.UTC)
		src := mock.NewSource(func() time.Time { return fixed })

		live, err := src.LivePulse(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(live.LastUpdated, convey.ShouldEqual, "2025-12-14T20:00:00Z")

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := src.SeasonStats(ctx, "")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
