package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/canmnt/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

const daviesGoal = "Alphonso Davies|Goal|Bayern Munich 3-1 Borussia Dortmund|67'"

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewMemory()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, daviesGoal)

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then recording it again reports a duplicate", func() {
				So(d.SeenAndRecord(ctx, daviesGoal), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then unrecording it allows a retry", func() {
				d.Unrecord(ctx, daviesGoal)
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, daviesGoal), ShouldBeFalse)
			})
		})

		Convey("When unrecording a key that was never recorded", func() {
			d.Unrecord(ctx, "missing")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewMemory(dedupe.WithMaxSize(3))
		for _, k := range []string{"k1", "k2", "k3"} {
			So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
		}

		Convey("When a fourth key arrives", func() {
			So(d.SeenAndRecord(ctx, "k4"), ShouldBeFalse)

			Convey("Then the oldest key is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
			})
		})

		Convey("When a middle key is unrecorded", func() {
			d.Unrecord(ctx, "k2")
			d.SeenAndRecord(ctx, "k4")

			Convey("Then no eviction is needed", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewMemory(dedupe.WithMaxSize(0))
		for i := 0; i < 20_000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
		}
		So(d.Size(), ShouldEqual, 20_000)
		So(d.SeenAndRecord(ctx, "k0"), ShouldBeTrue)
	})
}

func TestDeduperConcurrency(t *testing.T) {
	Convey("Given goroutines racing on the same keys", t, func() {
		d := dedupe.NewMemory()
		const workers = 8
		const keys = 200

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < keys; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("k%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is new exactly once", func() {
			So(fresh, ShouldEqual, keys)
			So(d.Size(), ShouldEqual, keys)
		})
	})
}
