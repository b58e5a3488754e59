package refresher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/canmnt/internal/adapters/snapshot"
	"github.com/okian/canmnt/pkg/logger"
)

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

type manualClock struct {
	mu       sync.Mutex
	now      time.Time
	ticker   *manualTicker
	interval time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 12, 14, 20, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
	c.ticker = &manualTicker{ch: make(chan time.Time)}
	return c.ticker
}

func (c *manualClock) tickInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

func (c *manualClock) currentTicker() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker
}

// tick advances the clock one interval and hands the tick to the loop.
func (c *manualClock) tick(t *testing.T) {
	t.Helper()
	waitFor(t, func() bool { return c.currentTicker() != nil })
	c.mu.Lock()
	c.now = c.now.Add(c.interval)
	now, tk := c.now, c.ticker
	c.mu.Unlock()
	select {
	case tk.ch <- now:
	case <-time.After(2 * time.Second):
		t.Fatal("polling loop did not accept tick")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

type payload struct {
	Items []string `json:"items"`
}

// scriptedFetch returns results in order, repeating the last one.
type scriptedFetch struct {
	mu      sync.Mutex
	calls   int
	results []error
	data    []payload
}

func (f *scriptedFetch) fetch(_ context.Context) (payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	if f.results[i] != nil {
		return payload{}, f.results[i]
	}
	return f.data[i], nil
}

func (f *scriptedFetch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestRefresher(t *testing.T, f *scriptedFetch, clock Clock, mutate func(*Config[payload])) *Refresher[payload] {
	t.Helper()
	cfg := Config[payload]{
		Name:         "test",
		Fetch:        f.fetch,
		Fallback:     payload{Items: []string{"mock"}},
		Interval:     time.Minute,
		ErrorMessage: "Unable to load live events",
		Clock:        clock,
		Logger:       logger.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	return r
}

func TestNew(t *testing.T) {
	Convey("Given refresher configs", t, func() {
		fetch := func(context.Context) (int, error) { return 1, nil }

		_, err := New(Config[int]{Fetch: fetch, Logger: logger.Nop()})
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)

		_, err = New(Config[int]{Name: "x", Logger: logger.Nop()})
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)

		_, err = New(Config[int]{Name: "x", Fetch: fetch, Interval: -time.Second, Logger: logger.Nop()})
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)

		r, err := New(Config[int]{Name: "x", Fetch: fetch, Fallback: 7, Logger: logger.Nop()})
		So(err, ShouldBeNil)

		Convey("Then the fallback is served before any fetch", func() {
			s := r.State()
			So(s.Data, ShouldEqual, 7)
			So(s.Stale, ShouldBeTrue)
			So(s.Source, ShouldEqual, SourceFallback)
			So(s.Attempts, ShouldEqual, 0)
		})
	})
}

func TestRunPolling(t *testing.T) {
	Convey("Given a running refresher with a manual clock", t, func() {
		clock := newManualClock()
		f := &scriptedFetch{
			results: []error{nil, nil, errors.New("connection refused"), nil},
			data:    []payload{{Items: []string{"a"}}, {Items: []string{"b"}}, {}, {Items: []string{"d"}}},
		}
		r := newTestRefresher(t, f, clock, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()
		defer cancel()

		waitFor(t, func() bool { return r.State().Attempts == 1 })
		waitFor(t, func() bool { return clock.currentTicker() != nil })

		Convey("Then it fetches once immediately", func() {
			s := r.State()
			So(f.count(), ShouldEqual, 1)
			So(s.Data.Items, ShouldResemble, []string{"a"})
			So(s.Stale, ShouldBeFalse)
			So(s.Error, ShouldBeEmpty)
			So(s.Source, ShouldEqual, SourceUpstream)
			So(clock.tickInterval(), ShouldEqual, time.Minute)
		})

		Convey("When one interval elapses", func() {
			clock.tick(t)
			waitFor(t, func() bool { return r.State().Attempts == 2 })

			Convey("Then exactly one more request is issued", func() {
				So(f.count(), ShouldEqual, 2)
				So(r.State().Data.Items, ShouldResemble, []string{"b"})
				So(r.State().LastSuccess, ShouldEqual, clock.Now())
			})

			Convey("When the next fetch fails", func() {
				clock.tick(t)
				waitFor(t, func() bool { return r.State().Attempts == 3 })

				Convey("Then the last good data is kept and the error is surfaced", func() {
					s := r.State()
					So(s.Data.Items, ShouldResemble, []string{"b"})
					So(s.Error, ShouldEqual, "Unable to load live events")
					So(s.Stale, ShouldBeTrue)
					So(s.Failures, ShouldEqual, 1)
					So(s.LastAttempt.After(s.LastSuccess), ShouldBeTrue)
				})

				Convey("Then a later success clears the error", func() {
					clock.tick(t)
					waitFor(t, func() bool { return r.State().Attempts == 4 })
					s := r.State()
					So(s.Error, ShouldBeEmpty)
					So(s.Stale, ShouldBeFalse)
					So(s.Data.Items, ShouldResemble, []string{"d"})
				})
			})
		})

		Convey("When the owning context is cancelled", func() {
			cancel()
			So(<-done, ShouldBeNil)

			Convey("Then the ticker is stopped and no further requests are issued", func() {
				So(clock.currentTicker().stopped.Load(), ShouldBeTrue)
				select {
				case clock.currentTicker().ch <- time.Now():
					So("tick was accepted after cancel", ShouldBeEmpty)
				case <-time.After(20 * time.Millisecond):
				}
				So(f.count(), ShouldEqual, 1)
			})
		})

		Convey("When Run is called twice", func() {
			So(errors.Is(r.Run(ctx), ErrAlreadyRunning), ShouldBeTrue)
		})
	})
}

func TestRunFailures(t *testing.T) {
	Convey("Given an upstream that is down from the start", t, func() {
		f := &scriptedFetch{results: []error{errors.New("dial tcp: refused")}, data: []payload{{}}}
		r := newTestRefresher(t, f, newManualClock(), nil)

		s := r.Refresh(context.Background())

		Convey("Then the fallback stays in place with an error", func() {
			So(s.Data.Items, ShouldResemble, []string{"mock"})
			So(s.Source, ShouldEqual, SourceFallback)
			So(s.Error, ShouldEqual, "Unable to load live events")
			So(s.Stale, ShouldBeTrue)
		})
	})

	Convey("Given an Accept predicate that rejects empty payloads", t, func() {
		f := &scriptedFetch{results: []error{nil}, data: []payload{{}}}
		r := newTestRefresher(t, f, newManualClock(), func(c *Config[payload]) {
			c.Accept = func(p payload) bool { return len(p.Items) > 0 }
		})

		s := r.Refresh(context.Background())

		Convey("Then the empty payload is ignored without an error", func() {
			So(s.Data.Items, ShouldResemble, []string{"mock"})
			So(s.Error, ShouldBeEmpty)
			So(s.Attempts, ShouldEqual, 1)
			So(s.Failures, ShouldEqual, 0)
		})
	})
}

func TestRunOnce(t *testing.T) {
	Convey("Given a refresher with a zero interval", t, func() {
		clock := newManualClock()
		f := &scriptedFetch{results: []error{nil}, data: []payload{{Items: []string{"x"}}}}
		r := newTestRefresher(t, f, clock, func(c *Config[payload]) { c.Interval = 0 })

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()

		waitFor(t, func() bool { return r.State().Attempts == 1 })
		time.Sleep(10 * time.Millisecond)
		cancel()

		Convey("Then it fetches once and never creates a ticker", func() {
			So(<-done, ShouldBeNil)
			So(f.count(), ShouldEqual, 1)
			So(clock.currentTicker(), ShouldBeNil)
		})
	})
}

func TestSnapshots(t *testing.T) {
	Convey("Given a snapshot store", t, func() {
		store := snapshot.NewMemory()
		ctx := context.Background()

		Convey("When a refresher succeeds", func() {
			f := &scriptedFetch{results: []error{nil}, data: []payload{{Items: []string{"saved"}}}}
			var updates []payload
			r := newTestRefresher(t, f, newManualClock(), func(c *Config[payload]) {
				c.Snapshots = store
				c.OnUpdate = func(_ context.Context, p payload) { updates = append(updates, p) }
			})
			r.Refresh(ctx)

			Convey("Then the payload is persisted and the hook fires", func() {
				raw, err := store.Load(ctx, "test")
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, "saved")
				So(updates, ShouldHaveLength, 1)
			})

			Convey("Then a new refresher starts from the snapshot", func() {
				down := &scriptedFetch{results: []error{errors.New("down")}, data: []payload{{}}}
				next := newTestRefresher(t, down, newManualClock(), func(c *Config[payload]) {
					c.Snapshots = store
					c.Interval = 0
				})

				runCtx, cancel := context.WithCancel(ctx)
				done := make(chan error, 1)
				go func() { done <- next.Run(runCtx) }()
				waitFor(t, func() bool { return next.State().Attempts == 1 })
				cancel()
				<-done

				s := next.State()
				So(s.Data.Items, ShouldResemble, []string{"saved"})
				So(s.Source, ShouldEqual, SourceSnapshot)
				So(s.Error, ShouldNotBeEmpty)
			})
		})
	})
}
