package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	err    error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory snapshot store", t, func() {
		s := NewMemory()

		Convey("When loading a missing snapshot", func() {
			_, err := s.Load(ctx, "live-pulse")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When saving then loading", func() {
			payload := []byte(`{"events":[]}`)
			So(s.Save(ctx, "live-pulse", payload), ShouldBeNil)
			payload[0] = 'X'

			got, err := s.Load(ctx, "live-pulse")

			Convey("Then the stored copy is returned", func() {
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, `{"events":[]}`)
			})
		})

		So(s.Close(), ShouldBeNil)
	})
}

func TestRedis(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Redis snapshot store", t, func() {
		fake := newFakeRedis()
		s := NewRedisWithClient(fake, time.Hour)

		Convey("When saving", func() {
			So(s.Save(ctx, "season-stats", []byte(`{"count":1}`)), ShouldBeNil)

			Convey("Then the key is namespaced and expires", func() {
				So(fake.data["canmnt:snapshot:season-stats"], ShouldEqual, `{"count":1}`)
				So(fake.ttls["canmnt:snapshot:season-stats"], ShouldEqual, time.Hour)
			})

			Convey("Then it loads back", func() {
				got, err := s.Load(ctx, "season-stats")
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, `{"count":1}`)
			})
		})

		Convey("When the key is missing", func() {
			_, err := s.Load(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When Redis is down", func() {
			fake.err = errors.New("connection refused")

			So(s.Save(ctx, "x", []byte("1")), ShouldNotBeNil)
			_, err := s.Load(ctx, "x")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrNotFound), ShouldBeFalse)
		})

		Convey("When closing", func() {
			So(s.Close(), ShouldBeNil)
			So(fake.closed, ShouldBeTrue)
		})
	})

	Convey("Given a malformed Redis URL", t, func() {
		_, err := NewRedis(ctx, "not-a-url://")
		So(err, ShouldNotBeNil)
	})
}
