package main

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/canmnt/internal/adapters/pubsub"
	app "github.com/okian/canmnt/internal/app"
	"github.com/okian/canmnt/internal/config"
	"github.com/okian/canmnt/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestBuildAdapters(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When building adapters", func() {
			ad, err := buildAdapters(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer ad.close(ctx)

			convey.Convey("Then mock mode and in-process backends are used", func() {
				convey.So(ad.fetcher, convey.ShouldBeNil)
				convey.So(ad.snapshots, convey.ShouldNotBeNil)
				convey.So(ad.broadcaster, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When an upstream URL is configured", func() {
			cfg.UpstreamURL = "http://127.0.0.1:1"
			ad, err := buildAdapters(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer ad.close(ctx)

			convey.Convey("Then an HTTP fetcher is built", func() {
				convey.So(ad.fetcher, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the redis URL is malformed", func() {
			cfg.RedisURL = "not-a-url"
			_, err := buildAdapters(ctx, cfg)

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a service in mock mode behind the full router", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		svc, err := app.New(app.WithLogger(logger.Nop()))
		convey.So(err, convey.ShouldBeNil)
		h := newHandler(ctx, cfg, svc)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then the API, docs and dashboard are all served", func() {
			convey.So(get("/api/roster-tiers").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/countdown").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/ledger").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/").Body.String(), convey.ShouldContainSubstring, "CanMNT 26 War Room")
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given a service", t, func() {
		svc, err := app.New(app.WithLogger(logger.Nop()))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the updater returns once its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}

func TestServerShutdownWithOpenStream(t *testing.T) {
	convey.Convey("Given a server with a viewer on the live stream", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		streams := pubsub.New()
		svc, err := app.New(app.WithLogger(logger.Nop()), app.WithBroadcaster(streams))
		convey.So(err, convey.ShouldBeNil)

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		srv := newServer(ln.Addr().String(), newHandler(ctx, cfg, svc), streams)
		go func() { _ = srv.Serve(ln) }()

		resp, err := http.Get("http://" + ln.Addr().String() + "/api/live-pulse/stream")
		convey.So(err, convey.ShouldBeNil)
		defer resp.Body.Close()
		line, err := bufio.NewReader(resp.Body).ReadString('\n')
		convey.So(err, convey.ShouldBeNil)
		convey.So(line, convey.ShouldStartWith, "event: ")

		convey.Convey("When the server shuts down", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			started := time.Now()
			err := srv.Shutdown(shutdownCtx)

			convey.Convey("Then the stream is ended and shutdown completes promptly", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(time.Since(started), convey.ShouldBeLessThan, time.Second)
			})
		})

		_ = srv.Close()
	})
}
