package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	app "github.com/okian/vertexntuples/internal/app"
	"github.com/okian/vertexntuples/internal/config"
	"github.com/okian/vertexntuples/pkg/logger"
	"github.com/okian/vertexntuples/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func setEnv(kv map[string]string) func() {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range kv {
			_ = os.Unsetenv(k)
		}
	}
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		defer setEnv(map[string]string{
			"VTX_QUEUE_SIZE":   "1000",
			"VTX_WORKER_COUNT": "2",
			"VTX_JET_PT_MIN":   "30",
		})()

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service is built from it", func() {
			svc := newService(cfg)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			stats := svc.GetStats()
			convey.So(stats["queueSize"], convey.ShouldEqual, 1000)
			convey.So(stats["workerCount"], convey.ShouldEqual, 2)

			convey.Convey("Then the mux serves the API and the docs", func() {
				ts := httptest.NewServer(newMux(ctx, cfg, svc))
				defer ts.Close()

				for _, path := range []string{"/healthz", "/stats", "/histograms", "/openapi.yaml", "/api-docs"} {
					resp, err := http.Get(ts.URL + path)
					convey.So(err, convey.ShouldBeNil)
					_ = resp.Body.Close()
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				}

				body := `{"key":{"run":1,"lumi":1,"event":1},"primary_vertices":[{"position":{"X":0,"Y":0,"Z":0}}]}`
				resp, err := http.Post(ts.URL+"/events", "application/json", strings.NewReader(body))
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
			})

			convey.Convey("And the metrics refresh does not panic", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		defer setEnv(map[string]string{"VTX_ADDR": ""})()

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a free local port", t, func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := l.Addr().String()
		convey.So(l.Close(), convey.ShouldBeNil)

		cfg := config.New(context.Background())
		cfg.Addr = addr
		cfg.WorkerCount = 1
		cfg.ShutdownTimeout = time.Second

		convey.Convey("When run is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()

			var up bool
			for i := 0; i < 50 && !up; i++ {
				resp, err := http.Get("http://" + addr + "/stats")
				if err == nil {
					_ = resp.Body.Close()
					up = resp.StatusCode == http.StatusOK
				}
				if !up {
					time.Sleep(20 * time.Millisecond)
				}
			}
			cancel()

			convey.Convey("Then it served and returns cleanly", func() {
				convey.So(up, convey.ShouldBeTrue)
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the service cannot start", func() {
			cfg.VertexTolerance = 0

			convey.Convey("Then run reports the error", func() {
				convey.So(run(context.Background(), cfg), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given an unstarted service", t, func() {
		svc := app.New()

		convey.Convey("Then the updater returns when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})

	convey.Convey("Given a private registry", t, func() {
		convey.Convey("Then a metrics manager can be created on it", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
