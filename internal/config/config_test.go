package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/okian/vertexntuples/internal/config"
	"github.com/okian/vertexntuples/internal/domain/genvertex"
	"github.com/okian/vertexntuples/internal/domain/recojet"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.EventQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the builder projections carry the production constants", func() {
			convey.So(cfg.GenVertexConfig(), convey.ShouldResemble, genvertex.DefaultConfig())
			convey.So(cfg.RecoJetConfig(), convey.ShouldResemble, recojet.DefaultConfig())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting each", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"no workers":          func(c *config.Config) { c.WorkerCount = 0 },
			"no dedupe":           func(c *config.Config) { c.DedupeSize = -1 },
			"no summaries":        func(c *config.Config) { c.MaxSummaries = 0 },
			"no body":             func(c *config.Config) { c.MaxBodyBytes = 0 },
			"no bins":             func(c *config.Config) { c.HistogramBins = 0 },
			"negative hist max":   func(c *config.Config) { c.HistogramMax = -1 },
			"negative separation": func(c *config.Config) { c.MinPrimarySeparation = -1 },
			"negative dr cut":     func(c *config.Config) { c.DRCut = -0.1 },
		}
		for name, mutate := range cases {
			convey.Convey("Then validation rejects "+name, func() {
				cfg := config.New(context.Background())
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Builder errors keep their own sentinel", t, func() {
		cfg := config.New(context.Background())
		cfg.VertexTolerance = -1
		err := cfg.Validate()
		convey.So(errors.Is(err, genvertex.ErrInvalidConfig), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldStartWith, "vtx config: invalid setting: ")
	})
}
