package testevents

import (
	"context"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/vertexntuples/internal/domain/analyzer"
	"github.com/okian/vertexntuples/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		ctx := context.Background()
		a, err := analyzer.New()
		So(err, ShouldBeNil)

		Convey("Every event analyzes to its expectation", func() {
			gen := NewGenerator(7, 42, WithMissingPrimaryRate(0.1))
			events, exps := gen.Events(ctx, 300)
			So(events, ShouldHaveLength, 300)

			var sawVertex, sawMissing, sawMatched bool
			for i, ev := range events {
				res, err := a.Analyze(ctx, ev)
				exp := exps[i]
				if exp.MissingPrimaryVertex {
					sawMissing = true
					So(analyzer.IsPartial(err), ShouldBeTrue)
				} else {
					So(err, ShouldBeNil)
				}
				got := Expectation{
					Key:                  res.Summary.Key,
					MissingPrimaryVertex: !res.Summary.HasVertices(),
					GenVertices:          res.Summary.VertexCounts(),
					GoodJets:             res.Summary.GoodJets,
					GenMatchedJets:       res.Summary.GenMatchedJets,
				}
				So(cmp.Diff(exp, got), ShouldBeEmpty)
				sawVertex = sawVertex || exp.GenVertices[0] > 0
				sawMatched = sawMatched || exp.GenMatchedJets > 0
			}
			So(sawVertex, ShouldBeTrue)
			So(sawMissing, ShouldBeTrue)
			So(sawMatched, ShouldBeTrue)
		})

		Convey("Every event carries the primary cluster, a stray particle and one without a position", func() {
			gen := NewGenerator(3, 1)
			ev, _ := gen.Event(1)
			res, err := a.Analyze(ctx, ev)
			So(err, ShouldBeNil)
			So(res.Summary.VertexStats.NearPrimary, ShouldEqual, 1)
			So(res.Summary.VertexStats.MalformedPositions, ShouldEqual, 1)
		})

		Convey("The same seed reproduces the same events", func() {
			e1, x1 := NewGenerator(11, 5).Events(ctx, 20)
			e2, x2 := NewGenerator(11, 5).Events(ctx, 20)
			So(cmp.Diff(x1, x2), ShouldBeEmpty)
			So(len(e1), ShouldEqual, len(e2))
			for i := range e1 {
				So(len(e1[i].GenParticles), ShouldEqual, len(e2[i].GenParticles))
				So(len(e1[i].Jets), ShouldEqual, len(e2[i].Jets))
			}
		})

		Convey("Keys are consecutive within the run and lumi", func() {
			events, _ := NewGenerator(1, 9, WithLumi(4)).Events(ctx, 3)
			for i, ev := range events {
				So(ev.Key.Run, ShouldEqual, 9)
				So(ev.Key.Lumi, ShouldEqual, 4)
				So(ev.Key.Event, ShouldEqual, i+1)
			}
		})

		Convey("A missing-primary rate of one drops every primary vertex", func() {
			events, exps := NewGenerator(2, 1, WithMissingPrimaryRate(1)).Events(ctx, 10)
			for i := range events {
				So(events[i].PrimaryVertices, ShouldBeEmpty)
				So(exps[i].MissingPrimaryVertex, ShouldBeTrue)
				So(exps[i].GenVertices, ShouldEqual, [4]int{})
			}
		})

		Convey("Out of range missing-primary rates are ignored", func() {
			g := NewGenerator(2, 1, WithMissingPrimaryRate(1.5))
			So(g.missingPV, ShouldEqual, 0)
		})
	})
}

func TestTally(t *testing.T) {
	Convey("Tally sums expectations and skips vertex counts of partial events", t, func() {
		var tally Tally
		tally.Add(Expectation{GenVertices: [4]int{2, 1, 1, 0}, GoodJets: 3, GenMatchedJets: 2})
		tally.Add(Expectation{GenVertices: [4]int{2, 2, 2, 2}, GoodJets: 1})
		tally.Add(Expectation{MissingPrimaryVertex: true, GoodJets: 1})

		So(tally.Events, ShouldEqual, 3)
		So(tally.MissingPrimaryVertex, ShouldEqual, 1)
		So(tally.GenVertices, ShouldEqual, [4]int64{4, 3, 3, 2})
		So(tally.GoodJets, ShouldEqual, 5)
		So(tally.GenMatchedJets, ShouldEqual, 2)
		So(tally.Multiplicity[2], ShouldEqual, 2)
		So(tally.Multiplicity[0], ShouldEqual, 0)
	})
}
