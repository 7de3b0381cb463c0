package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/vertexntuples/internal/adapters/repository"
	service "github.com/okian/vertexntuples/internal/app"
	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/internal/testevents"
	. "github.com/smartystreets/goconvey/convey"
)

// expectFromStore mirrors a stored summary into the generator's terms.
func expectFromStore(ctx context.Context, svc *service.Service, key model.EventKey) (testevents.Expectation, error) {
	sum, err := svc.Summary(ctx, key)
	if err != nil {
		return testevents.Expectation{}, err
	}
	return testevents.Expectation{
		Key:                  sum.Key,
		MissingPrimaryVertex: !sum.HasVertices(),
		GenVertices:          sum.VertexCounts(),
		GoodJets:             sum.GoodJets,
		GenMatchedJets:       sum.GenMatchedJets,
	}, nil
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service fed with generated events", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(1000),
			service.WithDedupeSize(500),
		)
		So(svc.Start(ctx), ShouldBeNil)

		events, exps := testevents.NewGenerator(21, 7, testevents.WithMissingPrimaryRate(0.05)).Events(ctx, 400)
		var want testevents.Tally
		for i := range events {
			So(svc.Enqueue(ctx, events[i]), ShouldBeTrue)
			want.Add(exps[i])
		}
		svc.Stop()

		Convey("Then every event summary matches its expectation", func() {
			for _, exp := range exps {
				got, err := expectFromStore(ctx, svc, exp.Key)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, exp)
			}
		})

		Convey("And the totals equal the summed expectations", func() {
			totals, err := svc.Totals(ctx)
			So(err, ShouldBeNil)
			So(totals.Events, ShouldEqual, want.Events)
			So(totals.MissingPrimaryVertex, ShouldEqual, want.MissingPrimaryVertex)
			So(totals.GenVertices, ShouldEqual, want.GenVertices)
			So(totals.GoodJets, ShouldEqual, want.GoodJets)
			So(totals.GenMatchedJets, ShouldEqual, want.GenMatchedJets)
		})

		Convey("And the nGV histogram holds one entry per event with a primary vertex", func() {
			hs, err := svc.Histograms(ctx)
			So(err, ShouldBeNil)
			So(hs, ShouldHaveLength, 6)

			var nGV repository.Histogram
			for _, h := range hs {
				if h.Name == repository.HistGenVertices {
					nGV = h
				}
			}
			So(nGV.Entries, ShouldEqual, want.Events-want.MissingPrimaryVertex)
			So(nGV.Overflow, ShouldEqual, 0)
			for k, n := range want.Multiplicity {
				So(nGV.Bins[k].Entries, ShouldEqual, n)
			}
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(5000))
		So(svc.Start(ctx), ShouldBeNil)

		events, _ := testevents.NewGenerator(5, 3).Events(ctx, 200)

		Convey("When many goroutines submit the same events", func() {
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				accepted int
			)
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range events {
						if svc.SeenAndRecord(ctx, events[i].Key) {
							continue
						}
						if svc.Enqueue(ctx, events[i]) {
							mu.Lock()
							accepted++
							mu.Unlock()
						} else {
							svc.Unrecord(ctx, events[i].Key)
						}
					}
				}()
			}
			wg.Wait()
			svc.Stop()

			Convey("Then each event is analyzed exactly once", func() {
				So(accepted, ShouldEqual, len(events))
				totals, err := svc.Totals(ctx)
				So(err, ShouldBeNil)
				So(totals.Events, ShouldEqual, len(events))
			})
		})
	})
}

func TestServiceErrorHandling(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("An event without any collections is recorded with zero counts", func() {
			key := model.EventKey{Run: 9, Event: 1}
			So(svc.Enqueue(ctx, model.Event{Key: key, PrimaryVertices: []model.Vertex{{}}}), ShouldBeTrue)
			svc.Stop()

			sum, err := svc.Summary(ctx, key)
			So(err, ShouldBeNil)
			So(sum.VertexCounts(), ShouldEqual, [4]int{})
			So(sum.VertexError, ShouldBeEmpty)
		})

		Convey("An event without a primary vertex is kept with its jets", func() {
			key := model.EventKey{Run: 9, Event: 2}
			So(svc.Enqueue(ctx, model.Event{Key: key}), ShouldBeTrue)
			svc.Stop()

			sum, err := svc.Summary(ctx, key)
			So(err, ShouldBeNil)
			So(sum.HasVertices(), ShouldBeFalse)
			totals, err := svc.Totals(ctx)
			So(err, ShouldBeNil)
			So(totals.MissingPrimaryVertex, ShouldEqual, 1)
		})

		Convey("The same key enqueued twice is stored once", func() {
			ev := decayEvent(3)
			So(svc.Enqueue(ctx, ev), ShouldBeTrue)
			So(svc.Enqueue(ctx, ev), ShouldBeTrue)
			svc.Stop()

			totals, err := svc.Totals(ctx)
			So(err, ShouldBeNil)
			So(totals.Events, ShouldEqual, 1)
		})

		Convey("Unknown keys report not found", func() {
			defer svc.Stop()
			_, err := svc.Summary(ctx, model.EventKey{Run: 404})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
