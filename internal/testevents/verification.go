package testevents

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/vertexntuples/pkg/logger"
)

// serviceStats is the subset of GET /stats the verification reads.
type serviceStats struct {
	EventsAnalyzed       int64    `json:"eventsAnalyzed"`
	MissingPrimaryVertex int64    `json:"missingPrimaryVertex"`
	GenVertices          [4]int64 `json:"genVertices"`
	GoodJets             int64    `json:"goodJets"`
	GenMatchedJets       int64    `json:"genMatchedJets"`
	QueueLength          int      `json:"queueLength"`
}

type histogramBin struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Entries int64   `json:"entries"`
}

type histogram struct {
	Name     string         `json:"name"`
	Entries  int64          `json:"entries"`
	Overflow int64          `json:"overflow"`
	Bins     []histogramBin `json:"bins"`
}

// snapshot is the service state the run is measured against.
type snapshot struct {
	Stats      serviceStats
	Histograms map[string]histogram
}

func takeSnapshot(ctx context.Context, client *HTTPClient) (snapshot, error) {
	var snap snapshot
	if err := client.Get(ctx, "/stats", &snap.Stats); err != nil {
		return snap, err
	}
	var hs []histogram
	if err := client.Get(ctx, "/histograms", &hs); err != nil {
		return snap, err
	}
	snap.Histograms = make(map[string]histogram, len(hs))
	for _, h := range hs {
		snap.Histograms[h.Name] = h
	}
	return snap, nil
}

// waitForDrain polls /stats until want more events were analyzed than in
// base or the settle time runs out.
func waitForDrain(ctx context.Context, client *HTTPClient, base serviceStats, want int64, settle time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var cur serviceStats
		if err := client.Get(ctx, "/stats", &cur); err == nil && cur.EventsAnalyzed-base.EventsAnalyzed >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d events: %w", want, ctx.Err())
		case <-ticker.C:
		}
	}
}

// verifyResults compares what the service accumulated during the run with
// the generator's expectations.
func verifyResults(ctx context.Context, before, after snapshot, want Tally) []error {
	logger.Get().Info(ctx, "verifying results")

	var problems []error
	check := func(name string, got, exp int64) {
		if got != exp {
			problems = append(problems, fmt.Errorf("%s: got %d, want %d", name, got, exp))
		}
	}

	b, a := before.Stats, after.Stats
	check("events analyzed", a.EventsAnalyzed-b.EventsAnalyzed, want.Events)
	check("missing primary vertex", a.MissingPrimaryVertex-b.MissingPrimaryVertex, want.MissingPrimaryVertex)
	for i, name := range [4]string{"gen vertices", "sim-matched gen vertices", "neutrino-free gen vertices", "neutrino-free sim-matched gen vertices"} {
		check(name, a.GenVertices[i]-b.GenVertices[i], want.GenVertices[i])
	}
	check("good jets", a.GoodJets-b.GoodJets, want.GoodJets)
	check("gen-matched jets", a.GenMatchedJets-b.GenMatchedJets, want.GenMatchedJets)

	problems = append(problems, verifyMultiplicity(before.Histograms["nGV"], after.Histograms["nGV"], want)...)

	for _, p := range problems {
		logger.Get().Warn(ctx, "verification mismatch", logger.Error(p))
	}
	if len(problems) == 0 {
		logger.Get().Info(ctx, "result verification completed")
	}
	return problems
}

// verifyMultiplicity checks the filled nGV bins against the expected
// per-event vertex multiplicities.
func verifyMultiplicity(before, after histogram, want Tally) []error {
	if len(after.Bins) == 0 {
		return []error{fmt.Errorf("nGV histogram missing")}
	}
	var problems []error
	for i, bin := range after.Bins {
		var exp int64
		for k, n := range want.Multiplicity {
			if x := float64(k); x >= bin.Low && x < bin.High {
				exp += n
			}
		}
		got := bin.Entries
		if i < len(before.Bins) {
			got -= before.Bins[i].Entries
		}
		if got != exp {
			problems = append(problems, fmt.Errorf("nGV bin [%g,%g): got %d, want %d", bin.Low, bin.High, got, exp))
		}
	}
	return problems
}
