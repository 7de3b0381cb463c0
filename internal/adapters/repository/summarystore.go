package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/okian/vertexntuples/internal/domain/analyzer"
	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/pkg/metrics"
	"go-hep.org/x/hep/hbook"
)

// Default store configuration.
const (
	DefaultBins         = 10
	DefaultXMax         = 10.0
	DefaultMaxSummaries = 100000
)

var histogramTitles = []struct{ name, title string }{ //nolint:gochecknoglobals // fixed histogram layout
	{HistGenVertices, "generator vertices per event"},
	{HistGenVerticesSimMatched, "sim-matched generator vertices per event"},
	{HistGenVerticesNoNeutrino, "neutrino-free generator vertices per event"},
	{HistGenVerticesNoNeutrinoSimMatched, "neutrino-free sim-matched generator vertices per event"},
	{HistGoodJets, "selected jets per event"},
	{HistGenMatchedJets, "gen-matched jets per event"},
}

// SummaryStore is the in-memory Store. Summaries live in an LRU so memory
// stays bounded on long runs; histograms are never evicted.
type SummaryStore struct {
	bins         int
	xmax         float64
	maxSummaries int

	mu        sync.RWMutex
	summaries *lru.Cache[model.EventKey, analyzer.Summary]
	hists     map[string]*hbook.H1D
	totals    Totals
}

var _ Store = (*SummaryStore)(nil)

// NewSummaryStore constructs a store with configuration options.
func NewSummaryStore(opts ...Option) (*SummaryStore, error) {
	s := &SummaryStore{
		bins:         DefaultBins,
		xmax:         DefaultXMax,
		maxSummaries: DefaultMaxSummaries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bins <= 0 || !(s.xmax > 0) {
		return nil, fmt.Errorf("%w: %d bins up to %g", ErrInvalidHistogram, s.bins, s.xmax)
	}

	cache, err := lru.New[model.EventKey, analyzer.Summary](s.maxSummaries)
	if err != nil {
		return nil, fmt.Errorf("summary cache: %w", err)
	}
	s.summaries = cache

	s.hists = make(map[string]*hbook.H1D, len(histogramTitles))
	for _, h := range histogramTitles {
		s.hists[h.name] = hbook.NewH1D(s.bins, 0, s.xmax)
	}
	metrics.UpdateStoredEvents(0)
	return s, nil
}

// Record implements Store.
func (s *SummaryStore) Record(_ context.Context, sum analyzer.Summary) error { //nolint:gocritic // hugeParam: summaries are stored by value
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summaries.Contains(sum.Key) {
		return fmt.Errorf("%w: %s", ErrAlreadyRecorded, sum.Key)
	}
	s.summaries.Add(sum.Key, sum)

	s.totals.Events++
	if sum.HasVertices() {
		counts := sum.VertexCounts()
		names := [4]string{HistGenVertices, HistGenVerticesSimMatched, HistGenVerticesNoNeutrino, HistGenVerticesNoNeutrinoSimMatched}
		for i, n := range counts {
			s.hists[names[i]].Fill(float64(n), 1)
			s.totals.GenVertices[i] += int64(n)
		}
	} else {
		s.totals.MissingPrimaryVertex++
	}
	s.hists[HistGoodJets].Fill(float64(sum.GoodJets), 1)
	s.hists[HistGenMatchedJets].Fill(float64(sum.GenMatchedJets), 1)
	s.totals.GoodJets += int64(sum.GoodJets)
	s.totals.GenMatchedJets += int64(sum.GenMatchedJets)

	metrics.UpdateStoredEvents(s.summaries.Len())
	return nil
}

// Get implements Store.
func (s *SummaryStore) Get(_ context.Context, key model.EventKey) (analyzer.Summary, error) {
	// Peek leaves the recency order alone; lookups must not keep old
	// events alive at the expense of new ones.
	sum, ok := s.summaries.Peek(key)
	if !ok {
		return analyzer.Summary{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return sum, nil
}

// Histograms implements Store.
func (s *SummaryStore) Histograms(_ context.Context) []Histogram {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Histogram, 0, len(histogramTitles))
	for _, h := range histogramTitles {
		out = append(out, snapshot(h.name, h.title, s.hists[h.name]))
	}
	return out
}

// Totals implements Store.
func (s *SummaryStore) Totals(_ context.Context) Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals
}

// Count implements Store.
func (s *SummaryStore) Count(_ context.Context) int {
	return s.summaries.Len()
}

// Close releases nothing today; it keeps the store shaped like the other
// adapters the service shuts down.
func (s *SummaryStore) Close() error {
	return nil
}

func snapshot(name, title string, h *hbook.H1D) Histogram {
	out := Histogram{
		Name:    name,
		Title:   title,
		Entries: h.Entries(),
		Bins:    make([]Bin, len(h.Binning.Bins)),
	}
	if out.Entries > 0 {
		out.Mean = h.XMean()
	}
	var inRange int64
	for i, b := range h.Binning.Bins {
		out.Bins[i] = Bin{Low: b.XMin(), High: b.XMax(), Entries: b.Entries()}
		inRange += b.Entries()
	}
	// Counts are never negative, so everything outside the bins overflowed.
	out.Overflow = out.Entries - inRange
	return out
}
