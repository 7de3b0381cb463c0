// Package repository keeps per-event analysis summaries and the multiplicity
// histograms filled from them.
package repository

import (
	"context"

	"github.com/okian/vertexntuples/internal/domain/analyzer"
	"github.com/okian/vertexntuples/internal/domain/model"
)

// Histogram names, one per filled quantity.
const (
	HistGenVertices                     = "nGV"
	HistGenVerticesSimMatched           = "nGVs"
	HistGenVerticesNoNeutrino           = "nGVn"
	HistGenVerticesNoNeutrinoSimMatched = "nGVns"
	HistGoodJets                        = "nGoodJet"
	HistGenMatchedJets                  = "nGenMatchedJet"
)

// Histogram is a read-only copy of one filled histogram.
type Histogram struct {
	Name     string  `json:"name"`
	Title    string  `json:"title"`
	Entries  int64   `json:"entries"`
	Mean     float64 `json:"mean"`
	Overflow int64   `json:"overflow"`
	Bins     []Bin   `json:"bins"`
}

// Bin is one histogram bin covering [Low, High).
type Bin struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Entries int64   `json:"entries"`
}

// Totals aggregates every recorded event.
type Totals struct {
	Events               int64    `json:"events"`
	MissingPrimaryVertex int64    `json:"missing_primary_vertex"`
	GenVertices          [4]int64 `json:"gen_vertices"`
	GoodJets             int64    `json:"good_jets"`
	GenMatchedJets       int64    `json:"gen_matched_jets"`
}

// Store provides read/write access to analysis results.
type Store interface {
	// Record adds one event's summary and fills the histograms. It returns
	// ErrAlreadyRecorded if the key is still retained.
	Record(ctx context.Context, s analyzer.Summary) error

	// Get returns the summary for key, or ErrNotFound.
	Get(ctx context.Context, key model.EventKey) (analyzer.Summary, error)

	// Histograms returns copies of all histograms in a fixed order.
	Histograms(ctx context.Context) []Histogram

	// Totals returns the running totals.
	Totals(ctx context.Context) Totals

	// Count returns the number of retained summaries.
	Count(ctx context.Context) int
}
