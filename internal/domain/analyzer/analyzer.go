// Package analyzer runs the vertex and jet builders over one event and
// condenses their output into a Summary.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/vertexntuples/internal/domain/genvertex"
	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/internal/domain/recojet"
)

// Summary is what the service keeps for each analyzed event.
type Summary struct {
	Key model.EventKey `json:"key"`

	GenVertices                     int `json:"n_gv"`
	GenVerticesSimMatched           int `json:"n_gv_sim_matched"`
	GenVerticesNoNeutrino           int `json:"n_gv_no_neutrino"`
	GenVerticesNoNeutrinoSimMatched int `json:"n_gv_no_neutrino_sim_matched"`

	GoodJets          int `json:"good_jets"`
	GenMatchedJets    int `json:"gen_matched_jets"`
	SecondaryVertices int `json:"secondary_vertices"`

	VertexStats genvertex.Stats `json:"vertex_stats"`
	JetStats    recojet.Stats   `json:"jet_stats"`

	// VertexError is set when the vertex builder could not run; the vertex
	// counts are then zero and the jet fields are still filled.
	VertexError string `json:"vertex_error,omitempty"`
}

// HasVertices reports whether the vertex counts are meaningful.
func (s Summary) HasVertices() bool {
	return s.VertexError == ""
}

// VertexCounts returns the four collection sizes in All, SimMatched,
// NoNeutrino, NoNeutrinoSimMatched order.
func (s Summary) VertexCounts() [4]int {
	return [4]int{s.GenVertices, s.GenVerticesSimMatched, s.GenVerticesNoNeutrino, s.GenVerticesNoNeutrinoSimMatched}
}

// Result carries the full builder output alongside the Summary.
type Result struct {
	Summary  Summary
	Vertices genvertex.Collections
	Jets     recojet.Collections
}

// Analyzer owns one builder of each kind. It must not be shared between
// goroutines; each event stream constructs its own.
type Analyzer struct {
	vertexCfg genvertex.Config
	jetCfg    recojet.Config

	vertices *genvertex.Builder
	jets     *recojet.Builder
}

// New creates an Analyzer. Builder configurations default to the production
// constants and are validated here.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		vertexCfg: genvertex.DefaultConfig(),
		jetCfg:    recojet.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}

	var err error
	if a.vertices, err = genvertex.New(a.vertexCfg); err != nil {
		return nil, fmt.Errorf("analyzer: vertex builder: %w", err)
	}
	if a.jets, err = recojet.New(a.jetCfg); err != nil {
		return nil, fmt.Errorf("analyzer: jet builder: %w", err)
	}
	return a, nil
}

// Analyze runs both builders on ev. A missing primary vertex is returned as
// an error, but the Result is still complete apart from the vertex part and
// should be recorded. A cancelled context aborts before any work is done.
func (a *Analyzer) Analyze(ctx context.Context, ev model.Event) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{
		Summary: Summary{
			Key:               ev.Key,
			SecondaryVertices: len(ev.SecondaryVertices),
		},
	}

	vertices, vertexErr := a.vertices.Build(ev.GenParticles, ev.SimTracks, ev.PrimaryVertices)
	if vertexErr != nil {
		res.Summary.VertexError = vertexErr.Error()
	} else {
		res.Vertices = vertices
		counts := vertices.Counts()
		res.Summary.GenVertices = counts[0]
		res.Summary.GenVerticesSimMatched = counts[1]
		res.Summary.GenVerticesNoNeutrino = counts[2]
		res.Summary.GenVerticesNoNeutrinoSimMatched = counts[3]
		res.Summary.VertexStats = vertices.Stats
	}

	res.Jets = a.jets.Build(ev.Jets, ev.GenJetFlavourInfo)
	res.Summary.GoodJets = len(res.Jets.GoodJets)
	res.Summary.GenMatchedJets = len(res.Jets.GenMatched)
	res.Summary.JetStats = res.Jets.Stats

	if vertexErr != nil {
		return res, fmt.Errorf("analyze %s: %w", ev.Key, vertexErr)
	}
	return res, nil
}

// IsPartial reports whether err from Analyze still came with a usable Result.
func IsPartial(err error) bool {
	return errors.Is(err, genvertex.ErrMissingPrimaryVertex)
}
