package model

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Status codes used by the generator record.
const (
	StatusFinal = 1
)

// GenParticle is one entry of the generator particle arena. Mothers and
// Daughters hold indices into the same slice the particle lives in.
type GenParticle struct {
	PdgID       int          `json:"pdg_id"`
	Status      int          `json:"status"`
	Charge      int          `json:"charge"`
	Momentum    fmom.PxPyPzE `json:"-"`
	Vertex      *r3.Vec      `json:"vertex,omitempty"`
	DecayVertex *r3.Vec      `json:"decay_vertex,omitempty"`
	Mothers     []int        `json:"mothers,omitempty"`
	Daughters   []int        `json:"daughters,omitempty"`
}

// IsFinalState reports whether the particle is stable in the generator record.
func (p *GenParticle) IsFinalState() bool {
	return p.Status == StatusFinal
}

// IsNeutrino reports whether the identity code is one of the three neutrino flavours.
func (p *GenParticle) IsNeutrino() bool {
	return IsNeutrino(p.PdgID)
}

// HasValidVertex reports whether a finite production position was recorded.
func (p *GenParticle) HasValidVertex() bool {
	return p.Vertex != nil && IsFinite(*p.Vertex)
}

// IsNeutrino reports whether pdgID denotes nu_e, nu_mu or nu_tau (or their antiparticles).
func IsNeutrino(pdgID int) bool {
	switch pdgID {
	case 12, -12, 14, -14, 16, -16:
		return true
	}
	return false
}

// IsFinite reports whether none of v's coordinates is NaN or infinite.
func IsFinite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// SimTrack is a detector-simulation trajectory, independent of the generator tree.
type SimTrack struct {
	TrackID     int          `json:"track_id"`
	PdgID       int          `json:"pdg_id"`
	Charge      float64      `json:"charge"`
	Momentum    fmom.PxPyPzE `json:"-"`
	VertexIndex int          `json:"vertex_index"`
	Vertex      r3.Vec       `json:"vertex"`
}

// Vertex is a reconstructed vertex. Only Position takes part in the
// generator-vertex reference frame; the fit quality is carried for summaries.
type Vertex struct {
	Position r3.Vec  `json:"position"`
	Chi2     float64 `json:"chi2"`
	NDOF     float64 `json:"ndof"`
	NTracks  int     `json:"ntracks"`
	Fake     bool    `json:"fake"`
}
