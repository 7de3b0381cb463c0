package recojet

import (
	"math"

	"github.com/okian/vertexntuples/internal/domain/model"
	"go-hep.org/x/hep/fmom"
)

// Builder applies the jet cuts and generator matching. Like the vertex
// builder it holds only its configuration; one instance serves one stream.
type Builder struct {
	cfg Config
}

// New creates a Builder with validated cuts.
func New(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg}, nil
}

// Config returns the builder's cuts.
func (b *Builder) Config() Config {
	return b.cfg
}

// GoodJet reports whether p passes the pseudorapidity and transverse
// momentum window. All bounds are inclusive.
func (b *Builder) GoodJet(p *fmom.PxPyPzE) bool {
	pt := p.Pt()
	return math.Abs(p.Eta()) <= b.cfg.AbsEtaMax && pt >= b.cfg.JetPtMin && pt <= b.cfg.JetPtMax
}

// Build selects good jets and matches each one to the nearest generator jet
// in infos. Entries without a generator jet are skipped for matching only.
func (b *Builder) Build(jets []model.Jet, infos []model.JetFlavourInfo) Collections {
	out := Collections{
		GoodJets:   []RecoJet{},
		GenMatched: []RecoJet{},
		Stats:      Stats{Jets: len(jets)},
	}
	for i := range infos {
		if !infos[i].Valid() {
			out.Stats.MalformedFlavourInfo++
		}
	}

	for i := range jets {
		p4 := &jets[i].Momentum
		if !b.GoodJet(p4) {
			out.Stats.FailedSelection++
			continue
		}
		rj := RecoJet{
			Index:    i,
			Momentum: *p4,
			Pt:       p4.Pt(),
			Eta:      p4.Eta(),
			Phi:      p4.Phi(),
		}
		out.GoodJets = append(out.GoodJets, rj)

		match, ok := b.nearest(p4, infos)
		if !ok || match.DeltaR > b.cfg.DRCut {
			out.Stats.Unmatched++
			continue
		}
		rj.GenMatch = &match
		out.GenMatched = append(out.GenMatched, rj)
	}
	return out
}

// nearest returns the valid entry with the smallest ΔR to p4. Ties keep the
// earliest index.
func (b *Builder) nearest(p4 *fmom.PxPyPzE, infos []model.JetFlavourInfo) (GenMatch, bool) {
	best := GenMatch{Index: -1, DeltaR: math.Inf(1)}
	for i := range infos {
		info := &infos[i]
		if !info.Valid() {
			continue
		}
		dr := fmom.DeltaR(p4, &info.GenJet.Momentum)
		if dr < best.DeltaR {
			best = GenMatch{
				Index:         i,
				DeltaR:        dr,
				HadronFlavour: info.HadronFlavour,
				PartonFlavour: info.PartonFlavour,
				GenJet:        *info.GenJet,
			}
		}
	}
	return best, best.Index >= 0
}
