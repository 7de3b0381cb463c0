package testevents

import (
	"context"
	"math"
	"math/rand"

	"github.com/okian/vertexntuples/internal/domain/genvertex"
	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/internal/domain/recojet"
	"github.com/okian/vertexntuples/pkg/logger"
	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Decay-chain shape constants, lengths in cm and momenta in GeV.
const (
	maxDecaysPerEvent = 4
	minFlightLength   = 0.05
	maxFlightLength   = 3.0
	minDecaySpacing   = 0.01
	strayDistance     = 20.0
	pvSmear           = 1e-4

	maxJetsPerEvent = 6
	jetPtLow        = 5.0
	jetPtHigh       = 300.0
	jetEtaReach     = 3.5
	genJetSmear     = 0.25
	genJetFraction  = 0.7
	malformedInfo   = 0.1
	simTrackChance  = 0.5
)

// Decay modes. The daughter lists are PDG codes; a leading B meson is the
// mother produced at the interaction point.
const (
	modeHadronic2 = iota
	modeHadronic3
	modeSemileptonic
	modeLeptonic
	modeInvisible
	numModes
)

var decayDaughters = [numModes][]int{ //nolint:gochecknoglobals // fixed decay table
	modeHadronic2:    {211, -211},
	modeHadronic3:    {321, -211, 211},
	modeSemileptonic: {-13, 14, 211},
	modeLeptonic:     {13, -14},
	modeInvisible:    {12, -12},
}

// Expectation is what the analysis must report for one generated event.
type Expectation struct {
	Key                  model.EventKey
	MissingPrimaryVertex bool
	GenVertices          [4]int
	GoodJets             int
	GenMatchedJets       int
}

// Tally sums expectations so they can be compared with the service totals.
type Tally struct {
	Events               int64    `json:"events"`
	MissingPrimaryVertex int64    `json:"missing_primary_vertex"`
	GenVertices          [4]int64 `json:"gen_vertices"`
	GoodJets             int64    `json:"good_jets"`
	GenMatchedJets       int64    `json:"gen_matched_jets"`
	// Multiplicity counts events per all-vertex multiplicity, indexed by count.
	Multiplicity [maxDecaysPerEvent + 1]int64 `json:"multiplicity"`
}

// Add folds one expectation into the tally.
func (t *Tally) Add(e Expectation) {
	t.Events++
	if e.MissingPrimaryVertex {
		t.MissingPrimaryVertex++
	} else {
		for i, n := range e.GenVertices {
			t.GenVertices[i] += int64(n)
		}
		t.Multiplicity[e.GenVertices[0]]++
	}
	t.GoodJets += int64(e.GoodJets)
	t.GenMatchedJets += int64(e.GenMatchedJets)
}

// Generator produces synthetic decay-chain events with known outcomes.
// It is not safe for concurrent use.
type Generator struct {
	rng       *rand.Rand
	run       uint64
	lumi      uint64
	missingPV float64
	vertexCfg genvertex.Config
	jetCfg    recojet.Config
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithMissingPrimaryRate sets the fraction of events generated without a primary vertex.
func WithMissingPrimaryRate(rate float64) GeneratorOption {
	return func(g *Generator) {
		if rate >= 0 && rate <= 1 {
			g.missingPV = rate
		}
	}
}

// WithLumi sets the luminosity block of generated keys.
func WithLumi(lumi uint64) GeneratorOption {
	return func(g *Generator) {
		g.lumi = lumi
	}
}

// WithCuts sets the builder configuration the expectations are computed for.
func WithCuts(vertexCfg genvertex.Config, jetCfg recojet.Config) GeneratorOption {
	return func(g *Generator) {
		g.vertexCfg = vertexCfg
		g.jetCfg = jetCfg
	}
}

// NewGenerator returns a deterministic generator for the given seed and run number.
func NewGenerator(seed int64, run uint64, opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible synthetic data
		run:       run,
		lumi:      1,
		vertexCfg: genvertex.DefaultConfig(),
		jetCfg:    recojet.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Event builds event number n.
func (g *Generator) Event(n uint64) (model.Event, Expectation) {
	ev := model.Event{Key: model.EventKey{Run: g.run, Lumi: g.lumi, Event: n}}
	exp := Expectation{Key: ev.Key}

	g.addDecays(&ev, &exp)
	g.addJets(&ev, &exp)

	if g.rng.Float64() < g.missingPV {
		ev.PrimaryVertices = nil
		exp.MissingPrimaryVertex = true
		exp.GenVertices = [4]int{}
	}
	return ev, exp
}

// Events builds count consecutive events starting at event number 1.
func (g *Generator) Events(ctx context.Context, count int) ([]model.Event, []Expectation) {
	events := make([]model.Event, 0, count)
	exps := make([]Expectation, 0, count)
	for i := 1; i <= count; i++ {
		ev, exp := g.Event(uint64(i))
		events = append(events, ev)
		exps = append(exps, exp)
	}
	logger.Get().Debug(ctx, "events generated", logger.Int("count", count), logger.Int64("run", int64(g.run))) //nolint:gosec // run ids fit
	return events, exps
}

func (g *Generator) addDecays(ev *model.Event, exp *Expectation) {
	// The reconstructed primary sits a fraction of the separation cut away
	// from the true interaction point.
	w := math.Min(pvSmear, g.vertexCfg.MinPrimarySeparation/4)
	pv := r3.Vec{X: g.smear(w), Y: g.smear(w), Z: g.smear(w)}
	ev.PrimaryVertices = []model.Vertex{{Position: pv, Chi2: 1.2, NDOF: 40, NTracks: 30 + g.rng.Intn(40)}}

	origin := &r3.Vec{}
	// Prompt pions share the interaction point with the mothers and form
	// the cluster that must be dropped as primary.
	for _, pdg := range []int{211, -211} {
		ev.GenParticles = append(ev.GenParticles, model.GenParticle{
			PdgID: pdg, Status: model.StatusFinal, Charge: charge(pdg),
			Momentum: g.momentum(1, 10), Vertex: clone(origin),
		})
	}

	minFlight := math.Max(minFlightLength, 2*g.vertexCfg.MinPrimarySeparation)
	var decays []r3.Vec
	for k := g.rng.Intn(maxDecaysPerEvent + 1); k > 0; k-- {
		pos := g.decayPoint(minFlight, decays)
		decays = append(decays, pos)
		mode := g.rng.Intn(numModes)

		mother := len(ev.GenParticles)
		ev.GenParticles = append(ev.GenParticles, model.GenParticle{
			PdgID: 511, Status: 2, Momentum: g.momentum(5, 50),
			Vertex: clone(origin), DecayVertex: clone(&pos),
		})
		var neutrinoFree int
		for _, pdg := range decayDaughters[mode] {
			idx := len(ev.GenParticles)
			ev.GenParticles[mother].Daughters = append(ev.GenParticles[mother].Daughters, idx)
			ev.GenParticles = append(ev.GenParticles, model.GenParticle{
				PdgID: pdg, Status: model.StatusFinal, Charge: charge(pdg),
				Momentum: g.momentum(0.5, 20), Vertex: clone(&pos), Mothers: []int{mother},
			})
			if !model.IsNeutrino(pdg) {
				neutrinoFree++
			}
		}

		simMatched := g.rng.Float64() < simTrackChance
		if simMatched {
			ev.SimTracks = append(ev.SimTracks, model.SimTrack{
				TrackID: len(ev.SimTracks) + 1, PdgID: decayDaughters[mode][0],
				VertexIndex: len(decays), Vertex: pos,
			})
			ev.SecondaryVertices = append(ev.SecondaryVertices, model.Vertex{Position: pos, NTracks: neutrinoFree})
		}

		exp.GenVertices[0]++
		if simMatched {
			exp.GenVertices[1]++
		}
		if neutrinoFree >= 2 {
			exp.GenVertices[2]++
			if simMatched {
				exp.GenVertices[3]++
			}
		}
	}

	// A lone conversion photon far from everything and one particle whose
	// production point was never recorded.
	ev.GenParticles = append(ev.GenParticles,
		model.GenParticle{PdgID: 22, Status: model.StatusFinal, Momentum: g.momentum(1, 5), Vertex: &r3.Vec{X: strayDistance}},
		model.GenParticle{PdgID: 22, Status: model.StatusFinal, Momentum: g.momentum(1, 5)},
	)
}

// decayPoint picks a flight vector of length in [minFlight, maxFlightLength]
// that keeps its distance from every earlier decay.
func (g *Generator) decayPoint(minFlight float64, taken []r3.Vec) r3.Vec {
	for {
		dir := r3.Unit(r3.Vec{X: g.rng.NormFloat64(), Y: g.rng.NormFloat64(), Z: g.rng.NormFloat64()})
		pos := r3.Scale(minFlight+g.rng.Float64()*(maxFlightLength-minFlight), dir)
		if !math.IsNaN(pos.X) && farFromAll(pos, taken) {
			return pos
		}
	}
}

func farFromAll(p r3.Vec, taken []r3.Vec) bool {
	for _, q := range taken {
		if r3.Norm(r3.Sub(p, q)) <= minDecaySpacing {
			return false
		}
	}
	return true
}

func (g *Generator) addJets(ev *model.Event, exp *Expectation) {
	n := g.rng.Intn(maxJetsPerEvent + 1)
	phi0 := (2*g.rng.Float64() - 1) * math.Pi
	for i := 0; i < n; i++ {
		pt := jetPtLow + g.rng.Float64()*(jetPtHigh-jetPtLow)
		eta := (2*g.rng.Float64() - 1) * jetEtaReach
		phi := wrapPhi(phi0 + float64(i)*2*math.Pi/float64(n))
		flav := []int{0, 4, 5}[g.rng.Intn(3)]
		ev.Jets = append(ev.Jets, model.Jet{Momentum: p4(pt, eta, phi), HadronFlavour: flav, PartonFlavour: flav})

		if g.rng.Float64() < malformedInfo {
			ev.GenJetFlavourInfo = append(ev.GenJetFlavourInfo, model.JetFlavourInfo{HadronFlavour: flav})
		}
		if g.rng.Float64() < genJetFraction {
			gen := p4(pt*(0.8+0.4*g.rng.Float64()), eta+g.smear(genJetSmear), wrapPhi(phi+g.smear(genJetSmear)))
			ev.GenJetFlavourInfo = append(ev.GenJetFlavourInfo, model.JetFlavourInfo{
				GenJet: &model.GenJet{Momentum: gen}, HadronFlavour: flav, PartonFlavour: flav,
			})
		}
	}

	for i := range ev.Jets {
		p := &ev.Jets[i].Momentum
		if math.Abs(p.Eta()) > g.jetCfg.AbsEtaMax || p.Pt() < g.jetCfg.JetPtMin || p.Pt() > g.jetCfg.JetPtMax {
			continue
		}
		exp.GoodJets++
		best := math.Inf(1)
		for j := range ev.GenJetFlavourInfo {
			info := &ev.GenJetFlavourInfo[j]
			if info.GenJet == nil {
				continue
			}
			if dr := fmom.DeltaR(p, &info.GenJet.Momentum); dr < best {
				best = dr
			}
		}
		if best <= g.jetCfg.DRCut {
			exp.GenMatchedJets++
		}
	}
}

func (g *Generator) smear(width float64) float64 {
	return (2*g.rng.Float64() - 1) * width
}

func (g *Generator) momentum(lo, hi float64) fmom.PxPyPzE {
	return p4(lo+g.rng.Float64()*(hi-lo), g.smear(jetEtaReach), g.smear(math.Pi))
}

// p4 builds a massless four-momentum from collider coordinates.
func p4(pt, eta, phi float64) fmom.PxPyPzE {
	return fmom.NewPxPyPzE(pt*math.Cos(phi), pt*math.Sin(phi), pt*math.Sinh(eta), pt*math.Cosh(eta))
}

func wrapPhi(phi float64) float64 {
	for phi > math.Pi {
		phi -= 2 * math.Pi
	}
	for phi <= -math.Pi {
		phi += 2 * math.Pi
	}
	return phi
}

func charge(pdg int) int {
	switch pdg {
	case 211, 321, -13, -11:
		return 1
	case -211, -321, 13, 11:
		return -1
	}
	return 0
}

func clone(v *r3.Vec) *r3.Vec {
	c := *v
	return &c
}
