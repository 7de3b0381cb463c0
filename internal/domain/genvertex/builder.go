package genvertex

import (
	"fmt"
	"sort"

	"github.com/okian/vertexntuples/internal/domain/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Builder turns one event's generator particles into decay vertices.
// It keeps only its configuration between calls and is not safe for
// concurrent use by multiple event streams; give each stream its own Builder.
type Builder struct {
	cfg Config
}

// New creates a Builder with a validated configuration.
func New(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg}, nil
}

// Config returns the builder's configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// cluster is a fully classified group of particles sharing a production point.
type cluster struct {
	position    r3.Vec
	daughters   []int
	mothers     []int
	noNu        []int
	noNuMothers []int
	simMatched  bool
}

// Build clusters particles into vertices relative to the first entry of
// primaries, which the host pre-sorts so that entry 0 is the signal vertex.
// It returns ErrMissingPrimaryVertex when primaries is empty.
func (b *Builder) Build(particles []model.GenParticle, tracks []model.SimTrack, primaries []model.Vertex) (Collections, error) {
	if len(primaries) == 0 {
		return Collections{}, fmt.Errorf("genvertex: %w", ErrMissingPrimaryVertex)
	}
	pv := primaries[0].Position

	clusters, stats := b.clusterParticles(particles, pv)
	b.matchSimTracks(clusters, tracks)

	out := Collections{
		All:                  make([]GenVertex, 0, len(clusters)),
		SimMatched:           []GenVertex{},
		NoNeutrino:           []GenVertex{},
		NoNeutrinoSimMatched: []GenVertex{},
	}
	for i := range clusters {
		c := &clusters[i]
		v := GenVertex{
			Position:     c.position,
			Daughters:    c.daughters,
			Mothers:      c.mothers,
			Multiplicity: len(c.daughters),
			SimMatched:   c.simMatched,
			NeutrinoFree: len(c.noNu) == len(c.daughters),
		}
		out.All = append(out.All, v)
		if v.SimMatched {
			out.SimMatched = append(out.SimMatched, v)
		}

		if len(c.noNu) < 2 {
			stats.NeutrinoOnly++
			continue
		}
		nv := GenVertex{
			Position:     c.position,
			Daughters:    c.noNu,
			Mothers:      c.noNuMothers,
			Multiplicity: len(c.noNu),
			SimMatched:   c.simMatched,
			NeutrinoFree: true,
		}
		out.NoNeutrino = append(out.NoNeutrino, nv)
		if nv.SimMatched {
			out.NoNeutrinoSimMatched = append(out.NoNeutrinoSimMatched, nv)
		}
	}
	out.Stats = stats
	return out, nil
}

// clusterParticles groups particles whose production positions are linked
// by a chain of pairwise distances <= Tolerance. Groups are returned ordered
// by their lowest particle index, with members in index order.
func (b *Builder) clusterParticles(particles []model.GenParticle, pv r3.Vec) ([]cluster, Stats) {
	stats := Stats{Particles: len(particles)}

	candidates := make([]int, 0, len(particles))
	positions := make([]r3.Vec, 0, len(particles))
	for i := range particles {
		if !particles[i].HasValidVertex() {
			stats.MalformedPositions++
			continue
		}
		candidates = append(candidates, i)
		positions = append(positions, *particles[i].Vertex)
	}
	if len(candidates) == 0 {
		return nil, stats
	}

	tol := b.cfg.Tolerance
	index := newSpatialIndex(tol, positions)
	set := newDisjointSet(len(candidates))
	for i, p := range positions {
		index.within(p, tol, func(j int) bool {
			if j > i {
				set.union(i, j)
			}
			return true
		})
	}

	var groups [][]int
	slot := make(map[int]int)
	for i := range candidates {
		root := set.find(i)
		g, ok := slot[root]
		if !ok {
			g = len(groups)
			slot[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}

	clusters := make([]cluster, 0, len(groups))
	for _, members := range groups {
		if len(members) < 2 {
			stats.Singletons++
			continue
		}

		var sum r3.Vec
		for _, m := range members {
			sum = r3.Add(sum, positions[m])
		}
		center := r3.Scale(1/float64(len(members)), sum)

		ambiguous := false
		for _, m := range members {
			if r3.Norm(r3.Sub(positions[m], center)) > tol {
				ambiguous = true
				break
			}
		}
		if ambiguous {
			stats.AmbiguousClusters++
			continue
		}
		if r3.Norm(r3.Sub(center, pv)) <= b.cfg.MinPrimarySeparation {
			stats.NearPrimary++
			continue
		}

		daughters := make([]int, len(members))
		noNu := make([]int, 0, len(members))
		for k, m := range members {
			daughters[k] = candidates[m]
			if !particles[candidates[m]].IsNeutrino() {
				noNu = append(noNu, candidates[m])
			}
		}
		clusters = append(clusters, cluster{
			position:    center,
			daughters:   daughters,
			mothers:     mothersOf(particles, daughters),
			noNu:        noNu,
			noNuMothers: mothersOf(particles, noNu),
		})
	}
	return clusters, stats
}

// matchSimTracks flags every cluster with a simulated track originating
// within Tolerance of its position.
func (b *Builder) matchSimTracks(clusters []cluster, tracks []model.SimTrack) {
	if len(clusters) == 0 || len(tracks) == 0 {
		return
	}
	origins := make([]r3.Vec, 0, len(tracks))
	for i := range tracks {
		if model.IsFinite(tracks[i].Vertex) {
			origins = append(origins, tracks[i].Vertex)
		}
	}
	index := newSpatialIndex(b.cfg.Tolerance, origins)
	for i := range clusters {
		clusters[i].simMatched = index.any(clusters[i].position, b.cfg.Tolerance)
	}
}

// mothersOf returns the sorted, de-duplicated mother indices of daughters.
// Indices outside the particle slice are ignored.
func mothersOf(particles []model.GenParticle, daughters []int) []int {
	seen := make(map[int]struct{})
	mothers := []int{}
	for _, d := range daughters {
		for _, m := range particles[d].Mothers {
			if m < 0 || m >= len(particles) {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			mothers = append(mothers, m)
		}
	}
	sort.Ints(mothers)
	return mothers
}
