// Package genvertex clusters generator particles into secondary decay
// vertices and classifies them by neutrino content and by agreement with
// simulated tracks.
package genvertex

import "gonum.org/v1/gonum/spatial/r3"

// GenVertex is one physical decay point. Daughters and Mothers are indices
// into the event's generator particle slice.
type GenVertex struct {
	Position     r3.Vec `json:"position"`
	Daughters    []int  `json:"daughters"`
	Mothers      []int  `json:"mothers"`
	Multiplicity int    `json:"multiplicity"`
	SimMatched   bool   `json:"sim_matched"`
	NeutrinoFree bool   `json:"neutrino_free"`
}

// Collections are the four projections of one clustering pass.
type Collections struct {
	All                  []GenVertex `json:"all"`
	SimMatched           []GenVertex `json:"sim_matched"`
	NoNeutrino           []GenVertex `json:"no_neutrino"`
	NoNeutrinoSimMatched []GenVertex `json:"no_neutrino_sim_matched"`

	Stats Stats `json:"stats"`
}

// Counts returns the sizes of the four collections in A, B, C, D order.
func (c *Collections) Counts() [4]int {
	return [4]int{len(c.All), len(c.SimMatched), len(c.NoNeutrino), len(c.NoNeutrinoSimMatched)}
}

// Stats records what the build pass discarded and why.
type Stats struct {
	Particles          int `json:"particles"`
	MalformedPositions int `json:"malformed_positions"`
	Singletons         int `json:"singletons"`
	AmbiguousClusters  int `json:"ambiguous_clusters"`
	NearPrimary        int `json:"near_primary"`
	NeutrinoOnly       int `json:"neutrino_only"`
}
