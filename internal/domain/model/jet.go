package model

import "go-hep.org/x/hep/fmom"

// Jet is a reconstructed jet as delivered by the host.
type Jet struct {
	Momentum      fmom.PxPyPzE `json:"-"`
	HadronFlavour int          `json:"hadron_flavour"`
	PartonFlavour int          `json:"parton_flavour"`
}

// GenJet is a generator-level jet.
type GenJet struct {
	Momentum fmom.PxPyPzE `json:"-"`
}

// JetFlavourInfo associates a generator jet with its flavour labels.
// A nil GenJet marks a malformed entry.
type JetFlavourInfo struct {
	GenJet        *GenJet `json:"gen_jet,omitempty"`
	HadronFlavour int     `json:"hadron_flavour"`
	PartonFlavour int     `json:"parton_flavour"`
}

// Valid reports whether the entry references a generator jet.
func (f *JetFlavourInfo) Valid() bool {
	return f.GenJet != nil
}
