// Package recojet selects reconstructed jets by kinematics and matches them
// to generator jets to carry the generator flavour labels.
package recojet

import (
	"encoding/json"

	"github.com/okian/vertexntuples/internal/domain/model"
	"go-hep.org/x/hep/fmom"
)

// RecoJet is a selected reconstructed jet. GenMatch is set only for jets in
// the gen-matched collection.
type RecoJet struct {
	Index    int          `json:"index"`
	Momentum fmom.PxPyPzE `json:"-"`
	Pt       float64      `json:"pt"`
	Eta      float64      `json:"eta"`
	Phi      float64      `json:"phi"`
	GenMatch *GenMatch    `json:"gen_match,omitempty"`
}

// MarshalJSON writes the momentum as "p4": [px, py, pz, E].
func (j RecoJet) MarshalJSON() ([]byte, error) {
	type plain RecoJet
	return json.Marshal(struct {
		plain
		P4 []float64 `json:"p4"`
	}{plain(j), model.EncodeP4(j.Momentum)})
}

// GenMatch is the nearest generator jet and its flavour labels.
type GenMatch struct {
	Index         int          `json:"index"`
	DeltaR        float64      `json:"delta_r"`
	HadronFlavour int          `json:"hadron_flavour"`
	PartonFlavour int          `json:"parton_flavour"`
	GenJet        model.GenJet `json:"gen_jet"`
}

// Collections holds the selected jets and their matched subset.
type Collections struct {
	GoodJets   []RecoJet `json:"good_jets"`
	GenMatched []RecoJet `json:"gen_matched"`

	Stats Stats `json:"stats"`
}

// Stats counts what the selection and matching rejected.
type Stats struct {
	Jets                 int `json:"jets"`
	FailedSelection      int `json:"failed_selection"`
	Unmatched            int `json:"unmatched"`
	MalformedFlavourInfo int `json:"malformed_flavour_info"`
}
