package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-hep.org/x/hep/fmom"
)

// ErrInvalidMomentum is returned when a four-momentum is not a [px, py, pz, E] array.
var ErrInvalidMomentum = errors.New("invalid four-momentum")

// EncodeP4 returns p in its wire form [px, py, pz, E].
func EncodeP4(p fmom.PxPyPzE) []float64 {
	return []float64{p.Px(), p.Py(), p.Pz(), p.E()}
}

// DecodeP4 sets dst from the wire form. An absent value leaves a zero momentum.
func DecodeP4(v []float64, dst *fmom.PxPyPzE) error {
	if v == nil {
		*dst = fmom.PxPyPzE{}
		return nil
	}
	if len(v) != 4 {
		return fmt.Errorf("%w: want 4 components, got %d", ErrInvalidMomentum, len(v))
	}
	*dst = fmom.NewPxPyPzE(v[0], v[1], v[2], v[3])
	return nil
}

// MarshalJSON writes the momentum as "p4": [px, py, pz, E].
func (p GenParticle) MarshalJSON() ([]byte, error) { //nolint:gocritic // hugeParam: json.Marshaler on the value
	type plain GenParticle
	return json.Marshal(struct {
		plain
		P4 []float64 `json:"p4"`
	}{plain(p), EncodeP4(p.Momentum)})
}

// UnmarshalJSON reads "p4" as [px, py, pz, E].
func (p *GenParticle) UnmarshalJSON(b []byte) error {
	type plain GenParticle
	aux := struct {
		*plain
		P4 []float64 `json:"p4"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	return DecodeP4(aux.P4, &p.Momentum)
}

// MarshalJSON writes the momentum as "p4": [px, py, pz, E].
func (t SimTrack) MarshalJSON() ([]byte, error) { //nolint:gocritic // hugeParam: json.Marshaler on the value
	type plain SimTrack
	return json.Marshal(struct {
		plain
		P4 []float64 `json:"p4"`
	}{plain(t), EncodeP4(t.Momentum)})
}

// UnmarshalJSON reads "p4" as [px, py, pz, E].
func (t *SimTrack) UnmarshalJSON(b []byte) error {
	type plain SimTrack
	aux := struct {
		*plain
		P4 []float64 `json:"p4"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	return DecodeP4(aux.P4, &t.Momentum)
}

// MarshalJSON writes the momentum as "p4": [px, py, pz, E].
func (j Jet) MarshalJSON() ([]byte, error) {
	type plain Jet
	return json.Marshal(struct {
		plain
		P4 []float64 `json:"p4"`
	}{plain(j), EncodeP4(j.Momentum)})
}

// UnmarshalJSON reads "p4" as [px, py, pz, E].
func (j *Jet) UnmarshalJSON(b []byte) error {
	type plain Jet
	aux := struct {
		*plain
		P4 []float64 `json:"p4"`
	}{plain: (*plain)(j)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	return DecodeP4(aux.P4, &j.Momentum)
}

// MarshalJSON writes the momentum as "p4": [px, py, pz, E].
func (g GenJet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		P4 []float64 `json:"p4"`
	}{EncodeP4(g.Momentum)})
}

// UnmarshalJSON reads "p4" as [px, py, pz, E].
func (g *GenJet) UnmarshalJSON(b []byte) error {
	var aux struct {
		P4 []float64 `json:"p4"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	return DecodeP4(aux.P4, &g.Momentum)
}
