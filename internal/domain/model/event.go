// Package model contains the per-event records passed between layers.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidEventKey is returned when an event key string cannot be parsed.
var ErrInvalidEventKey = errors.New("invalid event key")

// EventKey identifies one collision event within a job.
type EventKey struct {
	Run   uint64 `json:"run"`
	Lumi  uint64 `json:"lumi"`
	Event uint64 `json:"event"`
}

// String renders the key as run:lumi:event.
func (k EventKey) String() string {
	return fmt.Sprintf("%d:%d:%d", k.Run, k.Lumi, k.Event)
}

// IsZero reports whether no part of the key is set.
func (k EventKey) IsZero() bool {
	return k == EventKey{}
}

// ParseEventKey parses the run:lumi:event form produced by EventKey.String.
func ParseEventKey(s string) (EventKey, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return EventKey{}, fmt.Errorf("%w: %q", ErrInvalidEventKey, s)
	}
	var vals [3]uint64
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return EventKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidEventKey, s, err)
		}
		vals[i] = v
	}
	return EventKey{Run: vals[0], Lumi: vals[1], Event: vals[2]}, nil
}

// Event is the input snapshot for one collision: every collection the
// builders consume, keyed by its run/lumi/event numbers.
type Event struct {
	Key               EventKey         `json:"key"`
	GenParticles      []GenParticle    `json:"gen_particles"`
	SimTracks         []SimTrack       `json:"sim_tracks"`
	PrimaryVertices   []Vertex         `json:"primary_vertices"`
	SecondaryVertices []Vertex         `json:"secondary_vertices"`
	Jets              []Jet            `json:"jets"`
	GenJetFlavourInfo []JetFlavourInfo `json:"gen_jet_flavour_info"`
}
