package genvertex

import "errors"

// Sentinel error kinds for the vertex builder.
var (
	// ErrMissingPrimaryVertex means the primary-vertex collection was empty,
	// so no reference frame exists for the event.
	ErrMissingPrimaryVertex = errors.New("missing primary vertex")
	ErrInvalidConfig        = errors.New("invalid genvertex config")
)
