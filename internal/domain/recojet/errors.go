package recojet

import "errors"

// Sentinel error kinds for the jet builder.
var (
	ErrInvalidConfig = errors.New("invalid recojet config")
)
