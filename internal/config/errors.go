package config

import "errors"

// ErrInvalidConfig marks a setting the analysis service cannot run with.
// ErrLoadConfig marks a failure to read the YAML file or environment layer.
var (
	ErrInvalidConfig = errors.New("vtx config: invalid setting")
	ErrLoadConfig    = errors.New("vtx config: cannot load")
)
