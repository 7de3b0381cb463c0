package genvertex

import (
	"fmt"
	"math"
)

// Default clustering constants, in the generator's length unit (cm).
const (
	DefaultTolerance            = 1e-5
	DefaultMinPrimarySeparation = 1e-2
)

// Config holds the fixed clustering parameters of a Builder.
type Config struct {
	// Tolerance is the distance within which two production positions are
	// considered the same decay point.
	Tolerance float64
	// MinPrimarySeparation is the distance a cluster must exceed from the
	// primary vertex to count as a secondary decay.
	MinPrimarySeparation float64
}

// DefaultConfig returns the production clustering parameters.
func DefaultConfig() Config {
	return Config{
		Tolerance:            DefaultTolerance,
		MinPrimarySeparation: DefaultMinPrimarySeparation,
	}
}

// Validate checks that the tolerance is positive and the separation non-negative.
func (c Config) Validate() error {
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance must be positive and finite, got %g", ErrInvalidConfig, c.Tolerance)
	}
	if !(c.MinPrimarySeparation >= 0) || math.IsInf(c.MinPrimarySeparation, 0) {
		return fmt.Errorf("%w: min primary separation must be non-negative and finite, got %g", ErrInvalidConfig, c.MinPrimarySeparation)
	}
	return nil
}
