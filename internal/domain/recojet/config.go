package recojet

import (
	"fmt"
	"math"
)

// Default selection constants.
const (
	DefaultAbsEtaMax = 2.5
	DefaultJetPtMin  = 20.0
	DefaultJetPtMax  = 1000.0
	DefaultDRCut     = 0.4
)

// Config holds the fixed jet selection and matching cuts.
type Config struct {
	AbsEtaMax float64
	JetPtMin  float64
	JetPtMax  float64
	DRCut     float64
}

// DefaultConfig returns the production cuts.
func DefaultConfig() Config {
	return Config{
		AbsEtaMax: DefaultAbsEtaMax,
		JetPtMin:  DefaultJetPtMin,
		JetPtMax:  DefaultJetPtMax,
		DRCut:     DefaultDRCut,
	}
}

// Validate rejects cuts that no jet could satisfy or that are not numbers.
func (c Config) Validate() error {
	for _, cut := range []struct {
		name  string
		value float64
	}{
		{"abs eta max", c.AbsEtaMax},
		{"jet pt min", c.JetPtMin},
		{"jet pt max", c.JetPtMax},
		{"dr cut", c.DRCut},
	} {
		if math.IsNaN(cut.value) || cut.value < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %g", ErrInvalidConfig, cut.name, cut.value)
		}
	}
	if c.JetPtMin > c.JetPtMax {
		return fmt.Errorf("%w: jet pt min %g exceeds jet pt max %g", ErrInvalidConfig, c.JetPtMin, c.JetPtMax)
	}
	return nil
}
