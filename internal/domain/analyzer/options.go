package analyzer

import (
	"github.com/okian/vertexntuples/internal/domain/genvertex"
	"github.com/okian/vertexntuples/internal/domain/recojet"
)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithVertexConfig sets the vertex builder configuration.
func WithVertexConfig(cfg genvertex.Config) Option {
	return func(a *Analyzer) {
		a.vertexCfg = cfg
	}
}

// WithJetConfig sets the jet builder cuts.
func WithJetConfig(cfg recojet.Config) Option {
	return func(a *Analyzer) {
		a.jetCfg = cfg
	}
}
