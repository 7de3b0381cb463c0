// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New(ctx) initializer to build a Config with defaults.
//   - Builder settings are projected into the builders' own config types and
//     validated by them.
//   - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/vertexntuples/internal/domain/genvertex"
	"github.com/okian/vertexntuples/internal/domain/recojet"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of event keys remembered for deduplication.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxSummaries bounds the per-event summaries kept for lookup.
	MaxSummaries int `koanf:"max_summaries"`

	// MaxBodyBytes caps the size of one posted event.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ShutdownTimeout bounds how long shutdown waits for the queue to drain.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Jet selection and matching cuts.
	AbsEtaMax float64 `koanf:"abs_eta_max"`
	JetPtMin  float64 `koanf:"jet_pt_min"`
	JetPtMax  float64 `koanf:"jet_pt_max"`
	DRCut     float64 `koanf:"dr_cut"`

	// Generator-vertex clustering, in cm.
	VertexTolerance      float64 `koanf:"vertex_tolerance"`
	MinPrimarySeparation float64 `koanf:"min_primary_separation"`

	// Binning of the multiplicity histograms.
	HistogramBins int     `koanf:"histogram_bins"`
	HistogramMax  float64 `koanf:"histogram_max"`
}

// New creates a Config holding the production defaults. Context is accepted
// first to satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		EventQueueSize:       10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           50_000,
		MaxSummaries:         100_000,
		MaxBodyBytes:         8 << 20,
		ShutdownTimeout:      30 * time.Second,
		AbsEtaMax:            recojet.DefaultAbsEtaMax,
		JetPtMin:             recojet.DefaultJetPtMin,
		JetPtMax:             recojet.DefaultJetPtMax,
		DRCut:                recojet.DefaultDRCut,
		VertexTolerance:      genvertex.DefaultTolerance,
		MinPrimarySeparation: genvertex.DefaultMinPrimarySeparation,
		HistogramBins:        10,
		HistogramMax:         10,
	}
}

// GenVertexConfig projects the clustering settings.
func (c *Config) GenVertexConfig() genvertex.Config {
	return genvertex.Config{
		Tolerance:            c.VertexTolerance,
		MinPrimarySeparation: c.MinPrimarySeparation,
	}
}

// RecoJetConfig projects the jet cuts.
func (c *Config) RecoJetConfig() recojet.Config {
	return recojet.Config{
		AbsEtaMax: c.AbsEtaMax,
		JetPtMin:  c.JetPtMin,
		JetPtMax:  c.JetPtMax,
		DRCut:     c.DRCut,
	}
}

// Validate reports the first setting the service could not run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.EventQueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxSummaries <= 0:
		return fmt.Errorf("%w: max_summaries must be positive, got %d", ErrInvalidConfig, c.MaxSummaries)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive, got %d", ErrInvalidConfig, c.MaxBodyBytes)
	case c.HistogramBins <= 0 || !(c.HistogramMax > 0):
		return fmt.Errorf("%w: histogram needs positive bins and max, got %d up to %g", ErrInvalidConfig, c.HistogramBins, c.HistogramMax)
	}
	if err := c.GenVertexConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.RecoJetConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
