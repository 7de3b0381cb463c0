package service

import (
	"time"

	"github.com/okian/vertexntuples/internal/domain/genvertex"
	"github.com/okian/vertexntuples/internal/domain/recojet"
	"github.com/okian/vertexntuples/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of event keys remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVertexConfig sets the generator-vertex builder configuration every
// worker uses.
func WithVertexConfig(cfg genvertex.Config) Option {
	return func(s *Service) {
		s.vertexCfg = cfg
	}
}

// WithJetConfig sets the jet selection and matching cuts every worker uses.
func WithJetConfig(cfg recojet.Config) Option {
	return func(s *Service) {
		s.jetCfg = cfg
	}
}

// WithHistogramBinning sets the binning of the multiplicity histograms.
func WithHistogramBinning(bins int, xmax float64) Option {
	return func(s *Service) {
		s.histBins = bins
		s.histMax = xmax
	}
}

// WithMaxSummaries bounds the number of per-event summaries kept for lookup.
func WithMaxSummaries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSummaries = n
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the queue to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}
