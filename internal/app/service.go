// Package service wires the queue, worker pool, summary store and deduper
// into the dependencies the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/vertexntuples/internal/adapters/mq/queue"
	workerpool "github.com/okian/vertexntuples/internal/adapters/mq/worker"
	"github.com/okian/vertexntuples/internal/adapters/repository"
	"github.com/okian/vertexntuples/internal/domain/analyzer"
	"github.com/okian/vertexntuples/internal/domain/dedupe"
	"github.com/okian/vertexntuples/internal/domain/genvertex"
	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/internal/domain/recojet"
	"github.com/okian/vertexntuples/pkg/logger"
	"github.com/okian/vertexntuples/pkg/metrics"
)

// Service implements the API dependencies for the analysis pipeline.
type Service struct {
	mu sync.RWMutex

	store      *repository.SummaryStore
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool

	workerCount     int
	queueSize       int
	dedupeSize      int
	maxSummaries    int
	histBins        int
	histMax         float64
	shutdownTimeout time.Duration
	vertexCfg       genvertex.Config
	jetCfg          recojet.Config

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration. Nothing runs until
// Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       eventqueue.DefaultCapacity,
		dedupeSize:      dedupe.DefaultMaxSize,
		maxSummaries:    repository.DefaultMaxSummaries,
		histBins:        repository.DefaultBins,
		histMax:         repository.DefaultXMax,
		shutdownTimeout: 30 * time.Second,
		vertexCfg:       genvertex.DefaultConfig(),
		jetCfg:          recojet.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the workers. Invalid builder or
// histogram configuration is reported here.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting analysis service...")

	store, err := repository.NewSummaryStore(
		repository.WithHistogramBinning(s.histBins, s.histMax),
		repository.WithMaxSummaries(s.maxSummaries),
	)
	if err != nil {
		return fmt.Errorf("summary store: %w", err)
	}

	q := eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	vertexCfg, jetCfg := s.vertexCfg, s.jetCfg
	pool, err := workerpool.NewPool(s.workerCount, q, store, func() (workerpool.Analyzer, error) {
		return analyzer.New(analyzer.WithVertexConfig(vertexCfg), analyzer.WithJetConfig(jetCfg))
	}, workerpool.WithPoolLogger(s.logger.Named("workers")))
	if err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}

	s.store = store
	s.eventQueue = q
	s.workerPool = pool
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	// Workers outlive the request context Start may be called with; Stop
	// ends them.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("vertexTolerance", vertexCfg.Tolerance),
		logger.Float64("drCut", jetCfg.DRCut),
	)
	return nil
}

// Stop closes the queue and waits for the workers to drain it. Summaries
// and histograms stay readable afterwards.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping analysis service...", logger.Int("queued", s.eventQueue.Len()))
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "queue not fully drained", logger.Error(err))
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// SeenAndRecord atomically checks if an event key was seen and records it
// if not. Returns true for a duplicate.
func (s *Service) SeenAndRecord(ctx context.Context, key model.EventKey) bool {
	d := s.dedupe()
	if d == nil {
		return false
	}
	seen := d.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord forgets an event key so it can be resubmitted.
func (s *Service) Unrecord(ctx context.Context, key model.EventKey) {
	if d := s.dedupe(); d != nil {
		d.Unrecord(ctx, key)
	}
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if d := s.dedupe(); d != nil {
		return d.Size()
	}
	return 0
}

func (s *Service) dedupe() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

// Enqueue submits an event for asynchronous analysis. It returns false when
// the queue is full or the service is not running.
func (s *Service) Enqueue(ctx context.Context, e model.Event) bool { //nolint:gocritic // hugeParam: events travel by value through the queue
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		metrics.RecordEventRejected("not_started")
		return false
	}
	if err := s.eventQueue.Enqueue(ctx, e); err != nil {
		metrics.RecordEventRejected("backpressure")
		s.logger.Debug(ctx, "event not queued",
			logger.String("key", e.Key.String()),
			logger.Error(err),
		)
		return false
	}
	return true
}

// Summary returns the stored summary for key.
func (s *Service) Summary(ctx context.Context, key model.EventKey) (analyzer.Summary, error) {
	store, err := s.readStore()
	if err != nil {
		return analyzer.Summary{}, err
	}
	return store.Get(ctx, key)
}

// Histograms returns copies of the multiplicity histograms.
func (s *Service) Histograms(ctx context.Context) ([]repository.Histogram, error) {
	store, err := s.readStore()
	if err != nil {
		return nil, err
	}
	return store.Histograms(ctx), nil
}

// Totals returns the running totals over all analyzed events.
func (s *Service) Totals(ctx context.Context) (repository.Totals, error) {
	store, err := s.readStore()
	if err != nil {
		return repository.Totals{}, err
	}
	return store.Totals(ctx), nil
}

// readStore returns the store once Start has built it. The store survives
// Stop so results can still be read.
func (s *Service) readStore() (*repository.SummaryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.store == nil {
		return stats
	}

	totals := s.store.Totals(ctx)
	stats["queueLength"] = s.eventQueue.Len()
	stats["activeWorkers"] = s.workerPool.Active()
	stats["storedEvents"] = s.store.Count(ctx)
	stats["eventsAnalyzed"] = totals.Events
	stats["missingPrimaryVertex"] = totals.MissingPrimaryVertex
	stats["genVertices"] = totals.GenVertices
	stats["goodJets"] = totals.GoodJets
	stats["genMatchedJets"] = totals.GenMatchedJets
	stats["dedupeEntries"] = s.deduper.Size()
	return stats
}
