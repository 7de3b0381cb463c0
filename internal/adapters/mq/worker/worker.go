// Package worker runs the analysis workers that drain the event queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vertexntuples/internal/adapters/mq/queue"
	"github.com/okian/vertexntuples/internal/domain/analyzer"
	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/pkg/logger"
	"github.com/okian/vertexntuples/pkg/metrics"
)

// Source is where workers take events from.
type Source interface {
	Next(ctx context.Context) (model.Event, error)
}

// Recorder stores analysis summaries.
type Recorder interface {
	Record(ctx context.Context, s analyzer.Summary) error
}

// Analyzer turns one event into a Result. Implementations are used by a
// single worker only.
type Analyzer interface {
	Analyze(ctx context.Context, ev model.Event) (analyzer.Result, error)
}

// AnalyzerFactory builds a fresh Analyzer for each worker.
type AnalyzerFactory func() (Analyzer, error)

// Worker processes events until its source is exhausted.
type Worker interface {
	// Run blocks until the source is closed and drained or ctx is done.
	Run(ctx context.Context)
}

// InMemoryWorker owns one Analyzer and feeds its results to a Recorder.
type InMemoryWorker struct {
	source   Source
	analyzer Analyzer
	recorder Recorder
	name     string
	logger   logger.Logger

	// onBusy is called with +1 before and -1 after each event.
	onBusy func(delta int)
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(source Source, a Analyzer, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:   source,
		analyzer: a,
		recorder: recorder,
		name:     "worker",
		onBusy:   func(int) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	for {
		ev, err := w.source.Next(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) && ctx.Err() == nil {
				w.logger.Error(ctx, "dequeue failed", logger.Error(err))
			}
			return
		}
		w.onBusy(1)
		if err := w.processEvent(ctx, ev); err != nil {
			w.logger.Error(ctx, "error processing event", logger.Error(err))
		}
		w.onBusy(-1)
	}
}

// processEvent analyzes one event and records its summary. A missing primary
// vertex still produces a summary.
func (w *InMemoryWorker) processEvent(ctx context.Context, ev model.Event) error { //nolint:gocritic // hugeParam: events travel by value through the queue
	start := time.Now()
	res, err := w.analyzer.Analyze(ctx, ev)
	metrics.RecordAnalysisLatency(float64(time.Since(start).Microseconds()) / 1000)

	switch {
	case err == nil:
	case analyzer.IsPartial(err):
		metrics.RecordMissingPrimaryVertex()
		metrics.RecordErrorByComponent("worker", "missing_primary_vertex")
		w.logger.Warn(ctx, "vertex builder skipped event",
			logger.String("key", ev.Key.String()),
			logger.Error(err),
		)
	default:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_error")
		return fmt.Errorf("analyze %s: %w", ev.Key, err)
	}

	sum := res.Summary
	if sum.VertexStats.MalformedPositions > 0 || sum.JetStats.MalformedFlavourInfo > 0 {
		w.logger.Debug(ctx, "malformed inputs skipped",
			logger.String("key", ev.Key.String()),
			logger.Int("malformed_positions", sum.VertexStats.MalformedPositions),
			logger.Int("malformed_flavour_info", sum.JetStats.MalformedFlavourInfo),
		)
	}

	if err := w.recorder.Record(ctx, sum); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		return fmt.Errorf("record %s: %w", ev.Key, err)
	}

	metrics.RecordEventAnalyzed()
	if sum.HasVertices() {
		metrics.ObserveVertexCounts(sum.VertexCounts())
	}
	metrics.RecordJets(sum.GoodJets, sum.GenMatchedJets)
	return nil
}

// Pool runs a fixed number of workers over one source.
type Pool struct {
	workers []*InMemoryWorker
	source  Source
	logger  logger.Logger

	active  atomic.Int64
	started atomic.Bool
	wg      sync.WaitGroup
	done    chan struct{}
	cancel  context.CancelFunc
	once    sync.Once
}

// NewPool creates workerCount workers, each with its own Analyzer from
// factory. A non-positive workerCount means one worker per CPU.
func NewPool(workerCount int, source Source, recorder Recorder, factory AnalyzerFactory, opts ...PoolOption) (*Pool, error) {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		source:  source,
		done:    make(chan struct{}),
		cancel:  func() {},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	for i := range p.workers {
		a, err := factory()
		if err != nil {
			return nil, fmt.Errorf("worker %d analyzer: %w", i, err)
		}
		name := "worker-" + strconv.Itoa(i)
		w := NewInMemoryWorker(source, a, recorder, WithName(name), WithLogger(p.logger.Named(name)))
		w.onBusy = p.busy
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Active returns the number of workers currently analyzing an event.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

func (p *Pool) busy(delta int) {
	metrics.UpdateWorkerActiveCount(int(p.active.Add(int64(delta))))
}

// Start launches every worker. Workers stop when ctx is cancelled or the
// source is closed and drained.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop cancels all workers without draining the source and waits for them.
func (p *Pool) Stop() {
	if !p.started.Load() {
		return
	}
	p.cancel()
	<-p.done
}

// Shutdown closes the source when it can be closed and waits until the
// workers have drained it. If ctx expires first the workers are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		if closer, ok := p.source.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
			}
		}
		if !p.started.Load() {
			return
		}
		select {
		case <-p.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker pool shutdown timed out")
			p.cancel()
			<-p.done
			err = fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	})
	return err
}
