// Package worker runs smoothing jobs pulled off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/combatlog/internal/adapters/mq/queue"
	"github.com/okian/combatlog/internal/domain/model"
	"github.com/okian/combatlog/internal/domain/smoothing"
	"github.com/okian/combatlog/pkg/logger"
	"github.com/okian/combatlog/pkg/metrics"
)

// Smoother computes a rate curve for one stream.
type Smoother interface {
	Smooth(stream model.DamageStream, w smoothing.Window) (model.RateCurve, error)
}

// SmootherFunc adapts a function to Smoother.
type SmootherFunc func(model.DamageStream, smoothing.Window) (model.RateCurve, error)

// Smooth calls f.
func (f SmootherFunc) Smooth(s model.DamageStream, w smoothing.Window) (model.RateCurve, error) { //nolint:gocritic // hugeParam: streams are passed by value through jobs
	return f(s, w)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Jobs() <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is cancelled or the queue is closed.
	Run(ctx context.Context)
	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker smooths streams received from a Queue.
type InMemoryWorker struct {
	queue    Queue
	smoother Smoother
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		smoother: SmootherFunc(smoothing.Smooth),
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Jobs()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if d, ok := w.queue.(interface{ Dequeued() }); ok {
				d.Dequeued()
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.AddWorkerActive(1)
	defer metrics.AddWorkerActive(-1)

	start := time.Now()
	curve, err := w.smoother.Smooth(job.Stream, job.Window)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordWorkerProcessingLatency(elapsed)

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "smoothing_error")
		metrics.RecordErrorLatency("worker", "smoothing_error", elapsed)
		w.logger.Debug(ctx, "smoothing failed",
			logger.Int("index", job.Index),
			logger.String("window", job.Window.String()),
			logger.Error(err),
		)
	} else {
		metrics.RecordStreamsSmoothed(1)
		metrics.RecordSmoothingLatency(elapsed)
	}

	select {
	case job.Reply <- queue.Result{Index: job.Index, Curve: curve, Err: err}:
	default:
		w.logger.Warn(ctx, "dropped result, reply channel full", logger.Int("index", job.Index))
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
}

// NewPool creates workerCount workers; opts apply to each of them.
func NewPool(workerCount int, q Queue, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.workers[0].logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			w.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
