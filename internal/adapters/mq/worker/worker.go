// Package worker runs event batches through the skim pipeline concurrently.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/skim"
	"github.com/okian/tauskim/pkg/logger"
	"github.com/okian/tauskim/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Processor turns a batch into skim results. Implementations must be safe
// for concurrent use.
type Processor interface {
	ProcessBatch(b model.Batch) (skim.Result, error)
}

// Queue defines how workers receive batches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Batch
}

// Outcome is the result of one batch. Seq is set even when Err is not nil.
type Outcome struct {
	Seq    int
	Result skim.Result
	Err    error
}

// InMemoryWorker takes batches off the queue and publishes outcomes.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	out       chan<- Outcome
	name      string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, out chan<- Outcome, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		out:       out,
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes batches until the queue is drained or ctx is canceled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	batches := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			o := w.process(ctx, b)
			select {
			case w.out <- o:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, b model.Batch) Outcome { //nolint:gocritic // hugeParam: Batch is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	res, err := w.processor.ProcessBatch(b)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "batch_error")
		w.logger.Error(ctx, "batch failed",
			logger.String("sample", b.Sample),
			logger.Int("seq", b.Seq),
			logger.Error(err),
		)
		return Outcome{Seq: b.Seq, Err: fmt.Errorf("batch %d of %s: %w", b.Seq, b.Sample, err)}
	}
	w.logger.Debug(ctx, "batch processed",
		logger.String("sample", b.Sample),
		logger.Int("seq", b.Seq),
		logger.Int("events", len(b.Events)),
		logger.Int("records", len(res.Records)),
	)
	return Outcome{Seq: b.Seq, Result: res}
}

// Pool manages multiple workers sharing one queue and one outcome channel.
type Pool struct {
	workers []*InMemoryWorker
	out     chan Outcome
	wg      sync.WaitGroup
	sample  string

	logger logger.Logger
}

// NewPool creates a pool. A non-positive workerCount means runtime.NumCPU().
func NewPool(workerCount int, queue Queue, processor Processor, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		out:     make(chan Outcome, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(queue, processor, p.out, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(p.sample, workerCount)
	return p
}

// Start launches every worker. Outcomes is closed after all of them return.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	go func() {
		p.wg.Wait()
		close(p.out)
		metrics.UpdateWorkerCount(p.sample, 0)
	}()
}

// Outcomes returns the channel receiving every batch outcome.
func (p *Pool) Outcomes() <-chan Outcome {
	return p.out
}

// Shutdown waits for the workers to return or for ctx to end. Workers
// return once their queue is closed and drained or their context ends.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
