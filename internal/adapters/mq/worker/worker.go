// Package worker runs normalization and extraction for queued round documents.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/grapple/internal/adapters/mq/queue"
	"github.com/okian/grapple/internal/domain/extract"
	"github.com/okian/grapple/pkg/logger"
	"github.com/okian/grapple/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Document is the unit of work.
type Document = queue.Document

// Processor turns one round document into matches and a report.
type Processor interface {
	Process(ctx context.Context, doc Document) extract.Result
}

// Queue is the receive side the workers drain.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Document
}

// Output is the result for one document. Err is set when processing
// panicked; Result is then empty.
type Output struct {
	Doc    Document
	Result extract.Result
	Err    error
}

// Worker consumes documents until the queue is drained.
type Worker interface {
	Run(ctx context.Context, out chan<- Output)
}

// InMemoryWorker processes documents from a Queue.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string
	logger    logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes documents until the queue closes or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context, out chan<- Output) {
	docs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-docs:
			if !ok {
				return
			}
			o := w.process(ctx, doc)
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
	}
}

// process isolates a failing document so the run continues.
func (w *InMemoryWorker) process(ctx context.Context, doc Document) (o Output) { //nolint:gocritic // hugeParam: documents travel by value
	start := time.Now()
	o.Doc = doc
	defer func() {
		if r := recover(); r != nil {
			o.Result = extract.Result{}
			o.Err = fmt.Errorf("processing %s: %v", doc.Key(), r)
			metrics.RecordWorkerError()
			w.logger.Error(ctx, "document processing panicked",
				logger.String("document", doc.Key()), logger.Error(o.Err))
		}
		metrics.RecordStageDuration("document", float64(time.Since(start).Microseconds())/1000)
	}()
	o.Result = w.processor.Process(ctx, doc)
	return o
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	out     chan Output
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates workerCount workers; zero or less means one per CPU.
func NewPool(workerCount int, q Queue, p Processor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		out:     make(chan Output, workerCount),
		logger:  logger.Nop(),
	}
	for i := range pool.workers {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, p, wopts...)
	}
	if len(pool.workers) > 0 {
		pool.logger = pool.workers[0].logger
	}
	return pool
}

// Start launches the workers. The returned channel is closed once every
// worker has exited.
func (p *Pool) Start(ctx context.Context) <-chan Output {
	metrics.UpdateWorkerCount(len(p.workers))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx, p.out)
		}()
	}
	go func() {
		p.wg.Wait()
		metrics.UpdateWorkerCount(0)
		close(p.out)
	}()
	return p.out
}

// Shutdown waits for the workers to exit. Callers close the queue first.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-done:
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("workers", len(p.workers)))
		return fmt.Errorf("worker shutdown: %w", shutdownCtx.Err())
	}
}
