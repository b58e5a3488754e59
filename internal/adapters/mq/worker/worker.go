// Package worker drains the ledger queue into the ledger store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/pkg/logger"
	"github.com/okian/canmnt/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 10 * time.Second
)

// Appender stores ledger entries. It reports false when the key was already present.
type Appender interface {
	Append(ctx context.Context, e model.LedgerEntry) (bool, error)
}

// Queue is the receive side workers read from.
type Queue interface {
	Dequeue() <-chan model.LedgerEntry
}

// InMemoryWorker appends queued entries until the queue closes or ctx ends.
type InMemoryWorker struct {
	queue    Queue
	appender Appender
	name     string
	logger   logger.Logger

	done chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, appender Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		appender: appender,
		name:     "worker",
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("ledger").Named(w.name)
	}
	return w
}

// Run blocks until the queue is closed and drained or ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	entries := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "append ledger entry", logger.String("key", e.Key), logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, e model.LedgerEntry) error { //nolint:gocritic // hugeParam: entries are values
	added, err := w.appender.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append %q: %w", e.Key, err)
	}
	if added {
		metrics.RecordLedgerAppend()
		w.logger.Debug(ctx, "ledger entry appended",
			logger.String("player", e.Player),
			logger.String("type", string(e.Type)),
		)
	} else {
		metrics.RecordLedgerDuplicate()
	}
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	wg      sync.WaitGroup
}

// NewPool creates count workers. count < 1 uses the default.
func NewPool(count int, q Queue, appender Appender) *Pool {
	if count < 1 {
		count = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		queue:   q,
		logger:  logger.Get().Named("ledger-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, appender, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() { p.wg.Wait() }

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "close ledger queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
