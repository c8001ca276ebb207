// Package persist writes event records and their paired screen captures to
// disk on a fixed pool of workers fed by an unbounded queue.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/offlinefirst/inputtrail/pkg/events"
	"github.com/offlinefirst/inputtrail/pkg/logging"
)

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("worker pool closed")

// Job carries owned data only; it never references live shared state.
type Job struct {
	Stamp int64
	Kind  events.Kind
	JSON  []byte
}

// Handler executes a single job.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function literal to the Handler interface.
type HandlerFunc func(ctx context.Context, job Job) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Result reports the outcome of one job.
type Result struct {
	Job Job
	Err error
}

// Stats summarises pool activity.
type Stats struct {
	Workers   int
	Submitted int
	Completed int
	Failed    int
	Pending   int
}

// Options configure a Pool.
type Options struct {
	// Workers is the pool size; 0 selects the logical CPU count.
	Workers int
	Handler Handler
	Logger  *slog.Logger
	// OnResult observes every finished job. It runs on the worker goroutine.
	OnResult func(Result)
}

// Pool runs jobs asynchronously. Submit never blocks and the queue has no
// depth limit; completion order is unconstrained.
type Pool struct {
	handler  Handler
	logger   *slog.Logger
	onResult func(Result)
	workers  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Job
	closed bool
	stats  Stats
}

// DefaultWorkers returns the logical CPU count.
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// NewPool validates options and starts the workers.
func NewPool(opts Options) (*Pool, error) {
	if opts.Handler == nil {
		return nil, errors.New("handler must be provided")
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", opts.Workers)
	}
	workers := opts.Workers
	if workers == 0 {
		workers = DefaultWorkers()
	}
	logger := logging.OrDiscard(opts.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		handler:  opts.Handler,
		logger:   logger,
		onResult: opts.OnResult,
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}
	p.cond = sync.NewCond(&p.mu)
	p.stats.Workers = workers

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p, nil
}

// Workers reports the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit enqueues a job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.queue = append(p.queue, job)
	p.stats.Submitted++
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Pending = len(p.queue)
	return s
}

// Close stops intake and waits for queued jobs to finish. When ctx expires
// first, in-flight handlers are cancelled and queued jobs are abandoned.
func (p *Pool) Close(ctx context.Context) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return p.Stats(), nil
	case <-ctx.Done():
		p.mu.Lock()
		abandoned := len(p.queue)
		p.queue = nil
		p.mu.Unlock()
		p.cancel()
		<-done
		p.logger.Warn("worker pool drain interrupted", "abandoned", abandoned)
		stats := p.Stats()
		stats.Pending = abandoned
		return stats, ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue[0] = Job{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		err := p.run(job)

		p.mu.Lock()
		if err != nil {
			p.stats.Failed++
		} else {
			p.stats.Completed++
		}
		p.mu.Unlock()

		if err != nil {
			p.logger.Error("persist job failed", "stamp", job.Stamp, "kind", string(job.Kind), "error", err)
		} else {
			p.logger.Debug("persist job complete", "stamp", job.Stamp, "kind", string(job.Kind))
		}
		if p.onResult != nil {
			p.onResult(Result{Job: job, Err: err})
		}
	}
}

// run executes the handler, converting a panic into a job-local error.
func (p *Pool) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return p.handler.Handle(p.ctx, job)
}
