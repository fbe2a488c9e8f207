package queue

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskboard/authd/internal/pkg/metrics"
)

const channelBuffer = 256

// ErrPoolStopped is returned by Do once the pool has been stopped.
var ErrPoolStopped = errors.New("worker pool stopped")

type job struct {
	fn   func()
	done chan struct{}
	// ctx is the caller's context; a job whose caller already gave up is skipped.
	ctx context.Context
}

// Pool runs CPU-bound jobs (secret hashing) on a fixed set of workers so that
// they never execute on the goroutine that accepted the request.
type Pool struct {
	jobs    chan job
	workers int
	log     zerolog.Logger

	cancel context.CancelFunc
	quit   <-chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, one worker per CPU is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{
		jobs:    make(chan job, channelBuffer),
		workers: numWorkers,
		log:     log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// Stop is called. Start must be called exactly once before Do.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.quit = ctx.Done()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	p.log.Debug().Int("workers", p.workers).Msg("hash pool started")
}

// Stop cancels the workers and waits for them to exit. Jobs that already
// started run to completion.
func (p *Pool) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
		p.log.Debug().Msg("hash pool stopped")
	})
}

// Do queues fn and blocks until a worker has executed it. ctx bounds only the
// wait: once a worker started fn, fn is never interrupted. A queued job whose
// ctx is done by the time a worker reaches it is dropped without running.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{}), ctx: ctx}

	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}

	metrics.HashQueueDepth.Inc()
	select {
	case p.jobs <- j:
	case <-p.quit:
		metrics.HashQueueDepth.Dec()
		return ErrPoolStopped
	case <-ctx.Done():
		metrics.HashQueueDepth.Dec()
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-p.quit:
		select {
		case <-j.done:
			return nil
		default:
			return ErrPoolStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			metrics.HashQueueDepth.Dec()
			p.run(id, j)
		}
	}
}

func (p *Pool) run(id int, j job) {
	defer close(j.done)
	if j.ctx.Err() != nil {
		p.log.Debug().Int("worker_id", id).Msg("hash job abandoned before start")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker_id", id).Msg("hash job panicked")
		}
	}()
	j.fn()
}
