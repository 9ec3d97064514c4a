package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/osse101/calsync/internal/logger"
)

// ErrQueueFull is returned by TryEnqueue when the job was not accepted
var ErrQueueFull = errors.New("worker queue full")

// ErrPoolStopped is returned when enqueueing after Stop
var ErrPoolStopped = errors.New("worker pool stopped")

// Job represents a task to be executed by a worker
type Job interface {
	Name() string
	Process(ctx context.Context) error
}

// Pool runs jobs on a fixed set of goroutines from a bounded queue.
// Each job gets its own context with the pool's job timeout.
type Pool struct {
	workers    int
	jobTimeout time.Duration
	jobQueue   chan Job
	wg         sync.WaitGroup
	quit       chan struct{}
	mu         sync.RWMutex
	stopped    bool
	stopOnce   sync.Once
}

// NewPool creates a new worker pool. A zero jobTimeout uses DefaultJobTimeout.
func NewPool(workers, queueSize int, jobTimeout time.Duration) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	return &Pool{
		workers:    workers,
		jobTimeout: jobTimeout,
		jobQueue:   make(chan Job, queueSize),
		quit:       make(chan struct{}),
	}
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			p.run(job)
		case <-p.quit:
			// Finish what was accepted before Stop
			for {
				select {
				case job := <-p.jobQueue:
					p.run(job)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error(LogMsgWorkerJobPanicked, "job", job.Name(), "panic", r)
		}
	}()

	start := time.Now()
	if err := job.Process(ctx); err != nil {
		log.Error(LogMsgWorkerJobFailed, "job", job.Name(), "error", err, "duration", time.Since(start))
		return
	}
	log.Debug(LogMsgWorkerJobDone, "job", job.Name(), "duration", time.Since(start))
}

// TryEnqueue adds a job without blocking
func (p *Pool) TryEnqueue(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobQueue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Enqueue adds a job, waiting for queue space until ctx ends
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new jobs, drains the queue and waits for workers to finish
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		close(p.quit)
		p.wg.Wait()
	})
}
