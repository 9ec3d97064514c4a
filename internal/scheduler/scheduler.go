package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/worker"
)

// Enqueuer accepts jobs without blocking. Implemented by worker.Pool.
type Enqueuer interface {
	TryEnqueue(job worker.Job) error
}

// Scheduler enqueues jobs onto the worker pool on cron schedules.
// Schedules use six fields, seconds first.
type Scheduler struct {
	cron    *cron.Cron
	pool    Enqueuer
	mu      sync.Mutex
	entries map[string]cron.EntryID
	running bool
}

// New creates a new scheduler
func New(pool Enqueuer) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		pool:    pool,
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule registers job under spec, replacing any job with the same name.
// A tick that finds the queue full is skipped; the next tick retries.
func (s *Scheduler) Schedule(spec string, job worker.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[job.Name()]; ok {
		s.cron.Remove(id)
		delete(s.entries, job.Name())
	}

	id, err := s.cron.AddFunc(spec, func() {
		if err := s.pool.TryEnqueue(job); err != nil {
			logger.Warn(LogMsgEnqueueSkipped, "job", job.Name(), "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.entries[job.Name()] = id
	logger.Info(LogMsgJobScheduled, "job", job.Name(), "schedule", spec)
	return nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins firing schedules
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop halts the schedules and waits for in-flight enqueues, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn(LogMsgStopTimeout)
	}
	s.running = false
}
