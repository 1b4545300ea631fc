package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"class360/internal/config"
	"class360/internal/logging"
	"class360/internal/queue"
)

// JobRunner executes one dequeued job to completion.
type JobRunner interface {
	Execute(ctx context.Context, job *queue.Job) error
}

// Scheduler owns the worker loop that drains the priority queue at bounded
// concurrency. Workers wake on enqueue notifications and fall back to a poll
// interval so a missed notification never strands a pending job.
type Scheduler struct {
	queue        *queue.Queue
	runner       JobRunner
	logger       *slog.Logger
	workers      int
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// New constructs a scheduler from workflow configuration.
func New(cfg *config.Config, q *queue.Queue, runner JobRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Workflow.MaxConcurrentJobs
	if workers < 1 {
		workers = 1
	}
	poll := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &Scheduler{
		queue:        q,
		runner:       runner,
		logger:       logging.NewComponentLogger(logger, "scheduler"),
		workers:      workers,
		pollInterval: poll,
	}
}

// Start begins background processing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go s.runWorker(runCtx)
	}
	s.logger.Info("scheduler started", logging.Int("workers", s.workers))
	return nil
}

// Stop terminates background processing and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// LastError returns the most recent job failure, if any.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Scheduler) runWorker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job := s.queue.Next()
		if job == nil {
			s.waitForJobOrShutdown(ctx)
			continue
		}

		err := s.runJob(ctx, job)
		s.queue.Finish(job, err)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.setLastError(err)
			s.logger.Error("job failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.String(logging.FieldEntityID, job.EntityID),
				logging.Error(err),
			)
			continue
		}
		s.logger.Info("job completed",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldEntityID, job.EntityID),
		)
	}
}

// runJob wraps one execution in a panic guard so a single bad job can never
// take the worker loop down with it.
func (s *Scheduler) runJob(ctx context.Context, job *queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return s.runner.Execute(ctx, job)
}

func (s *Scheduler) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.queue.Notify():
	case <-time.After(s.pollInterval):
	}
}

func (s *Scheduler) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
