package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// SchedulerConfig defines concurrency limits for pipeline execution.
type SchedulerConfig struct {
	MaxConcurrentJobs int64
	QueueDepth        int
}

// JobScheduler bounds how many pipelines run at once. Submissions land on a
// buffered queue; a weighted semaphore caps the worker goroutines, so a burst
// of submissions cannot spawn an unbounded number of workers.
type JobScheduler struct {
	logger       *slog.Logger
	pendingQueue chan domain.JobID
	semaphore    *semaphore.Weighted
}

var ErrQueueFull = errors.New("scheduling queue full")

func NewJobScheduler(logger *slog.Logger, cfg SchedulerConfig) *JobScheduler {
	limit := cfg.MaxConcurrentJobs
	if limit <= 0 {
		limit = 4
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 100
	}

	return &JobScheduler{
		logger:       logger,
		pendingQueue: make(chan domain.JobID, depth),
		semaphore:    semaphore.NewWeighted(limit),
	}
}

// Submit adds a job to the scheduling queue without blocking.
func (s *JobScheduler) Submit(id domain.JobID) error {
	select {
	case s.pendingQueue <- id:
		s.logger.Info("job queued", "job_id", string(id))
		return nil
	default:
		return ErrQueueFull
	}
}

// Start consumes the queue and executes jobs through handler, respecting the
// concurrency limit. Returns when ctx is cancelled.
func (s *JobScheduler) Start(ctx context.Context, handler func(context.Context, domain.JobID)) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("stopping job scheduler")
				return
			case id := <-s.pendingQueue:
				if err := s.semaphore.Acquire(ctx, 1); err != nil {
					return
				}
				go func(jobID domain.JobID) {
					defer s.semaphore.Release(1)
					handler(ctx, jobID)
				}(id)
			}
		}
	}()
}
