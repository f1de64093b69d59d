package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// JobRegistry tracks job lifecycle in memory. It is mutated from the serving
// goroutines (create/read) and from the progress consumer (updates), so every
// read-modify-write holds the mutex for its full duration.
//
// Job state is transient by design: restarting the process loses in-flight
// jobs. Completed runs are archived separately through the history repository.
type JobRegistry struct {
	logger *slog.Logger
	mu     sync.Mutex
	jobs   map[domain.JobID]*domain.Job
}

func NewJobRegistry(logger *slog.Logger) *JobRegistry {
	return &JobRegistry{
		logger: logger,
		jobs:   make(map[domain.JobID]*domain.Job),
	}
}

// Create allocates a job id and inserts a pending record.
func (r *JobRegistry) Create(topic string, settings domain.GenerationSettings) domain.JobID {
	id := domain.JobID(uuid.NewString())
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = &domain.Job{
		ID:        id,
		Status:    domain.JobStatusPending,
		Progress:  0,
		Topic:     topic,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id
}

// Get returns a copy of the job record, or ErrJobNotFound.
func (r *JobRegistry) Get(id domain.JobID) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return *job, nil
}

// List returns copies of all job records, newest first not guaranteed.
func (r *JobRegistry) List() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out
}

// MarkInProgress transitions pending → in_progress. A no-op on terminal jobs.
func (r *JobRegistry) MarkInProgress(id domain.JobID) {
	r.mutate(id, func(job *domain.Job) {
		job.Status = domain.JobStatusInProgress
		if job.Progress < 1 {
			job.Progress = 1
		}
	})
}

// ApplyProgress folds a progress event into the job record. Progress is
// clamped to [0,100] and never decreases; events for terminal jobs are
// dropped (terminal states are sticky).
func (r *JobRegistry) ApplyProgress(event domain.ProgressEvent) {
	r.mutate(event.JobID, func(job *domain.Job) {
		if event.Message != "" {
			msg := event.Message
			job.Message = &msg
		}
		if event.Progress >= 0 {
			p := event.Progress
			if p > 100 {
				p = 100
			}
			if p > job.Progress {
				job.Progress = p
			}
		}
	})
}

// MarkCompleted finalizes a successful run.
func (r *JobRegistry) MarkCompleted(id domain.JobID, result *domain.GenerationResult) {
	r.mutate(id, func(job *domain.Job) {
		job.Status = domain.JobStatusCompleted
		job.Progress = 100
		job.Result = result
	})
}

// MarkError finalizes a failed run.
func (r *JobRegistry) MarkError(id domain.JobID, message string) {
	r.mutate(id, func(job *domain.Job) {
		job.Status = domain.JobStatusError
		job.Error = &message
	})
}

// mutate applies fn under the lock, skipping unknown ids (warn) and terminal
// jobs (sticky, warn). The locally-recovered failure modes never propagate to
// the worker.
func (r *JobRegistry) mutate(id domain.JobID, fn func(*domain.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		r.logger.Warn("dropping update for unknown job", "job_id", string(id))
		return
	}
	if job.Status.Terminal() {
		r.logger.Warn("dropping update for finished job", "job_id", string(id), "status", string(job.Status))
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}
