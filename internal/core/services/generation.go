package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/DavidSilveraGabriel/MewAI/internal/config"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/ports"
)

// GenerationService owns the submission path: it creates the job record,
// queues execution on the bounded scheduler, and runs the pipeline on a
// worker goroutine, reporting progress through the bridge.
type GenerationService struct {
	logger    *slog.Logger
	registry  *JobRegistry
	bridge    *ProgressBridge
	scheduler *JobScheduler
	bus       *EventBus
	specs     SpecSource
	provider  ports.ProviderFactory
	tool      domain.ImageTool
	history   ports.HistoryRepository // optional
	executor  *PipelineExecutor
	outputDir string
}

func NewGenerationService(
	logger *slog.Logger,
	registry *JobRegistry,
	bridge *ProgressBridge,
	scheduler *JobScheduler,
	bus *EventBus,
	specs SpecSource,
	provider ports.ProviderFactory,
	tool domain.ImageTool,
	history ports.HistoryRepository,
) *GenerationService {
	return &GenerationService{
		logger:    logger,
		registry:  registry,
		bridge:    bridge,
		scheduler: scheduler,
		bus:       bus,
		specs:     specs,
		provider:  provider,
		tool:      tool,
		history:   history,
		executor:  NewPipelineExecutor(logger),
		outputDir: config.OutputDir,
	}
}

// SetOutputDir overrides where run artifacts are written. Used by tests.
func (s *GenerationService) SetOutputDir(dir string) {
	s.outputDir = dir
}

// Run starts the scheduler consumer. Blocks until ctx is cancelled.
func (s *GenerationService) Run(ctx context.Context) error {
	s.scheduler.Start(ctx, s.execute)
	<-ctx.Done()
	return nil
}

// Submit creates a pending job and queues it for execution. The caller gets
// the job id back immediately; all pipeline work happens off this goroutine.
func (s *GenerationService) Submit(topic string, settings domain.GenerationSettings) (domain.JobID, error) {
	id := s.registry.Create(topic, settings)

	if err := s.scheduler.Submit(id); err != nil {
		// The worker never started: pending → error directly.
		s.fail(id, fmt.Sprintf("dispatch failed: %v", err))
		return id, fmt.Errorf("failed to dispatch job %s: %w", id, err)
	}

	s.logger.Info("generation submitted", "job_id", string(id), "topic", topic)
	return id, nil
}

// execute runs one job's pipeline to completion. Never panics the worker:
// every failure lands in the registry as a terminal error state.
func (s *GenerationService) execute(ctx context.Context, id domain.JobID) {
	job, err := s.registry.Get(id)
	if err != nil {
		s.logger.Error("queued job vanished from registry", "job_id", string(id))
		return
	}

	s.registry.MarkInProgress(id)
	s.bridge.Notify(domain.ProgressEvent{JobID: id, Message: "Starting content generation", Progress: 5})

	llm, err := s.provider()
	if err != nil {
		s.fail(id, err.Error())
		return
	}

	builder := NewPipelineBuilder(s.logger, s.specs, llm, s.tool, job.Topic, job.Settings)
	nodes, err := builder.BuildPipeline()
	if err != nil {
		s.fail(id, err.Error())
		return
	}

	run := s.executor.Run(ctx, nodes, func(message string, progress int, summary string) {
		s.bridge.Notify(domain.ProgressEvent{JobID: id, Message: message, Progress: progress, Summary: summary})
	})

	if run.Status != domain.RunStatusSuccess {
		s.fail(id, run.Message)
		return
	}

	s.bridge.Notify(domain.ProgressEvent{JobID: id, Message: "Assembling results", Progress: 95})

	result := &domain.GenerationResult{
		BlogDraft:     run.Outputs[TaskWriteDraft],
		BlogReviewed:  run.Outputs[TaskReviewDraft],
		FormattedPost: run.FormattedPost,
		Images:        run.Outputs[TaskGenerateImages],
	}

	s.saveArtifacts(id, result)
	s.registry.MarkCompleted(id, result)
	s.publishStatus(id, domain.JobStatusCompleted, "")
	s.archive(ctx, id)
}

// fail applies the terminal error transition and announces it.
func (s *GenerationService) fail(id domain.JobID, message string) {
	s.registry.MarkError(id, message)
	s.publishStatus(id, domain.JobStatusError, message)
}

func (s *GenerationService) publishStatus(id domain.JobID, status domain.JobStatus, message string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{JobID: string(id), Type: EventTypeStatus, Message: string(status), Payload: message})
}

// saveArtifacts writes the run outputs under output/<job-id>/. Failures are
// logged and do not affect the job outcome.
func (s *GenerationService) saveArtifacts(id domain.JobID, result *domain.GenerationResult) {
	dir := filepath.Join(s.outputDir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("failed to create output dir", "dir", dir, "error", err)
		return
	}

	write := func(name string, data []byte) {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			s.logger.Error("failed to save artifact", "file", name, "error", err)
		}
	}

	write("blog_draft.md", []byte(result.BlogDraft))
	write("blog_reviewed.md", []byte(result.BlogReviewed))
	if result.FormattedPost != nil {
		if data, err := json.MarshalIndent(result.FormattedPost, "", "  "); err == nil {
			write("formatted_post.json", data)
		}
	}
}

// archive records the finished job in the history repository. Best effort:
// the in-memory registry stays authoritative.
func (s *GenerationService) archive(ctx context.Context, id domain.JobID) {
	if s.history == nil {
		return
	}
	job, err := s.registry.Get(id)
	if err != nil {
		return
	}
	if err := s.history.SaveGeneration(ctx, job); err != nil {
		s.logger.Warn("failed to archive generation", "job_id", string(id), "error", err)
	}
}
