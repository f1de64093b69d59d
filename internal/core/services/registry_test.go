package services

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestJobRegistry_CreateAndGet(t *testing.T) {
	reg := NewJobRegistry(testLogger())

	id := reg.Create("AI safety", domain.DefaultSettings())
	require.NotEmpty(t, id)

	job, err := reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, "AI safety", job.Topic)
	assert.Nil(t, job.Result)
	assert.Nil(t, job.Error)
}

func TestJobRegistry_UnknownJob(t *testing.T) {
	reg := NewJobRegistry(testLogger())

	_, err := reg.Get("no-such-id")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	// Updates for unknown ids are dropped, never panic.
	reg.ApplyProgress(domain.ProgressEvent{JobID: "no-such-id", Progress: 50})
	reg.MarkCompleted("no-such-id", nil)
}

func TestJobRegistry_MonotonicProgress(t *testing.T) {
	reg := NewJobRegistry(testLogger())
	id := reg.Create("topic", domain.DefaultSettings())
	reg.MarkInProgress(id)

	reg.ApplyProgress(domain.ProgressEvent{JobID: id, Progress: 40})
	job, _ := reg.Get(id)
	assert.Equal(t, 40, job.Progress)

	// A lower value never rewinds progress.
	reg.ApplyProgress(domain.ProgressEvent{JobID: id, Progress: 20})
	job, _ = reg.Get(id)
	assert.Equal(t, 40, job.Progress)

	// Out-of-range values are clamped.
	reg.ApplyProgress(domain.ProgressEvent{JobID: id, Progress: 150})
	job, _ = reg.Get(id)
	assert.Equal(t, 100, job.Progress)

	// Negative means "message only".
	reg.ApplyProgress(domain.ProgressEvent{JobID: id, Progress: -1, Message: "still working"})
	job, _ = reg.Get(id)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Message)
	assert.Equal(t, "still working", *job.Message)
}

func TestJobRegistry_TerminalStickiness(t *testing.T) {
	reg := NewJobRegistry(testLogger())
	id := reg.Create("topic", domain.DefaultSettings())
	reg.MarkInProgress(id)

	result := &domain.GenerationResult{BlogDraft: "draft"}
	reg.MarkCompleted(id, result)

	job, _ := reg.Get(id)
	require.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)

	// Late-arriving progress must not resurrect a finished job.
	reg.ApplyProgress(domain.ProgressEvent{JobID: id, Progress: 10, Message: "late"})
	reg.MarkError(id, "too late")
	reg.MarkCompleted(id, &domain.GenerationResult{BlogDraft: "other"})

	job, _ = reg.Get(id)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Nil(t, job.Error)
	assert.Equal(t, "draft", job.Result.BlogDraft)
	assert.Nil(t, job.Message)
}

func TestJobRegistry_PendingToErrorOnDispatchFailure(t *testing.T) {
	reg := NewJobRegistry(testLogger())
	id := reg.Create("topic", domain.DefaultSettings())

	reg.MarkError(id, "dispatch failed")

	job, _ := reg.Get(id)
	assert.Equal(t, domain.JobStatusError, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, "dispatch failed", *job.Error)
	assert.Nil(t, job.Result)
}
